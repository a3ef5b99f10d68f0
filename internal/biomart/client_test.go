package biomart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.Form.Get("query")
		w.Write([]byte("WBGene00000001\tprotein_coding\nWBGene00000002\tncRNA\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "ensembl", "celegans_gene_ensembl")
	rows, err := c.Query(context.Background(),
		"ensembl_gene_id",
		[]string{"WBGene00000001", "WBGene00000002"},
		[]string{"ensembl_gene_id", "gene_biotype"})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"WBGene00000001", "protein_coding"}, rows[0])
	assert.Equal(t, []string{"WBGene00000002", "ncRNA"}, rows[1])

	// The query document carries the dataset, the joined filter values and
	// the attributes in request order.
	assert.Contains(t, gotQuery, `name="celegans_gene_ensembl"`)
	assert.Contains(t, gotQuery, `value="WBGene00000001,WBGene00000002"`)
	assert.Contains(t, gotQuery, `<Attribute name="ensembl_gene_id">`)
	assert.Contains(t, gotQuery, `<Attribute name="gene_biotype">`)
}

func TestQuery_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Query ERROR: caught BioMart::Exception::Usage: Filter unknown not found"))
	}))
	defer srv.Close()

	c := New(srv.URL, "ensembl", "celegans_gene_ensembl")
	_, err := c.Query(context.Background(), "unknown", []string{"x"}, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Query ERROR")
}

func TestQuery_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "martservice unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "ensembl", "celegans_gene_ensembl")
	_, err := c.Query(context.Background(), "f", []string{"x"}, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestListMarts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "registry", r.Form.Get("type"))
		w.Write([]byte(`<MartRegistry>
  <MartURLLocation database="ensembl_mart_110" name="ensembl" displayName="Ensembl Genes 110"/>
  <MartURLLocation database="ontology_mart_110" name="ontology" displayName="Ontology Mart 110"/>
</MartRegistry>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "ensembl", "")
	marts, err := c.ListMarts(context.Background())
	require.NoError(t, err)
	require.Len(t, marts, 2)
	assert.Equal(t, "ensembl", marts[0].Name)
	assert.Equal(t, "Ensembl Genes 110", marts[0].DisplayName)
}

func TestListDatasets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "datasets", r.Form.Get("type"))
		assert.Equal(t, "ensembl", r.Form.Get("mart"))
		w.Write([]byte("TableSet\tcelegans_gene_ensembl\tCaenorhabditis elegans genes\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "ensembl", "")
	rows, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "celegans_gene_ensembl", rows[0][1])
}
