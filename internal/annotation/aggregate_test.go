package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agegroup/cuffannot/internal/checkpoint"
	"github.com/agegroup/cuffannot/internal/duckdb"
	"github.com/agegroup/cuffannot/internal/identity"
)

// fakeClient returns canned responses and counts calls.
type fakeClient struct {
	responses map[string][][]string // keyed by first attribute list entry set
	calls     int
	err       error
}

func (f *fakeClient) Query(_ context.Context, _ string, _ []string, attributes []string) ([][]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[attributes[len(attributes)-1]], nil
}

// memRawCache is an in-memory RawCache. Like the DuckDB-backed store, it
// remembers that a join was written even when it had zero rows.
type memRawCache struct {
	rows   []duckdb.Row
	stored bool
}

func (m *memRawCache) HasRows() (bool, error) { return m.stored, nil }

func (m *memRawCache) WriteRows(rows []duckdb.Row) error {
	m.rows = append(m.rows, rows...)
	m.stored = true
	return nil
}

func (m *memRawCache) LoadRows() ([]duckdb.Row, error) { return m.rows, nil }

var testIdentity = identity.Set{
	{Name: "aap-1", ID: "WBGene00000001"},
	{Name: "aat-1", ID: "WBGene00000002"},
	{Name: "bare-1", ID: "WBGene00000003"},
}

func newTestAggregator(client *fakeClient, raw RawCache, store checkpoint.Store) *Aggregator {
	return NewAggregator(store, raw, client, "ensembl_gene_id",
		[]string{"ensembl_gene_id", "gene_biotype"},
		[]string{"ensembl_gene_id", "go_id", "name_1006"})
}

func TestAggregate(t *testing.T) {
	client := &fakeClient{responses: map[string][][]string{
		"gene_biotype": {
			{"WBGene00000001", "protein_coding"},
			{"WBGene00000002", "protein_coding"},
			{"WBGene00000003", "ncRNA"},
		},
		"name_1006": {
			{"WBGene00000001", "GO:1", "termA"},
			{"WBGene00000001", "GO:2", "termB"},
			{"WBGene00000001", "GO:1", "termA"}, // duplicate pair
			{"WBGene00000002", "GO:3", "termC"},
			// bare-1 has no GO rows at all
		},
	}}
	raw := &memRawCache{}
	store := checkpoint.NewMemStore()

	table, err := newTestAggregator(client, raw, store).Aggregate(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	rec, ok := table.Lookup("aap-1")
	require.True(t, ok)
	assert.Equal(t, "protein_coding", rec.Biotype)
	assert.Equal(t, []string{"GO:1", "GO:2"}, rec.GOIDs)
	assert.Equal(t, []string{"termA", "termB"}, rec.GOTerms)

	// Genes with zero GO rows still get one record with empty lists.
	rec, ok = table.Lookup("bare-1")
	require.True(t, ok)
	assert.Equal(t, "ncRNA", rec.Biotype)
	assert.Empty(t, rec.GOIDs)
	assert.Empty(t, rec.GOTerms)

	// Equal-length invariant.
	for _, r := range table.Records {
		assert.Len(t, r.GOTerms, len(r.GOIDs))
	}

	assert.Equal(t, 2, client.calls) // one biotype query, one GO query
	assert.True(t, store.Has(FinalCheckpoint))
}

func TestAggregate_RawCacheSkipsExternalCall(t *testing.T) {
	client := &fakeClient{}
	raw := &memRawCache{stored: true, rows: []duckdb.Row{
		{GeneID: "WBGene00000001", Biotype: "protein_coding", GOID: "GO:1", GOTerm: "termA"},
	}}
	store := checkpoint.NewMemStore()

	table, err := newTestAggregator(client, raw, store).Aggregate(context.Background(), testIdentity)
	require.NoError(t, err)

	assert.Zero(t, client.calls)
	rec, ok := table.Lookup("aap-1")
	require.True(t, ok)
	assert.Equal(t, []string{"GO:1"}, rec.GOIDs)
}

func TestAggregate_EmptyJoinNotRefetched(t *testing.T) {
	client := &fakeClient{responses: map[string][][]string{}}
	raw := &memRawCache{}

	_, err := newTestAggregator(client, raw, checkpoint.NewMemStore()).
		Aggregate(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)

	// A re-run that lost its final checkpoint reuses the stored empty join
	// rather than repeating the external call.
	table, err := newTestAggregator(client, raw, checkpoint.NewMemStore()).
		Aggregate(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Len(t, table.Records, 3)
}

func TestAggregate_FinalCheckpointShortCircuits(t *testing.T) {
	store := checkpoint.NewMemStore()
	saved := NewTable([]GeneAnnotation{{GeneName: "aap-1", Biotype: "protein_coding", GOIDs: []string{"GO:1"}, GOTerms: []string{"termA"}}})
	require.NoError(t, store.Save(FinalCheckpoint, saved.Encode()))

	client := &fakeClient{}
	table, err := newTestAggregator(client, &memRawCache{}, store).Aggregate(context.Background(), testIdentity)
	require.NoError(t, err)

	assert.Zero(t, client.calls)
	assert.Equal(t, saved.Records, table.Records)
}

func TestAggregate_ExternalFailureIsFatal(t *testing.T) {
	client := &fakeClient{err: assert.AnError}
	_, err := newTestAggregator(client, &memRawCache{}, checkpoint.NewMemStore()).
		Aggregate(context.Background(), testIdentity)
	require.Error(t, err)
}

func TestMergeByID_OuterMerge(t *testing.T) {
	rows := mergeByID(
		[][]string{{"g1", "protein_coding"}, {"g2", "ncRNA"}},
		[][]string{{"g1", "GO:1", "termA"}, {"g3", "GO:9", "termZ"}},
	)

	assert.Equal(t, []duckdb.Row{
		{GeneID: "g1", Biotype: "protein_coding", GOID: "GO:1", GOTerm: "termA"},
		{GeneID: "g2", Biotype: "ncRNA"},
		{GeneID: "g3", GOID: "GO:9", GOTerm: "termZ"},
	}, rows)
}

func TestTable_EncodeDecode(t *testing.T) {
	table := NewTable([]GeneAnnotation{
		{GeneName: "aap-1", Biotype: "protein_coding", GOIDs: []string{"GO:1", "GO:2"}, GOTerms: []string{"termA", "termB"}},
		{GeneName: "bare-1", Biotype: "ncRNA"},
	})

	decoded, err := Decode(table.Encode())
	require.NoError(t, err)
	assert.Equal(t, table.Records, decoded.Records)
}
