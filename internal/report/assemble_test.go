package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agegroup/cuffannot/internal/annotation"
	"github.com/agegroup/cuffannot/internal/david"
	"github.com/agegroup/cuffannot/internal/diff"
	"github.com/agegroup/cuffannot/internal/gtf"
)

func geneTable() *diff.Table {
	return &diff.Table{
		Columns: []string{
			"test_id", "gene_id", "gene", "locus", "sample_1", "sample_2",
			"status", "value_1", "value_2", "test_stat", "p_value", "q_value",
			"significant",
		},
		Rows: []diff.Row{
			{
				Cells: []string{
					"TEST_1", "XLOC_1", "abc-1", "I:100-200", "T1", "T2",
					"OK", "1.5", "3.0", "2.1", "0.001", "0.01", "yes",
				},
				TestID:     "TEST_1",
				Identifier: "abc-1",
			},
			{
				Cells: []string{
					"TEST_2", "XLOC_2", "unknown-9", "I:300-400", "T1", "T2",
					"OK", "0.2", "0.3", "0.4", "0.7", "0.9", "no",
				},
				TestID:     "TEST_2",
				Identifier: "unknown-9",
			},
		},
	}
}

func TestAssembly_Header(t *testing.T) {
	table := geneTable()

	a := Assembly{}
	assert.Equal(t, []string{
		"gene", "locus", "sample_1", "sample_2", "status",
		"value_1", "value_2", "test_stat", "p_value", "q_value", "significant",
		"gene_biotype", "GO_id", "GO_term",
	}, a.Header(table))
}

func TestAssembly_Header_DropExpression(t *testing.T) {
	table := geneTable()

	a := Assembly{DropExpression: true}
	assert.Equal(t, []string{
		"gene", "locus", "sample_1", "sample_2", "status",
		"p_value", "q_value", "significant",
		"gene_biotype", "GO_id", "GO_term",
	}, a.Header(table))
}

func TestAssembly_Header_TranscriptRefs(t *testing.T) {
	table := geneTable()

	a := Assembly{TranscriptRefs: map[string]gtf.TranscriptRef{}}
	header := a.Header(table)
	assert.Equal(t, "transcript_id", header[0])
	assert.Equal(t, "nearest_ref", header[1])
}

func TestAssembly_Rows_LeftJoin(t *testing.T) {
	table := geneTable()

	ann := annotation.NewTable([]annotation.GeneAnnotation{
		{
			GeneName: "abc-1",
			Biotype:  "protein_coding",
			GOIDs:    []string{"GO:0005515", "GO:0003674"},
			GOTerms:  []string{"protein binding", "molecular_function"},
		},
	})

	a := Assembly{Annotations: ann}
	rows := a.Rows(table, table.Rows)
	require.Len(t, rows, 2)

	// Annotated row carries biotype and joined GO lists.
	first := rows[0]
	assert.Equal(t, "abc-1", first[0])
	assert.Equal(t, "protein_coding", first[len(first)-3])
	assert.Equal(t, "GO:0005515;GO:0003674", first[len(first)-2])
	assert.Equal(t, "protein binding;molecular_function", first[len(first)-1])

	// Unmatched row keeps the diff cells but empty annotation cells.
	second := rows[1]
	assert.Equal(t, "unknown-9", second[0])
	assert.Equal(t, "", second[len(second)-3])
	assert.Equal(t, "", second[len(second)-2])
	assert.Equal(t, "", second[len(second)-1])
}

func TestAssembly_Rows_TranscriptRefs(t *testing.T) {
	table := geneTable()

	a := Assembly{
		TranscriptRefs: map[string]gtf.TranscriptRef{
			"TEST_1": {TranscriptID: "tr.1", NearestRef: "ZK617.1a"},
		},
	}
	rows := a.Rows(table, table.Rows)
	require.Len(t, rows, 2)

	assert.Equal(t, "tr.1", rows[0][0])
	assert.Equal(t, "ZK617.1a", rows[0][1])
	assert.Equal(t, "abc-1", rows[0][2])

	// No ref for TEST_2: columns are present but empty.
	assert.Equal(t, "", rows[1][0])
	assert.Equal(t, "", rows[1][1])
}

func TestSplitByCategory(t *testing.T) {
	records := []david.Record{
		{Category: david.CategoryBP, Term: "GO:0006915~apoptotic process"},
		{Category: david.CategoryMF, Term: "GO:0005515~protein binding"},
		{Category: david.CategoryBP, Term: "GO:0008340~determination of adult lifespan"},
	}

	split := SplitByCategory(records)
	require.Len(t, split, 2)
	require.Len(t, split[david.CategoryBP], 2)
	assert.Equal(t, "GO:0006915~apoptotic process", split[david.CategoryBP][0].Term)
	assert.Equal(t, "GO:0008340~determination of adult lifespan", split[david.CategoryBP][1].Term)
	require.Len(t, split[david.CategoryMF], 1)
}

func TestCategoryPrefix(t *testing.T) {
	assert.Equal(t, "bio_process", CategoryPrefix(david.CategoryBP))
	assert.Equal(t, "cell_component", CategoryPrefix(david.CategoryCC))
	assert.Equal(t, "mol_function", CategoryPrefix(david.CategoryMF))
	assert.Equal(t, "enrichment", CategoryPrefix("KEGG_PATHWAY"))
}
