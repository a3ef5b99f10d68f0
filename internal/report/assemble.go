package report

import (
	"github.com/agegroup/cuffannot/internal/annotation"
	"github.com/agegroup/cuffannot/internal/david"
	"github.com/agegroup/cuffannot/internal/diff"
	"github.com/agegroup/cuffannot/internal/gtf"
)

// Merge-only columns never emitted in reports.
var droppedColumns = map[string]bool{
	diff.ColTestID: true,
	"gene_id":      true,
}

// Numeric columns only meaningful for the two expression tables.
var expressionColumns = map[string]bool{
	"value_1":   true,
	"value_2":   true,
	"test_stat": true,
}

// Assembly configures how a diff table's rows become report rows.
type Assembly struct {
	// Annotations joins on each row's identifier with left-join semantics:
	// unmatched rows keep empty annotation cells.
	Annotations *annotation.Table
	// TranscriptRefs, when set, prepends transcript_id/nearest_ref columns
	// resolved through each row's test_id (the isoform table case).
	TranscriptRefs map[string]gtf.TranscriptRef
	// DropExpression removes value_1/value_2/test_stat, for diff types where
	// those fields carry nothing.
	DropExpression bool
}

// Header returns the report column set for a table under this assembly.
func (a Assembly) Header(t *diff.Table) []string {
	var header []string
	if a.TranscriptRefs != nil {
		header = append(header, "transcript_id", "nearest_ref")
	}
	for _, col := range t.Columns {
		if a.dropped(col) {
			continue
		}
		header = append(header, col)
	}
	// The join key (gene_name/identifier) duplicates the gene column and is
	// not emitted.
	return append(header, "gene_biotype", "GO_id", "GO_term")
}

// Rows assembles report rows for the given filtered row set.
func (a Assembly) Rows(t *diff.Table, rows []diff.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		var cells []string

		if a.TranscriptRefs != nil {
			ref := a.TranscriptRefs[row.TestID]
			cells = append(cells, ref.TranscriptID, ref.NearestRef)
		}

		for i, col := range t.Columns {
			if a.dropped(col) {
				continue
			}
			cells = append(cells, row.Cells[i])
		}

		var biotype, goIDs, goTerms string
		if a.Annotations != nil {
			if ann, ok := a.Annotations.Lookup(row.Identifier); ok {
				biotype = ann.Biotype
				goIDs = ann.JoinedGOIDs()
				goTerms = ann.JoinedGOTerms()
			}
		}
		cells = append(cells, biotype, goIDs, goTerms)

		out = append(out, cells)
	}
	return out
}

func (a Assembly) dropped(col string) bool {
	if droppedColumns[col] {
		return true
	}
	return a.DropExpression && expressionColumns[col]
}

// SplitByCategory buckets enrichment records into the three functional
// categories, preserving record order.
func SplitByCategory(records []david.Record) map[string][]david.Record {
	out := make(map[string][]david.Record)
	for _, r := range records {
		out[r.Category] = append(out[r.Category], r)
	}
	return out
}

// CategoryPrefix maps a functional category to its workbook file prefix.
func CategoryPrefix(category string) string {
	switch category {
	case david.CategoryBP:
		return "bio_process"
	case david.CategoryCC:
		return "cell_component"
	case david.CategoryMF:
		return "mol_function"
	}
	return "enrichment"
}
