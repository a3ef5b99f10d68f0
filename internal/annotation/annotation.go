// Package annotation aggregates the annotation database's one-to-many
// gene/GO-term rows into one record per gene.
package annotation

import (
	"fmt"
	"strings"
)

// FinalCheckpoint is the aggregated per-gene annotation table artifact.
const FinalCheckpoint = "biotypes_go.txt"

// RawCacheName is the DuckDB file caching the raw annotation join.
const RawCacheName = "annotation_raw.duckdb"

// listSep joins the multi-valued GO columns in the checkpoint format.
const listSep = ";"

// GeneAnnotation is the aggregated annotation of a single gene. GOIDs and
// GOTerms are ordered, deduplicated and always of equal length; index i of
// one pairs with index i of the other.
type GeneAnnotation struct {
	GeneName string
	Biotype  string
	GOIDs    []string
	GOTerms  []string
}

// Table holds one GeneAnnotation per gene_name.
type Table struct {
	Records []GeneAnnotation

	byName map[string]int
}

// NewTable builds a table from records, indexing by gene name.
func NewTable(records []GeneAnnotation) *Table {
	t := &Table{Records: records, byName: make(map[string]int, len(records))}
	for i, rec := range records {
		if _, ok := t.byName[rec.GeneName]; !ok {
			t.byName[rec.GeneName] = i
		}
	}
	return t
}

// Lookup returns the annotation for a gene name.
func (t *Table) Lookup(name string) (GeneAnnotation, bool) {
	i, ok := t.byName[name]
	if !ok {
		return GeneAnnotation{}, false
	}
	return t.Records[i], true
}

// Encode serializes the table in its checkpoint format.
func (t *Table) Encode() []byte {
	var b strings.Builder
	b.WriteString("gene_name\tgene_biotype\tGO_id\tGO_term\n")
	for _, rec := range t.Records {
		b.WriteString(rec.GeneName)
		b.WriteByte('\t')
		b.WriteString(rec.Biotype)
		b.WriteByte('\t')
		b.WriteString(strings.Join(rec.GOIDs, listSep))
		b.WriteByte('\t')
		b.WriteString(strings.Join(rec.GOTerms, listSep))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Decode parses a checkpoint artifact back into a table.
func Decode(data []byte) (*Table, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "gene_name\t") {
		return nil, fmt.Errorf("annotation table: missing gene_name header")
	}

	var records []GeneAnnotation
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		if len(cells) != 4 {
			return nil, fmt.Errorf("annotation table: malformed line %q", line)
		}
		records = append(records, GeneAnnotation{
			GeneName: cells[0],
			Biotype:  cells[1],
			GOIDs:    splitList(cells[2]),
			GOTerms:  splitList(cells[3]),
		})
	}
	return NewTable(records), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

// JoinedGOIDs returns the GO ids as the single delimiter-joined report cell.
func (a GeneAnnotation) JoinedGOIDs() string {
	return strings.Join(a.GOIDs, listSep)
}

// JoinedGOTerms returns the GO terms as the single delimiter-joined report cell.
func (a GeneAnnotation) JoinedGOTerms() string {
	return strings.Join(a.GOTerms, listSep)
}
