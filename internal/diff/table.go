// Package diff parses cuffdiff output tables and classifies their rows into
// significance tiers.
package diff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Required cuffdiff column names.
const (
	ColTestID      = "test_id"
	ColGene        = "gene"
	ColSample1     = "sample_1"
	ColSample2     = "sample_2"
	ColPValue      = "p_value"
	ColQValue      = "q_value"
	ColSignificant = "significant"
)

// SignificantMarker is cuffdiff's flag value for significantly changed rows.
const SignificantMarker = "yes"

// Row is one parsed diff-table row. Cells carries every column verbatim so
// reports can reproduce the input columns; the typed fields are the ones the
// pipeline joins and filters on.
type Row struct {
	Cells       []string
	TestID      string
	Gene        string
	Identifier  string
	Sample1     string
	Sample2     string
	PValue      float64
	QValue      float64
	Significant string
}

// Table is a fully parsed diff table.
type Table struct {
	Path    string
	Columns []string
	Rows    []Row

	index map[string]int
}

// ParseError reports a malformed diff table with line context.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("diff table %s: line %d: %s", e.Path, e.Line, e.Message)
}

// ReadTable reads a tab-delimited cuffdiff table from a file.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diff table: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	t.Path = path
	return t, nil
}

// Parse reads a tab-delimited cuffdiff table from a reader.
func Parse(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	t := &Table{index: make(map[string]int)}
	lineNum := 0

	// Header line.
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		t.Columns = strings.Split(line, "\t")
		break
	}
	if t.Columns == nil {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read diff table: %w", err)
		}
		return nil, &ParseError{Line: lineNum, Message: "no header line found"}
	}

	for i, col := range t.Columns {
		t.index[col] = i
	}
	for _, col := range []string{ColTestID, ColGene, ColSample1, ColSample2, ColPValue, ColQValue, ColSignificant} {
		if _, ok := t.index[col]; !ok {
			return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("required column %q not found in header", col)}
		}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		cells := strings.Split(line, "\t")
		if len(cells) != len(t.Columns) {
			return nil, &ParseError{
				Line:    lineNum,
				Message: fmt.Sprintf("expected %d columns, found %d", len(t.Columns), len(cells)),
			}
		}

		row := Row{
			Cells:       cells,
			TestID:      cells[t.index[ColTestID]],
			Gene:        cells[t.index[ColGene]],
			Sample1:     cells[t.index[ColSample1]],
			Sample2:     cells[t.index[ColSample2]],
			Significant: cells[t.index[ColSignificant]],
		}
		row.Identifier = FirstAlias(row.Gene)

		p, err := parseStat(cells[t.index[ColPValue]])
		if err != nil {
			return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("invalid p_value: %s", cells[t.index[ColPValue]])}
		}
		q, err := parseStat(cells[t.index[ColQValue]])
		if err != nil {
			return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("invalid q_value: %s", cells[t.index[ColQValue]])}
		}
		row.PValue = p
		row.QValue = q

		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read diff table: %w", err)
	}

	return t, nil
}

// parseStat parses a cuffdiff statistic column. Untested rows carry "-",
// which ranks last in any ascending sort.
func parseStat(s string) (float64, error) {
	if s == "-" || strings.EqualFold(s, "nan") {
		return 1, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ColumnIndex returns the index of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Sort orders rows by q_value then p_value ascending. Output determinism
// only; tier predicates do not depend on it.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].QValue != t.Rows[j].QValue {
			return t.Rows[i].QValue < t.Rows[j].QValue
		}
		return t.Rows[i].PValue < t.Rows[j].PValue
	})
}

// FirstAlias returns the first alias of a comma-joined gene field. Downstream
// joins use this as the row identifier.
func FirstAlias(gene string) string {
	if i := strings.Index(gene, ","); i != -1 {
		return gene[:i]
	}
	return gene
}
