package david

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReportColumns is the chart-report header, in service order.
var ReportColumns = []string{
	"Category", "Term", "Count", "%", "Pvalue", "Genes",
	"List Total", "Pop Hits", "Pop Total", "Fold Enrichment",
	"Bonferroni", "Benjamini", "FDR",
}

// Record is one chart-report row. Genes is the comma-space-joined gene-id
// list as returned by the service, in the service's identifier space until
// the enrichment bridge rewrites it.
type Record struct {
	Category       string
	Term           string
	Count          int
	Percent        float64
	PValue         float64
	Genes          string
	ListTotal      int
	PopHits        int
	PopTotal       int
	FoldEnrichment float64
	Bonferroni     float64
	Benjamini      float64
	FDR            float64
}

// Cells returns the record as report cells, matching ReportColumns.
func (r Record) Cells() []string {
	return []string{
		r.Category,
		r.Term,
		strconv.Itoa(r.Count),
		formatFloat(r.Percent),
		formatFloat(r.PValue),
		r.Genes,
		strconv.Itoa(r.ListTotal),
		strconv.Itoa(r.PopHits),
		strconv.Itoa(r.PopTotal),
		formatFloat(r.FoldEnrichment),
		formatFloat(r.Bonferroni),
		formatFloat(r.Benjamini),
		formatFloat(r.FDR),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseChartReport parses the TSV chart-report body. A body with only a
// header, or no rows at all, yields an empty result.
func ParseChartReport(body string) ([]Record, error) {
	var records []Record
	for i, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "Category\t") {
			continue
		}

		cells := strings.Split(line, "\t")
		if len(cells) != len(ReportColumns) {
			return nil, eris.Errorf("david: chart report line %d: expected %d columns, found %d",
				i+1, len(ReportColumns), len(cells))
		}

		rec := Record{Category: cells[0], Term: cells[1], Genes: cells[5]}
		var err error
		if rec.Count, err = strconv.Atoi(cells[2]); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: count", i+1)
		}
		if rec.Percent, err = strconv.ParseFloat(cells[3], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: percent", i+1)
		}
		if rec.PValue, err = strconv.ParseFloat(cells[4], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: p-value", i+1)
		}
		if rec.ListTotal, err = strconv.Atoi(cells[6]); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: list total", i+1)
		}
		if rec.PopHits, err = strconv.Atoi(cells[7]); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: pop hits", i+1)
		}
		if rec.PopTotal, err = strconv.Atoi(cells[8]); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: pop total", i+1)
		}
		if rec.FoldEnrichment, err = strconv.ParseFloat(cells[9], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: fold enrichment", i+1)
		}
		if rec.Bonferroni, err = strconv.ParseFloat(cells[10], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: bonferroni", i+1)
		}
		if rec.Benjamini, err = strconv.ParseFloat(cells[11], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: benjamini", i+1)
		}
		if rec.FDR, err = strconv.ParseFloat(cells[12], 64); err != nil {
			return nil, eris.Wrapf(err, "david: chart report line %d: fdr", i+1)
		}

		records = append(records, rec)
	}
	return records, nil
}
