// Package report assembles tiered, pairwise comparison reports and writes
// them to xlsx workbooks.
package report

import "github.com/agegroup/cuffannot/internal/diff"

// SamplePair is an unordered pair of sample labels. First points at the
// label encountered first during enumeration; {A,B} and {B,A} are the same
// pair and only one of them is ever emitted.
type SamplePair struct {
	First  string
	Second string
}

// SheetName is the pair's report sheet name.
func (p SamplePair) SheetName() string {
	return p.First + "|" + p.Second
}

// key returns an orientation-independent identity for the pair.
func (p SamplePair) key() string {
	if p.Second < p.First {
		return p.Second + "\x00" + p.First
	}
	return p.First + "\x00" + p.Second
}

// SampleLabels collects the distinct sample labels of a row set: sample_1
// values in row order, then sample_2 values.
func SampleLabels(rows []diff.Row) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Sample1] {
			seen[r.Sample1] = true
			labels = append(labels, r.Sample1)
		}
	}
	for _, r := range rows {
		if !seen[r.Sample2] {
			seen[r.Sample2] = true
			labels = append(labels, r.Sample2)
		}
	}
	return labels
}

// Pairs enumerates every unordered pair of labels exactly once. The claim
// set keyed by the canonical (min,max) ordering guarantees that a pair seen
// as (a,b) is never re-emitted as (b,a), whatever the label order.
func Pairs(labels []string) []SamplePair {
	var pairs []SamplePair
	claimed := make(map[string]bool)
	for _, a := range labels {
		for _, b := range labels {
			if a == b {
				continue
			}
			p := SamplePair{First: a, Second: b}
			if claimed[p.key()] {
				continue
			}
			claimed[p.key()] = true
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// PairRows scopes a row set to one sample pair: rows whose two samples both
// belong to the pair.
func PairRows(rows []diff.Row, p SamplePair) []diff.Row {
	in := map[string]bool{p.First: true, p.Second: true}
	var out []diff.Row
	for _, r := range rows {
		if in[r.Sample1] && in[r.Sample2] {
			out = append(out, r)
		}
	}
	return out
}
