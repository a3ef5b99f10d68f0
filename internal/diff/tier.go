package diff

import (
	"fmt"
	"strings"
)

// Tier is a significance-based row-inclusion policy.
type Tier int

const (
	// TierPThreshold keeps rows with p_value below a configurable cutoff.
	TierPThreshold Tier = iota
	// TierAll keeps every row.
	TierAll
	// TierSignificant keeps rows cuffdiff flagged as significant.
	TierSignificant
)

// DefaultPThreshold is the default p_value cutoff for TierPThreshold.
const DefaultPThreshold = 0.05

// Tiers returns the tiers a run reports, in output order. Significant-only
// mode and the three-tier mode are mutually exclusive; callers enforce that
// before getting here.
func Tiers(sigOnly bool) []Tier {
	if sigOnly {
		return []Tier{TierSignificant}
	}
	return []Tier{TierPThreshold, TierAll, TierSignificant}
}

// Label returns the tier's output-naming label.
func (t Tier) Label(pThreshold float64) string {
	switch t {
	case TierPThreshold:
		// 0.05 labels as "diff_p.05", matching historical report names.
		return "diff_p" + strings.TrimPrefix(fmt.Sprintf("%g", pThreshold), "0")
	case TierAll:
		return "diff_all"
	case TierSignificant:
		return "diff_sig"
	}
	return "diff_unknown"
}

// Match reports whether a row belongs to the tier.
func (t Tier) Match(row Row, pThreshold float64) bool {
	switch t {
	case TierPThreshold:
		return row.PValue < pThreshold
	case TierAll:
		return true
	case TierSignificant:
		return row.Significant == SignificantMarker
	}
	return false
}

// Filter returns the rows of a table belonging to the tier, preserving the
// table's row order.
func Filter(t *Table, tier Tier, pThreshold float64) []Row {
	var rows []Row
	for _, row := range t.Rows {
		if tier.Match(row, pThreshold) {
			rows = append(rows, row)
		}
	}
	return rows
}
