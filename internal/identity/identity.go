// Package identity resolves the canonical gene name/id mapping for a run:
// the genes mentioned in the diff tables intersected with the genes present
// in the annotation source.
package identity

import (
	"fmt"
	"strings"
)

// Identity is one unique (gene_name, gene_id) pair.
type Identity struct {
	Name string
	ID   string
}

// CheckpointName is the identity table's checkpoint artifact.
const CheckpointName = "genes_table.txt"

// Set is an ordered, deduplicated identity table.
type Set []Identity

// IDs returns the gene ids in table order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, id := range s {
		ids = append(ids, id.ID)
	}
	return ids
}

// NamesByID returns a gene_id -> gene_name lookup. Ids are lowercased when
// fold is set, for collaborators that return ids in arbitrary case.
func (s Set) NamesByID(fold bool) map[string]string {
	m := make(map[string]string, len(s))
	for _, id := range s {
		key := id.ID
		if fold {
			key = strings.ToLower(key)
		}
		if _, ok := m[key]; !ok {
			m[key] = id.Name
		}
	}
	return m
}

// IDsByName returns a gene_name -> gene_id lookup (first id wins).
func (s Set) IDsByName() map[string]string {
	m := make(map[string]string, len(s))
	for _, id := range s {
		if _, ok := m[id.Name]; !ok {
			m[id.Name] = id.ID
		}
	}
	return m
}

// Encode serializes the table in its checkpoint format.
func (s Set) Encode() []byte {
	var b strings.Builder
	b.WriteString("g_name\tg_id\n")
	for _, id := range s {
		b.WriteString(id.Name)
		b.WriteByte('\t')
		b.WriteString(id.ID)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Decode parses a checkpoint artifact back into a table, verbatim.
func Decode(data []byte) (Set, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "g_name\t") {
		return nil, fmt.Errorf("identity table: missing g_name header")
	}

	var s Set
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		cells := strings.SplitN(line, "\t", 2)
		if len(cells) != 2 {
			return nil, fmt.Errorf("identity table: malformed line %q", line)
		}
		s = append(s, Identity{Name: cells[0], ID: cells[1]})
	}
	return s, nil
}
