package duckdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("") // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	has, err := s.HasRows()
	require.NoError(t, err)
	assert.False(t, has)

	in := []Row{
		{GeneID: "WBGene00000001", Biotype: "protein_coding", GOID: "GO:0005515", GOTerm: "protein binding"},
		{GeneID: "WBGene00000001", Biotype: "protein_coding", GOID: "GO:0008286", GOTerm: "insulin receptor signaling pathway"},
		{GeneID: "WBGene00000002", Biotype: "ncRNA", GOID: "", GOTerm: ""},
	}
	require.NoError(t, s.WriteRows(in))

	has, err = s.HasRows()
	require.NoError(t, err)
	assert.True(t, has)

	out, err := s.LoadRows()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStore_OrderPreserved(t *testing.T) {
	s := openTestStore(t)

	var in []Row
	for i := 0; i < 50; i++ {
		in = append(in, Row{GeneID: "g", Biotype: "b", GOID: "GO:" + string(rune('A'+i%26)), GOTerm: "t"})
	}
	require.NoError(t, s.WriteRows(in))

	out, err := s.LoadRows()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStore_EmptyJoinStillResumes(t *testing.T) {
	s := openTestStore(t)

	// A join that legitimately returned zero rows is still a completed
	// stage: the external call must not be repeated on re-run.
	require.NoError(t, s.WriteRows(nil))

	has, err := s.HasRows()
	require.NoError(t, err)
	assert.True(t, has)

	rows, err := s.LoadRows()
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, s.Clear())
	has, err = s.HasRows()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.WriteRows([]Row{{GeneID: "g"}}))
	require.NoError(t, s.Clear())

	has, err := s.HasRows()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "annotation_raw.duckdb")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRows([]Row{{GeneID: "g1", Biotype: "protein_coding"}}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	rows, err := s2.LoadRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "g1", rows[0].GeneID)
}
