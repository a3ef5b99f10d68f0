package gtf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRefs(t *testing.T) {
	var b strings.Builder
	for i := 0; i < HeaderLines; i++ {
		b.WriteString("# cuffcompare preamble\n")
	}
	lines := []string{
		"I\tCufflinks\texon\t1\t100\t.\t+\t.\t" + `transcript_id "TCONS_00000001"; nearest_ref "ZK617.1a";`,
		// Second record for the same transcript: first occurrence wins.
		"I\tCufflinks\texon\t150\t200\t.\t+\t.\t" + `transcript_id "TCONS_00000001"; nearest_ref "OTHER";`,
		// No nearest_ref: dropped from the projection.
		"II\tCufflinks\texon\t1\t50\t.\t-\t.\t" + `transcript_id "TCONS_00000002";`,
		"II\tCufflinks\texon\t60\t90\t.\t-\t.\t" + `transcript_id "TCONS_00000003"; nearest_ref "F39H11.2";`,
	}
	b.WriteString(strings.Join(lines, "\n") + "\n")

	path := filepath.Join(t.TempDir(), "cuffcmp.combined.gtf")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	refs, err := TranscriptRefs(path)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, TranscriptRef{TranscriptID: "TCONS_00000001", NearestRef: "ZK617.1a"},
		refs["TCONS_00000001"])
	assert.Equal(t, "F39H11.2", refs["TCONS_00000003"].NearestRef)
	assert.NotContains(t, refs, "TCONS_00000002")
}

func TestTranscriptRefs_MissingFile(t *testing.T) {
	_, err := TranscriptRefs(filepath.Join(t.TempDir(), "absent.gtf"))
	require.Error(t, err)
}
