package gtf

import "fmt"

// TranscriptRef links an assembled transcript id to its nearest reference
// transcript, as recorded by cuffcompare.
type TranscriptRef struct {
	TranscriptID string
	NearestRef   string
}

// TranscriptRefs projects deduplicated (transcript_id, nearest_ref) pairs out
// of a cuffcompare-curated annotation file, keyed by transcript id. Records
// missing either key are dropped from this projection. First occurrence wins.
func TranscriptRefs(path string) (map[string]TranscriptRef, error) {
	reader, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	refs := make(map[string]TranscriptRef)
	for {
		rec, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("transcript refs: %w", err)
		}
		if rec == nil {
			break
		}

		id, ok := Attribute(rec.Attributes, "transcript_id")
		if !ok {
			continue
		}
		ref, ok := Attribute(rec.Attributes, "nearest_ref")
		if !ok {
			continue
		}
		if _, seen := refs[id]; !seen {
			refs[id] = TranscriptRef{TranscriptID: id, NearestRef: ref}
		}
	}

	return refs, nil
}
