// Package enrich drives the enrichment collaborator for one gene list at a
// time and maps its results back into display gene names.
package enrich

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/david"
	"github.com/agegroup/cuffannot/internal/identity"
)

// Bridge runs enrichment calls against the DAVID collaborator. Failures are
// reported to the caller, which treats them as local to the sample pair being
// processed; nothing here retries.
type Bridge struct {
	client     david.Client
	email      string
	idType     string
	threshold  float64
	minCount   int
	scratchDir string
	logger     *zap.Logger
}

// NewBridge creates a bridge authenticating as email and registering gene
// lists under the given identifier type.
func NewBridge(client david.Client, email, idType string) *Bridge {
	return &Bridge{
		client:    client,
		email:     email,
		idType:    idType,
		threshold: 0.1,
		minCount:  2,
		logger:    zap.NewNop(),
	}
}

// SetThresholds overrides the chart-report EASE threshold and minimum count.
func (b *Bridge) SetThresholds(threshold float64, minCount int) {
	b.threshold = threshold
	b.minCount = minCount
}

// SetScratchDir overrides where the temporary gene-list artifacts go.
func (b *Bridge) SetScratchDir(dir string) {
	b.scratchDir = dir
}

// SetLogger sets the logger for progress messages.
func (b *Bridge) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Enrich runs one enrichment call for the target gene ids against the
// background ids. scope tags the call's temporary artifacts so leftovers from
// an aborted run can never be confused with a live one. A zero mapped
// fraction for the target list yields an empty result, not an error. Gene-id
// lists in the returned records are rewritten to display names through the
// identity table, case-insensitively.
func (b *Bridge) Enrich(ctx context.Context, scope string, targets, background []string, ids identity.Set) ([]david.Record, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	targetIDs, cleanupT, err := b.writeList(scope+"_targets", targets)
	if err != nil {
		return nil, err
	}
	defer cleanupT()

	backgroundIDs, cleanupB, err := b.writeList(scope+"_background", background)
	if err != nil {
		return nil, err
	}
	defer cleanupB()

	if err := b.client.Authenticate(ctx, b.email); err != nil {
		return nil, eris.Wrap(err, "enrich: authenticate")
	}

	mapped, err := b.client.AddList(ctx, targetIDs, b.idType, "changed_genes", david.ListTypeTarget)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: register target list")
	}
	b.logger.Info("registered target gene list",
		zap.String("scope", scope), zap.Float64("mapped_pct", mapped))
	if mapped == 0 {
		return nil, nil
	}

	if _, err := b.client.AddList(ctx, backgroundIDs, b.idType, "all_RNAseq_genes", david.ListTypeBackground); err != nil {
		return nil, eris.Wrap(err, "enrich: register background list")
	}

	if err := b.client.SetCategories(ctx, david.GOCategories); err != nil {
		return nil, eris.Wrap(err, "enrich: set categories")
	}

	records, err := b.client.ChartReport(ctx, b.threshold, b.minCount)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: chart report")
	}

	return renameGenes(records, ids), nil
}

// writeList materializes a gene-id list as a scoped temporary artifact and
// reads it back. The artifact is removed by the returned cleanup on every
// exit path.
func (b *Bridge) writeList(scope string, ids []string) ([]string, func(), error) {
	f, err := os.CreateTemp(b.scratchDir, fmt.Sprintf("cuffannot_%s_*.txt", sanitize(scope)))
	if err != nil {
		return nil, nil, eris.Wrap(err, "enrich: create gene list artifact")
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.WriteString(strings.Join(ids, "\n")); err != nil {
		f.Close()
		cleanup()
		return nil, nil, eris.Wrap(err, "enrich: write gene list artifact")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, nil, eris.Wrap(err, "enrich: close gene list artifact")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		cleanup()
		return nil, nil, eris.Wrap(err, "enrich: read gene list artifact")
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out, cleanup, nil
}

// renameGenes rewrites each record's comma-space-joined gene-id list into
// display names. Ids without an identity stay as returned by the service.
func renameGenes(records []david.Record, ids identity.Set) []david.Record {
	names := ids.NamesByID(true)
	for i := range records {
		parts := strings.Split(records[i].Genes, ", ")
		for j, id := range parts {
			if name, ok := names[strings.ToLower(id)]; ok {
				parts[j] = name
			}
		}
		records[i].Genes = strings.Join(parts, ", ")
	}
	return records
}

// sanitize keeps scope tags filesystem-safe.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
