package identity

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/checkpoint"
	"github.com/agegroup/cuffannot/internal/diff"
	"github.com/agegroup/cuffannot/internal/gtf"
)

// Resolver derives and caches the run's identity table.
type Resolver struct {
	store  checkpoint.Store
	logger *zap.Logger
}

// NewResolver creates a resolver persisting through the given store.
func NewResolver(store checkpoint.Store) *Resolver {
	return &Resolver{store: store, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Resolve returns the identity table for the given diff tables and annotation
// source. An existing checkpoint is reloaded verbatim with no re-derivation;
// this is a trust-the-cache policy.
func (r *Resolver) Resolve(diffPaths []string, gtfPath string) (Set, error) {
	if r.store.Has(CheckpointName) {
		r.logger.Info("using existing gene name/id table", zap.String("checkpoint", CheckpointName))
		data, err := r.store.Load(CheckpointName)
		if err != nil {
			return nil, eris.Wrap(err, "identity: load checkpoint")
		}
		set, err := Decode(data)
		if err != nil {
			return nil, eris.Wrap(err, "identity: decode checkpoint")
		}
		return set, nil
	}

	r.logger.Info("deriving gene name/id table from diff tables and annotation source")

	names, err := diffGenes(diffPaths)
	if err != nil {
		return nil, err
	}
	r.logger.Info("collected differentially tested genes", zap.Int("genes", len(names)))

	set, err := scanSource(gtfPath, names)
	if err != nil {
		return nil, err
	}
	r.logger.Info("resolved gene identities", zap.Int("pairs", len(set)))

	if err := r.store.Save(CheckpointName, set.Encode()); err != nil {
		return nil, eris.Wrap(err, "identity: save checkpoint")
	}
	return set, nil
}

// diffGenes unions the first-alias gene names across all diff tables,
// deduplicated in first-occurrence order.
func diffGenes(paths []string) (map[string]bool, error) {
	names := make(map[string]bool)
	for _, path := range paths {
		t, err := diff.ReadTable(path)
		if err != nil {
			return nil, eris.Wrapf(err, "identity: read %s", path)
		}
		for _, row := range t.Rows {
			if row.Identifier != "" {
				names[row.Identifier] = true
			}
		}
	}
	return names, nil
}

// scanSource projects (gene_name, gene_id) pairs out of the annotation
// source, deduplicates them and restricts them to the wanted names. A record
// missing either key is dropped from this projection only. Genes named in
// diff tables but absent from the source are silently excluded.
func scanSource(path string, wanted map[string]bool) (Set, error) {
	reader, err := gtf.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "identity: open annotation source")
	}
	defer reader.Close()

	var set Set
	seen := make(map[Identity]bool)
	for {
		rec, err := reader.Next()
		if err != nil {
			return nil, eris.Wrap(err, "identity: scan annotation source")
		}
		if rec == nil {
			break
		}

		name, ok := gtf.Attribute(rec.Attributes, "gene_name")
		if !ok {
			continue
		}
		id, ok := gtf.Attribute(rec.Attributes, "gene_id")
		if !ok {
			continue
		}

		pair := Identity{Name: name, ID: id}
		if seen[pair] || !wanted[name] {
			continue
		}
		seen[pair] = true
		set = append(set, pair)
	}

	return set, nil
}
