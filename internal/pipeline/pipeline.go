// Package pipeline drives the annotation and report stages in dependency
// order: identity resolution, annotation aggregation, then tiered report
// assembly with optional per-pair enrichment.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/annotation"
	"github.com/agegroup/cuffannot/internal/biomart"
	"github.com/agegroup/cuffannot/internal/checkpoint"
	"github.com/agegroup/cuffannot/internal/config"
	"github.com/agegroup/cuffannot/internal/david"
	"github.com/agegroup/cuffannot/internal/diff"
	"github.com/agegroup/cuffannot/internal/enrich"
	"github.com/agegroup/cuffannot/internal/gtf"
	"github.com/agegroup/cuffannot/internal/identity"
	"github.com/agegroup/cuffannot/internal/report"
)

// Diff types whose value_1/value_2/test_stat columns carry real expression
// numbers. All other types drop them.
var expressionTypes = map[string]bool{
	"gene_exp.diff":    true,
	"isoform_exp.diff": true,
}

// Enricher runs one enrichment call for a pair-scoped gene list. Satisfied by
// enrich.Bridge.
type Enricher interface {
	Enrich(ctx context.Context, scope string, targets, background []string, ids identity.Set) ([]david.Record, error)
}

// Pipeline holds the collaborators for one run. Collaborators are injected so
// tests can fake the external services and the checkpoint store.
type Pipeline struct {
	cfg    *config.Config
	store  checkpoint.Store
	raw    annotation.RawCache
	mart   biomart.Client
	bridge Enricher
	logger *zap.Logger
}

// New assembles a pipeline. bridge may be nil when enrichment is disabled.
func New(cfg *config.Config, store checkpoint.Store, raw annotation.RawCache, mart biomart.Client, bridge Enricher) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		raw:    raw,
		mart:   mart,
		bridge: bridge,
		logger: zap.NewNop(),
	}
}

// SetLogger replaces the no-op default.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run executes the full pipeline. An annotation backend failure aborts the
// run before any report is written; an enrichment failure is local to the
// sample pair it occurred on.
func (p *Pipeline) Run(ctx context.Context) error {
	diffPaths := make([]string, 0, len(p.cfg.Input.Files))
	for _, f := range p.cfg.Input.Files {
		diffPaths = append(diffPaths, filepath.Join(p.cfg.Input.Folder, f))
	}

	p.logger.Info("resolving gene identities", zap.Int("diff_files", len(diffPaths)))
	resolver := identity.NewResolver(p.store)
	resolver.SetLogger(p.logger)
	ids, err := resolver.Resolve(diffPaths, p.cfg.Input.OriginalGTF)
	if err != nil {
		return eris.Wrap(err, "pipeline: resolve identities")
	}
	p.logger.Info("gene identities resolved", zap.Int("genes", len(ids)))

	agg := annotation.NewAggregator(p.store, p.raw, p.mart,
		p.cfg.Mart.Filter, p.cfg.Mart.BiotypeAttrs, p.cfg.Mart.GOAttrs)
	agg.SetLogger(p.logger)
	annotations, err := agg.Aggregate(ctx, ids)
	if err != nil {
		return eris.Wrap(err, "pipeline: aggregate annotations")
	}
	p.logger.Info("annotation table ready", zap.Int("genes", len(annotations.Records)))

	refs, err := p.transcriptRefs()
	if err != nil {
		return err
	}

	for _, tier := range diff.Tiers(p.cfg.Tiers.SigOnly) {
		if err := p.runTier(ctx, tier, ids, annotations, refs); err != nil {
			return err
		}
	}
	return nil
}

// transcriptRefs loads the cuffcompare transcript references once for the
// whole run. nil when no input file needs them or no cuffcompare GTF is
// configured.
func (p *Pipeline) transcriptRefs() (map[string]gtf.TranscriptRef, error) {
	if p.cfg.Input.CuffcompareGTF == "" {
		return nil, nil
	}
	needed := false
	for _, file := range p.cfg.Input.Files {
		if filepath.Base(file) == "isoform_exp.diff" {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	refs, err := gtf.TranscriptRefs(p.cfg.Input.CuffcompareGTF)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: transcript refs")
	}
	p.logger.Info("transcript references loaded", zap.Int("transcripts", len(refs)))
	return refs, nil
}

// runTier writes the report artifacts for one significance tier. For the
// non-significant tiers that is a single workbook with one sheet per diff
// type; for the significant tier one workbook per diff type with a sheet per
// sample pair plus an ALL sheet, and optionally per-category enrichment
// workbooks.
func (p *Pipeline) runTier(ctx context.Context, tier diff.Tier, ids identity.Set, annotations *annotation.Table, refs map[string]gtf.TranscriptRef) error {
	label := tier.Label(p.cfg.Tiers.PThreshold)
	p.logger.Info("building report tier", zap.String("tier", label))

	var tierBook *report.Workbook
	if tier != diff.TierSignificant {
		tierBook = report.NewWorkbook(p.outPath(label + ".xlsx"))
	}

	for i, file := range p.cfg.Input.Files {
		outshort := p.cfg.Input.Labels[i]
		path := filepath.Join(p.cfg.Input.Folder, file)

		table, err := diff.ReadTable(path)
		if err != nil {
			// A malformed table only loses its own sheets.
			p.logger.Error("skipping diff file", zap.String("file", file), zap.Error(err))
			continue
		}
		table.Sort()
		rows := diff.Filter(table, tier, p.cfg.Tiers.PThreshold)

		assembly := report.Assembly{
			Annotations:    annotations,
			DropExpression: !expressionTypes[filepath.Base(file)],
		}
		if filepath.Base(file) == "isoform_exp.diff" && refs != nil {
			assembly.TranscriptRefs = refs
		}

		if tier == diff.TierSignificant {
			if err := p.significantReport(ctx, label, outshort, table, rows, assembly, ids); err != nil {
				return err
			}
			continue
		}

		if err := tierBook.AddSheet(outshort+"_ALL", assembly.Header(table), assembly.Rows(table, rows)); err != nil {
			return err
		}
		p.logger.Info("sheet written",
			zap.String("sheet", outshort+"_ALL"), zap.Int("rows", len(rows)))
	}

	if tierBook != nil {
		if err := tierBook.Close(); err != nil {
			return err
		}
		p.logger.Info("workbook written", zap.String("path", tierBook.Path()))
	}
	return nil
}

// significantReport writes the per-pair workbook (and enrichment workbooks)
// for one diff type in the significant tier.
func (p *Pipeline) significantReport(ctx context.Context, label, outshort string, table *diff.Table, rows []diff.Row, assembly report.Assembly, ids identity.Set) error {
	book := report.NewWorkbook(p.outPath(label + "_" + outshort + ".xlsx"))

	var enrichBooks map[string]*report.Workbook
	if p.bridge != nil {
		enrichBooks = map[string]*report.Workbook{
			david.CategoryBP: report.NewWorkbook(p.outPath("bio_process_" + label + "_" + outshort + ".xlsx")),
			david.CategoryCC: report.NewWorkbook(p.outPath("cell_component_" + label + "_" + outshort + ".xlsx")),
			david.CategoryMF: report.NewWorkbook(p.outPath("mol_function_" + label + "_" + outshort + ".xlsx")),
		}
	}

	pairs := report.Pairs(report.SampleLabels(rows))
	for _, pair := range pairs {
		pairRows := report.PairRows(rows, pair)

		if p.bridge != nil && len(pairRows) > 0 {
			if err := p.enrichPair(ctx, outshort, pair, pairRows, ids, enrichBooks); err != nil {
				// Enrichment failure is local to this pair.
				p.logger.Warn("enrichment skipped for pair",
					zap.String("pair", pair.SheetName()), zap.Error(err))
			}
		}

		if err := book.AddSheet(pair.SheetName(), assembly.Header(table), assembly.Rows(table, pairRows)); err != nil {
			return err
		}
	}

	if err := book.AddSheet("ALL", assembly.Header(table), assembly.Rows(table, rows)); err != nil {
		return err
	}
	if err := book.Close(); err != nil {
		return err
	}
	p.logger.Info("workbook written", zap.String("path", book.Path()), zap.Int("pairs", len(pairs)))

	for _, eb := range enrichBooks {
		if err := eb.Close(); err != nil {
			return err
		}
	}
	return nil
}

// enrichPair runs one enrichment call for a pair's rows and files the
// category-split records into the per-category workbooks.
func (p *Pipeline) enrichPair(ctx context.Context, outshort string, pair report.SamplePair, pairRows []diff.Row, ids identity.Set, books map[string]*report.Workbook) error {
	idsByName := ids.IDsByName()
	var targets []string
	for _, row := range pairRows {
		if id, ok := idsByName[row.Identifier]; ok {
			targets = append(targets, id)
		}
	}

	scope := outshort + "_" + pair.First + "_" + pair.Second
	p.logger.Info("running enrichment", zap.String("pair", pair.SheetName()),
		zap.Int("targets", len(targets)))
	records, err := p.bridge.Enrich(ctx, scope, targets, ids.IDs(), ids)
	if err != nil {
		return err
	}

	for category, recs := range report.SplitByCategory(records) {
		book, ok := books[category]
		if !ok || len(recs) == 0 {
			continue
		}
		cells := make([][]string, 0, len(recs))
		for _, r := range recs {
			cells = append(cells, r.Cells())
		}
		if err := book.AddSheet(pair.SheetName(), david.ReportColumns, cells); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.cfg.Output.Folder, name)
}

var _ Enricher = (*enrich.Bridge)(nil)
