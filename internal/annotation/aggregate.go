package annotation

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/biomart"
	"github.com/agegroup/cuffannot/internal/checkpoint"
	"github.com/agegroup/cuffannot/internal/duckdb"
	"github.com/agegroup/cuffannot/internal/identity"
)

// RawCache is the raw-join storage surface the aggregator needs. HasRows
// reports whether a join was stored at all; an empty stored join counts, so
// the external call is never repeated for it.
type RawCache interface {
	HasRows() (bool, error)
	WriteRows(rows []duckdb.Row) error
	LoadRows() ([]duckdb.Row, error)
}

// Aggregator retrieves biotype and GO-term rows from the annotation database
// and collapses them into one GeneAnnotation per gene. Both the raw join and
// the aggregated table are checkpointed; each stage is skipped when its
// artifact already exists.
type Aggregator struct {
	store        checkpoint.Store
	raw          RawCache
	client       biomart.Client
	filter       string
	biotypeAttrs []string
	goAttrs      []string
	logger       *zap.Logger
}

// NewAggregator creates an aggregator. biotypeAttrs and goAttrs are
// order-sensitive attribute name lists: id then biotype, and id, GO id,
// GO name respectively.
func NewAggregator(store checkpoint.Store, raw RawCache, client biomart.Client, filter string, biotypeAttrs, goAttrs []string) *Aggregator {
	return &Aggregator{
		store:        store,
		raw:          raw,
		client:       client,
		filter:       filter,
		biotypeAttrs: biotypeAttrs,
		goAttrs:      goAttrs,
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Aggregate returns the per-gene annotation table for the identity set.
func (a *Aggregator) Aggregate(ctx context.Context, ids identity.Set) (*Table, error) {
	if a.store.Has(FinalCheckpoint) {
		a.logger.Info("using existing biotypes and GO terms table", zap.String("checkpoint", FinalCheckpoint))
		data, err := a.store.Load(FinalCheckpoint)
		if err != nil {
			return nil, eris.Wrap(err, "annotation: load checkpoint")
		}
		t, err := Decode(data)
		if err != nil {
			return nil, eris.Wrap(err, "annotation: decode checkpoint")
		}
		return t, nil
	}

	rows, err := a.rawJoin(ctx, ids)
	if err != nil {
		return nil, err
	}

	a.logger.Info("aggregating biotypes and GO terms", zap.Int("raw_rows", len(rows)))
	t := aggregate(ids, rows)

	if err := a.store.Save(FinalCheckpoint, t.Encode()); err != nil {
		return nil, eris.Wrap(err, "annotation: save checkpoint")
	}
	return t, nil
}

// rawJoin returns the raw gene/biotype/GO join, retrieving it from the
// annotation database only when the cache is empty. The external call happens
// at most once per pipeline run.
func (a *Aggregator) rawJoin(ctx context.Context, ids identity.Set) ([]duckdb.Row, error) {
	cached, err := a.raw.HasRows()
	if err != nil {
		return nil, eris.Wrap(err, "annotation: check raw cache")
	}
	if cached {
		a.logger.Info("using existing raw annotation cache")
		rows, err := a.raw.LoadRows()
		if err != nil {
			return nil, eris.Wrap(err, "annotation: load raw cache")
		}
		return rows, nil
	}

	a.logger.Info("retrieving biotypes and gene ontology information",
		zap.Int("genes", len(ids)), zap.String("filter", a.filter))

	biotypes, err := a.client.Query(ctx, a.filter, ids.IDs(), a.biotypeAttrs)
	if err != nil {
		return nil, eris.Wrap(err, "annotation: biotype query")
	}
	goterms, err := a.client.Query(ctx, a.filter, ids.IDs(), a.goAttrs)
	if err != nil {
		return nil, eris.Wrap(err, "annotation: GO term query")
	}
	a.logger.Info("annotation database responded",
		zap.Int("biotype_rows", len(biotypes)), zap.Int("go_rows", len(goterms)))

	rows := mergeByID(biotypes, goterms)
	if err := a.raw.WriteRows(rows); err != nil {
		return nil, eris.Wrap(err, "annotation: write raw cache")
	}
	return rows, nil
}

// mergeByID outer-merges the biotype response with the GO-term response on
// the first column. Genes present in either response survive; a gene with no
// GO rows yields a single row with empty GO fields.
func mergeByID(biotypes, goterms [][]string) []duckdb.Row {
	biotypeByID := make(map[string]string)
	var order []string
	seen := make(map[string]bool)

	for _, cells := range biotypes {
		if len(cells) < 1 || cells[0] == "" {
			continue
		}
		id := cells[0]
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
		if _, ok := biotypeByID[id]; !ok && len(cells) >= 2 {
			biotypeByID[id] = cells[1]
		}
	}

	goByID := make(map[string][][2]string)
	for _, cells := range goterms {
		if len(cells) < 1 || cells[0] == "" {
			continue
		}
		id := cells[0]
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
		var goID, goTerm string
		if len(cells) >= 2 {
			goID = cells[1]
		}
		if len(cells) >= 3 {
			goTerm = cells[2]
		}
		if goID == "" && goTerm == "" {
			continue
		}
		goByID[id] = append(goByID[id], [2]string{goID, goTerm})
	}

	var rows []duckdb.Row
	for _, id := range order {
		gos := goByID[id]
		if len(gos) == 0 {
			rows = append(rows, duckdb.Row{GeneID: id, Biotype: biotypeByID[id]})
			continue
		}
		for _, g := range gos {
			rows = append(rows, duckdb.Row{GeneID: id, Biotype: biotypeByID[id], GOID: g[0], GOTerm: g[1]})
		}
	}
	return rows
}

// aggregate groups raw rows by gene name. Output order follows the identity
// table; every identity gene gets exactly one record, with empty GO lists
// when the join returned nothing for it. Biotype conflicts resolve to the
// first value seen, as the historical pipeline did.
func aggregate(ids identity.Set, rows []duckdb.Row) *Table {
	rowsByID := make(map[string][]duckdb.Row)
	for _, r := range rows {
		rowsByID[r.GeneID] = append(rowsByID[r.GeneID], r)
	}

	var records []GeneAnnotation
	recIndex := make(map[string]int)
	for _, id := range ids {
		i, ok := recIndex[id.Name]
		if !ok {
			i = len(records)
			recIndex[id.Name] = i
			records = append(records, GeneAnnotation{GeneName: id.Name})
		}

		rec := &records[i]
		for _, r := range rowsByID[id.ID] {
			if rec.Biotype == "" {
				rec.Biotype = r.Biotype
			}
			if r.GOID == "" && r.GOTerm == "" {
				continue
			}
			if containsPair(rec.GOIDs, rec.GOTerms, r.GOID, r.GOTerm) {
				continue
			}
			rec.GOIDs = append(rec.GOIDs, r.GOID)
			rec.GOTerms = append(rec.GOTerms, r.GOTerm)
		}
	}

	return NewTable(records)
}

func containsPair(ids, terms []string, id, term string) bool {
	for i := range ids {
		if ids[i] == id && terms[i] == term {
			return true
		}
	}
	return false
}
