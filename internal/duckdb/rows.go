package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Row is one record of the raw annotation join: a gene paired with its
// biotype and at most one GO term. Genes without GO rows appear with empty
// GO fields.
type Row struct {
	GeneID  string
	Biotype string
	GOID    string
	GOTerm  string
}

// rawJoinMarker flags a stored join; its presence, not the row count, is the
// resume signal, so a join with zero rows is never re-fetched.
const rawJoinMarker = "raw_join"

// WriteRows batch-inserts annotation rows using the Appender API, preserving
// the given order, and marks the join as stored. An empty row set still
// marks it.
func (s *Store) WriteRows(rows []Row) error {
	if len(rows) == 0 {
		return s.mark()
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "annotation_rows")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range rows {
		if err := appender.AppendRow(int64(i), r.GeneID, r.Biotype, r.GOID, r.GOTerm); err != nil {
			return fmt.Errorf("append annotation row: %w", err)
		}
	}

	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush annotation rows: %w", err)
	}
	return s.mark()
}

func (s *Store) mark() error {
	if _, err := s.db.Exec(`INSERT INTO annotation_markers VALUES (?)`, rawJoinMarker); err != nil {
		return fmt.Errorf("mark annotation join: %w", err)
	}
	return nil
}

// LoadRows returns all cached annotation rows in insertion order.
func (s *Store) LoadRows() ([]Row, error) {
	rows, err := s.db.Query(`SELECT gene_id, biotype, go_id, go_term
		FROM annotation_rows ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query annotation rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.GeneID, &r.Biotype, &r.GOID, &r.GOTerm); err != nil {
			return nil, fmt.Errorf("scan annotation row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotation rows: %w", err)
	}
	return out, nil
}

// HasRows reports whether a join has been stored, regardless of how many
// rows it held.
func (s *Store) HasRows() (bool, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM annotation_markers WHERE name = ?`, rawJoinMarker).Scan(&n); err != nil {
		return false, fmt.Errorf("check annotation marker: %w", err)
	}
	return n > 0, nil
}

// Clear removes the cached annotation join and its marker.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM annotation_rows`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM annotation_markers`)
	return err
}
