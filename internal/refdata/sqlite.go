package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store keeps the reference table in a SQLite database.
type Store struct {
	db    *sql.DB
	table string
}

// OpenStore opens (creating if needed) the SQLite database at path and
// ensures the reference table exists.
func OpenStore(ctx context.Context, path, table string) (*Store, error) {
	if table == "" {
		table = "locations"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	db.SetMaxOpenConns(1)
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq         INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		code        TEXT NOT NULL,
		extra       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`, table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return &Store{db: db, table: table}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Import replaces the stored table with rows in one transaction.
func (s *Store) Import(ctx context.Context, rows []locate.ReferenceRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.table); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+s.table+" (seq, name, code, extra, description) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, i+1, r.Name, r.Code, r.Extra, r.Description); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	logging.Logger().Info("reference rows imported", "table", s.table, "rows", len(rows))
	return nil
}

// Rows returns the stored rows in import order.
func (s *Store) Rows(ctx context.Context) ([]locate.ReferenceRow, error) {
	rs, err := s.db.QueryContext(ctx,
		"SELECT name, code, extra, description FROM "+s.table+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rs.Close()

	var out []locate.ReferenceRow
	for rs.Next() {
		var r locate.ReferenceRow
		if err := rs.Scan(&r.Name, &r.Code, &r.Extra, &r.Description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		if r.Name == "" || r.Code == "" {
			continue
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoReferenceRows
	}
	return out, nil
}
