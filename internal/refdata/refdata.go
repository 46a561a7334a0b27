// Package refdata loads the location reference table from CSV, Excel or a
// SQLite store.
//
// Every source yields rows of (medication name, location code, unused,
// location description). The first row of a CSV or sheet is a header and is
// skipped; rows with an empty name or code are dropped.
package refdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/config"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// ErrNoReferenceRows is returned when a source holds no usable rows.
var ErrNoReferenceRows = locate.ErrNoReferenceRows

// Load reads the reference table described by cfg.
func Load(ctx context.Context, cfg config.ReferenceConfig) ([]locate.ReferenceRow, error) {
	kind, err := cfg.ResolvedKind()
	if err != nil {
		return nil, err
	}
	var rows []locate.ReferenceRow
	switch kind {
	case config.KindCSV:
		rows, err = LoadCSV(cfg.Path)
	case config.KindXLSX:
		rows, err = LoadXLSX(cfg.Path, cfg.Sheet)
	case config.KindSQLite:
		var store *Store
		if store, err = OpenStore(ctx, cfg.Path, cfg.Table); err == nil {
			rows, err = store.Rows(ctx)
			store.Close()
		}
	default:
		return nil, fmt.Errorf("reference: no path configured: %w", ErrNoReferenceRows)
	}
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("reference table loaded", "path", cfg.Path, "kind", kind, "rows", len(rows))
	return rows, nil
}

// fromRecords converts raw records, header first, into reference rows.
func fromRecords(records [][]string) ([]locate.ReferenceRow, error) {
	if len(records) > 0 {
		records = records[1:]
	}
	rows := make([]locate.ReferenceRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		row := locate.ReferenceRow{
			Name: strings.TrimSpace(rec[0]),
			Code: strings.TrimSpace(rec[1]),
		}
		if row.Name == "" || row.Code == "" {
			continue
		}
		if len(rec) > 2 {
			row.Extra = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			row.Description = strings.TrimSpace(rec[3])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoReferenceRows
	}
	return rows, nil
}
