package refdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/HabtB/Pharmacy-Pickup/internal/config"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
)

const sampleCSV = "\ufeffMedication,Location,Unused,Description\n" +
	"ACETAMINOPHEN 325 MG TABLET,PHRM,,Main Pharmacy\n" +
	"\"CEFTRIAXONE IN D5W (ROCEPHIN) 2 G BAG\",IV\n" +
	",STR,,Store Room\n" +
	"GABAPENTIN 100 MG CAPSULE,,,\n" +
	"ORPHAN\n" +
	"MULTIVITAMIN TABLET, VIT ,x,Vitamins Section\n"

var sampleRows = []locate.ReferenceRow{
	{Name: "ACETAMINOPHEN 325 MG TABLET", Code: "PHRM", Description: "Main Pharmacy"},
	{Name: "CEFTRIAXONE IN D5W (ROCEPHIN) 2 G BAG", Code: "IV"},
	{Name: "MULTIVITAMIN TABLET", Code: "VIT", Extra: "x", Description: "Vitamins Section"},
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Medication,Location\n"))
	assert.ErrorIs(t, err, ErrNoReferenceRows)

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoReferenceRows)
}

func TestLoadCSVMissing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "none.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeWorkbook(t *testing.T, sheet string, records [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(rec))
		for j, v := range rec {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}
	path := filepath.Join(t.TempDir(), "locations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{
		{"Medication", "Location", "Unused", "Description"},
		{"ACETAMINOPHEN 325 MG TABLET", "PHRM", "", "Main Pharmacy"},
		{"CEFTRIAXONE IN D5W (ROCEPHIN) 2 G BAG", "IV"},
		{"", "STR"},
		{"MULTIVITAMIN TABLET", "VIT", "x", "Vitamins Section"},
	})
	rows, err := LoadXLSX(path, "")
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)

	_, err = LoadXLSX(path, "Missing")
	assert.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pickup.db")

	store, err := OpenStore(ctx, path, "")
	require.NoError(t, err)

	_, err = store.Rows(ctx)
	assert.ErrorIs(t, err, ErrNoReferenceRows)

	require.NoError(t, store.Import(ctx, sampleRows))
	// a second import replaces the first
	require.NoError(t, store.Import(ctx, sampleRows[:2]))
	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRows[:2], rows)
	require.NoError(t, store.Close())

	loaded, err := Load(ctx, config.ReferenceConfig{Path: path, Table: "locations"})
	require.NoError(t, err)
	assert.Equal(t, sampleRows[:2], loaded)
}

func TestOpenStoreRejectsTableName(t *testing.T) {
	_, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "x.db"), "locations; DROP")
	assert.Error(t, err)
}

func TestLoadByKind(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "locations.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	rows, err := Load(context.Background(), config.ReferenceConfig{Path: csvPath})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = Load(context.Background(), config.ReferenceConfig{})
	assert.ErrorIs(t, err, ErrNoReferenceRows)

	_, err = Load(context.Background(), config.ReferenceConfig{Path: "locations.json"})
	assert.ErrorIs(t, err, config.ErrUnknownKind)
}
