package refdata

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads a reference table from a CSV file.
func LoadCSV(path string) ([]locate.ReferenceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference csv: %w", err)
	}
	defer f.Close()
	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV parses a reference table, tolerating a UTF-8 byte order mark and
// ragged rows.
func ReadCSV(r io.Reader) ([]locate.ReferenceRow, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse reference csv: %w", err)
	}
	return fromRecords(records)
}
