package detection

import (
	"errors"
	"testing"
)

func headerRow(y int, words ...interface{}) Row {
	// words alternates text, x1, x2
	row := Row{Y: float64(y + 10)}
	for i := 0; i+2 < len(words); i += 3 {
		row.Tokens = append(row.Tokens, tok(words[i].(string), words[i+1].(int), y, words[i+2].(int), y+20))
	}
	return row
}

func mustFloors(t *testing.T) *FloorMatcher {
	t.Helper()
	m, err := NewFloorMatcher("")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestResolveColumns_SingleRowHeader(t *testing.T) {
	rows := []Row{
		headerRow(0, "Pick", 100, 140, "and", 145, 180, "Delivery", 185, 260, "Summary", 265, 340),
		headerRow(50,
			"Device", 10, 70,
			"Med", 100, 140, "Description", 150, 260,
			"Pick", 400, 440, "Area", 445, 490,
			"Pick", 520, 560, "Amount", 565, 630,
			"Pick", 660, 700, "Actual", 705, 760,
			"Max", 800, 840,
			"Current", 880, 950, "Amount", 955, 1020),
		headerRow(100, "gabapentin", 100, 200, "25", 540, 560, "30", 810, 830, "5", 900, 910),
	}

	layout, err := ResolveColumns(rows, mustFloors(t), Options{})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	if layout.HeaderEnd != 1 {
		t.Errorf("HeaderEnd = %d, want 1", layout.HeaderEnd)
	}
	wantBands := map[Column]Band{
		ColumnDevice:      {Min: -20, Max: 100},
		ColumnDescription: {Min: 70, Max: 390},
		ColumnPickAmount:  {Min: 490, Max: 660},
		ColumnMax:         {Min: 770, Max: 870},
		ColumnCurrent:     {Min: 850, Max: 980},
	}
	for c, want := range wantBands {
		got, ok := layout.Bands[c]
		if !ok {
			t.Errorf("missing band %s", c)
			continue
		}
		if got != want {
			t.Errorf("band %s = %+v, want %+v", c, got, want)
		}
	}
	if layout.PickInferred {
		t.Error("pick band should not be inferred")
	}
}

func TestResolveColumns_WrappedPickAmount(t *testing.T) {
	rows := []Row{
		headerRow(0, "Med", 100, 140, "Pick", 520, 560, "Max", 800, 840, "Current", 880, 950),
		headerRow(25, "Description", 100, 210, "Amount", 515, 580, "Amount", 880, 945),
		headerRow(80, "gabapentin", 100, 200, "25", 540, 560),
	}

	layout, err := ResolveColumns(rows, mustFloors(t), Options{})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if layout.HeaderEnd != 1 {
		t.Errorf("HeaderEnd = %d, want 1", layout.HeaderEnd)
	}
	if got := layout.Bands[ColumnPickAmount]; got != (Band{Min: 490, Max: 590}) {
		t.Errorf("pick band = %+v", got)
	}
	if c, ok := layout.NumericColumn(550); !ok || c != ColumnPickAmount {
		t.Errorf("NumericColumn(550) = %s, %v", c, ok)
	}
}

func TestResolveColumns_DrugNameWithKeywordIsNotHeader(t *testing.T) {
	rows := []Row{
		headerRow(0, "Med", 100, 140, "Description", 150, 260, "Pick", 520, 560, "Amount", 565, 630, "Max", 800, 840),
		headerRow(30, "8E-1", 10, 50),
		headerRow(60, "gabapentin", 100, 200, "25", 540, 560, "30", 810, 830),
		headerRow(90, "rizatriptan", 100, 210, "(MAXALT)", 215, 295, "12", 540, 560),
	}

	layout, err := ResolveColumns(rows, mustFloors(t), Options{})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if layout.HeaderEnd != 0 {
		t.Errorf("HeaderEnd = %d, want 0", layout.HeaderEnd)
	}
	for _, w := range []string{"(MAXALT)", "Maxitrol", "Currentine", "Max.", "(Current)"} {
		got := isHeaderWord(tok(w, 0, 0, 10, 10))
		want := w == "Max." || w == "(Current)"
		if got != want {
			t.Errorf("isHeaderWord(%q) = %v, want %v", w, got, want)
		}
	}
}

func TestResolveColumns_InfersPickFromMax(t *testing.T) {
	rows := []Row{
		headerRow(0, "Med", 100, 140, "Description", 150, 260, "Max", 800, 840, "Current", 880, 950),
	}

	layout, err := ResolveColumns(rows, mustFloors(t), Options{})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if !layout.PickInferred {
		t.Error("expected inferred pick band")
	}
	if got := layout.Bands[ColumnPickAmount]; got != (Band{Min: 620, Max: 720}) {
		t.Errorf("inferred pick band = %+v, want {620 720}", got)
	}
}

func TestResolveColumns_NotFound(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{"empty", nil},
		{"no keywords", []Row{headerRow(0, "gabapentin", 0, 100, "25", 200, 220)}},
		{"mostly numeric", []Row{headerRow(0, "max", 0, 40, "12", 100, 120, "13", 200, 220, "14", 300, 320)}},
		{"floor row only", []Row{headerRow(0, "Device:", 0, 60, "8E-1", 70, 110)}},
		{"description without numbers", []Row{headerRow(0, "Description", 0, 100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveColumns(tt.rows, mustFloors(t), Options{})
			if !errors.Is(err, ErrStructureNotFound) {
				t.Errorf("expected ErrStructureNotFound, got %v", err)
			}
		})
	}
}

func TestResolveColumns_HeaderWindow(t *testing.T) {
	rows := make([]Row, 0, 5)
	for i := 0; i < 4; i++ {
		rows = append(rows, headerRow(i*30, "filler", 0, 50))
	}
	rows = append(rows, headerRow(150, "Max", 800, 840, "Current", 880, 950))

	if _, err := ResolveColumns(rows, mustFloors(t), Options{HeaderWindow: 3}); !errors.Is(err, ErrStructureNotFound) {
		t.Errorf("header outside window should not be found, got %v", err)
	}
	if _, err := ResolveColumns(rows, mustFloors(t), Options{HeaderWindow: 5}); err != nil {
		t.Errorf("header inside window should be found, got %v", err)
	}
}

func TestLayout_InDescriptionWithoutHeader(t *testing.T) {
	l := &Layout{Bands: map[Column]Band{ColumnMax: {Min: 500, Max: 560}}}
	if !l.InDescription(100) {
		t.Error("x left of numeric bands should be description")
	}
	if l.InDescription(520) {
		t.Error("x inside numeric band should not be description")
	}
}

func TestColumnString(t *testing.T) {
	if ColumnPickAmount.String() != "PICK_AMOUNT" || ColumnNone.String() != "NONE" {
		t.Error("unexpected column names")
	}
}
