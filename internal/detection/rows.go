package detection

import (
	"sort"
	"strings"
)

// DefaultRowTolerance is the vertical distance, in pixels, within which tokens
// share a row.
const DefaultRowTolerance = 15.0

// Row is a left-to-right run of tokens sharing a vertical band.
type Row struct {
	// Y is the center y of the token that opened the row.
	Y      float64     `json:"y"`
	Tokens []WordToken `json:"tokens"`
}

// Text joins the row's token texts with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		if s := strings.TrimSpace(t.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ClusterRows groups tokens into rows ordered top to bottom.
//
// Tokens are sorted by center y. A token joins the open row while its center
// is within tolerance of the center of the row's first token; otherwise it
// opens a new row. The comparison is always against the row start, never the
// previous token. Each row is then sorted by center x.
//
// The input slice is not modified. A non-positive tolerance falls back to
// DefaultRowTolerance.
func ClusterRows(tokens []WordToken, tolerance float64) []Row {
	if len(tokens) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	sorted := make([]WordToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		yi, yj := sorted[i].CenterY(), sorted[j].CenterY()
		if yi != yj {
			return yi < yj
		}
		return sorted[i].CenterX() < sorted[j].CenterX()
	})

	var rows []Row
	current := Row{Y: sorted[0].CenterY(), Tokens: []WordToken{sorted[0]}}
	for _, tok := range sorted[1:] {
		y := tok.CenterY()
		if y-current.Y <= tolerance && current.Y-y <= tolerance {
			current.Tokens = append(current.Tokens, tok)
			continue
		}
		rows = append(rows, finishRow(current))
		current = Row{Y: y, Tokens: []WordToken{tok}}
	}
	rows = append(rows, finishRow(current))
	return rows
}

func finishRow(r Row) Row {
	sort.SliceStable(r.Tokens, func(i, j int) bool {
		return r.Tokens[i].CenterX() < r.Tokens[j].CenterX()
	})
	return r
}

// LineRows turns plain OCR text into rows, one per non-empty line, with
// synthetic boxes that keep word order. It feeds the line-mode parser used
// when a page has no usable header geometry.
func LineRows(text string) []Row {
	const lineHeight, charWidth = 20, 10
	var rows []Row
	y := 0
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := Row{Y: float64(y + lineHeight/2)}
		x := 0
		for _, f := range fields {
			w := len(f) * charWidth
			row.Tokens = append(row.Tokens, WordToken{
				Text:   f,
				Bounds: Bounds{X1: x, Y1: y, X2: x + w, Y2: y + lineHeight},
			})
			x += w + charWidth
		}
		rows = append(rows, row)
		y += 2 * lineHeight
	}
	return rows
}
