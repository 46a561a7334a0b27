package detection

import "strings"

// Bounds is a pixel bounding box. (X1,Y1) is the top-left corner and
// (X2,Y2) the bottom-right corner.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// CenterX returns the horizontal midpoint.
func (b Bounds) CenterX() float64 { return float64(b.X1+b.X2) / 2 }

// CenterY returns the vertical midpoint.
func (b Bounds) CenterY() float64 { return float64(b.Y1+b.Y2) / 2 }

// overlapsX reports whether the horizontal extents of a and b intersect.
func overlapsX(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1
}

// mergeBounds combines two bounds into their union.
func mergeBounds(a, b Bounds) Bounds {
	return Bounds{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}

// WordToken is one OCR word and its box on the page.
type WordToken struct {
	Text   string `json:"text"`
	Bounds Bounds `json:"bounds"`
}

// CenterX returns the token's horizontal midpoint.
func (t WordToken) CenterX() float64 { return t.Bounds.CenterX() }

// CenterY returns the token's vertical midpoint.
func (t WordToken) CenterY() float64 { return t.Bounds.CenterY() }

// Clean returns the token text without surrounding whitespace or the
// separators OCR tends to glue onto words.
func (t WordToken) Clean() string {
	return strings.Trim(strings.TrimSpace(t.Text), "|:;,")
}
