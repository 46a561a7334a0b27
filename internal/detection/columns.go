package detection

import (
	"errors"
	"math"
	"strings"
)

// ErrStructureNotFound is returned when no table header can be located.
var ErrStructureNotFound = errors.New("table structure not found")

// Column identifies a pick-list column.
type Column int

const (
	ColumnNone Column = iota
	ColumnDevice
	ColumnDescription
	ColumnPickAmount
	ColumnMax
	ColumnCurrent
)

func (c Column) String() string {
	switch c {
	case ColumnDevice:
		return "DEVICE"
	case ColumnDescription:
		return "DESCRIPTION"
	case ColumnPickAmount:
		return "PICK_AMOUNT"
	case ColumnMax:
		return "MAX"
	case ColumnCurrent:
		return "CURRENT"
	default:
		return "NONE"
	}
}

// Band is an inclusive x-range.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether x lies within the band.
func (b Band) Contains(x float64) bool { return x >= b.Min && x <= b.Max }

func (b Band) center() float64 { return (b.Min + b.Max) / 2 }

// Options tunes header discovery. Zero fields take the defaults below.
type Options struct {
	HeaderWindow   int     // rows scanned for header text (40)
	BandPad        float64 // padding around header tokens (30)
	DescriptionPad float64 // extra right padding for DESCRIPTION (100)
	PickInferNear  float64 // inferred pick band ends this far left of MAX (50)
	PickInferFar   float64 // inferred pick band starts this far left of MAX (150)
}

func (o Options) withDefaults() Options {
	if o.HeaderWindow <= 0 {
		o.HeaderWindow = 40
	}
	if o.BandPad <= 0 {
		o.BandPad = 30
	}
	if o.DescriptionPad <= 0 {
		o.DescriptionPad = 100
	}
	if o.PickInferNear <= 0 {
		o.PickInferNear = 50
	}
	if o.PickInferFar <= 0 {
		o.PickInferFar = 150
	}
	return o
}

// Layout is the column geometry of one page.
type Layout struct {
	Bands map[Column]Band `json:"bands"`
	// HeaderEnd is the index of the last header row; data starts after it.
	HeaderEnd int `json:"header_end"`
	// PickInferred is set when the pick band was derived from MAX.
	PickInferred bool `json:"pick_inferred"`
}

// Has reports whether the layout has a band for c.
func (l *Layout) Has(c Column) bool {
	_, ok := l.Bands[c]
	return ok
}

// NumericColumn returns the numeric column (PICK_AMOUNT, MAX or CURRENT)
// whose band contains x. Overlapping bands resolve to the nearest center.
func (l *Layout) NumericColumn(x float64) (Column, bool) {
	best, bestDist := ColumnNone, math.Inf(1)
	for _, c := range []Column{ColumnPickAmount, ColumnMax, ColumnCurrent} {
		b, ok := l.Bands[c]
		if !ok || !b.Contains(x) {
			continue
		}
		if d := math.Abs(b.center() - x); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ColumnNone
}

// InDescription reports whether x falls in the description column. Pages
// without a description header treat everything left of the first numeric
// band as description.
func (l *Layout) InDescription(x float64) bool {
	if b, ok := l.Bands[ColumnDescription]; ok {
		return b.Contains(x)
	}
	left := math.Inf(1)
	for _, c := range []Column{ColumnPickAmount, ColumnMax, ColumnCurrent} {
		if b, ok := l.Bands[c]; ok && b.Min < left {
			left = b.Min
		}
	}
	return x < left
}

var headerKeywords = map[string]bool{
	"pick": true, "amount": true, "max": true, "current": true, "description": true, "device": true,
}

// isHeaderWord reports whether tok is a header keyword on its own. Drug
// names that merely contain one, such as MAXALT or Maxitrol, do not count.
func isHeaderWord(tok WordToken) bool {
	return headerKeywords[strings.ToLower(strings.Trim(tok.Clean(), ".()[]"))]
}

// ResolveColumns finds the header region among the first rows and derives
// column bands from the header tokens.
//
// Headers often wrap over two or three rows, so the last header-like row in
// the window ends the header region and every token from row 0 through it
// contributes to the bands. A row is header-like when it holds a header
// keyword as a whole token, is not mostly digits and is not a floor row.
//
// When no pick column is labeled but MAX and CURRENT are, the pick band is
// placed PickInferFar..PickInferNear pixels left of MAX.
//
// Returns ErrStructureNotFound when no header row exists or no numeric column
// could be derived.
func ResolveColumns(rows []Row, floors *FloorMatcher, opts Options) (*Layout, error) {
	opts = opts.withDefaults()

	last := HeaderEnd(rows, floors, opts.HeaderWindow)
	if last < 0 {
		return nil, ErrStructureNotFound
	}

	header := make([]Row, 0, last+1)
	for _, r := range rows[:last+1] {
		if floors != nil {
			if _, ok := floors.FindInRow(r); ok {
				continue
			}
		}
		header = append(header, r)
	}

	bands := make(map[Column]Band)
	pad := func(b Bounds, right float64) Band {
		return Band{Min: float64(b.X1) - opts.BandPad, Max: float64(b.X2) + opts.BandPad + right}
	}
	pickStrength := 0

	for ri, row := range header {
		for ti, tok := range row.Tokens {
			text := strings.ToLower(tok.Clean())
			switch {
			case strings.Contains(text, "pick"):
				comp, compTok := pickCompanion(header, ri, ti)
				switch {
				case strings.Contains(text, "amount") || comp == "amount":
					box := tok.Bounds
					if compTok != nil && compTok.Bounds.Y1 <= tok.Bounds.Y2 {
						box = mergeBounds(box, compTok.Bounds)
					}
					bands[ColumnPickAmount] = pad(box, 0)
					pickStrength = 2
				case strings.Contains(text, "actual") || strings.Contains(text, "area") ||
					comp == "actual" || comp == "area":
				default:
					if pickStrength < 1 {
						bands[ColumnPickAmount] = pad(tok.Bounds, 0)
						pickStrength = 1
					}
				}
			case text == "max":
				bands[ColumnMax] = pad(tok.Bounds, 0)
			case strings.Contains(text, "current"):
				bands[ColumnCurrent] = pad(tok.Bounds, 0)
			case strings.Contains(text, "med") || strings.Contains(text, "description"):
				b := pad(tok.Bounds, opts.DescriptionPad)
				if prev, ok := bands[ColumnDescription]; ok {
					b = Band{Min: math.Min(prev.Min, b.Min), Max: math.Max(prev.Max, b.Max)}
				}
				bands[ColumnDescription] = b
			case strings.Contains(text, "device"):
				bands[ColumnDevice] = pad(tok.Bounds, 0)
			}
		}
	}

	layout := &Layout{Bands: bands, HeaderEnd: last}
	if _, ok := bands[ColumnPickAmount]; !ok {
		maxBand, hasMax := bands[ColumnMax]
		_, hasCurrent := bands[ColumnCurrent]
		if hasMax && hasCurrent {
			bands[ColumnPickAmount] = Band{Min: maxBand.Min - opts.PickInferFar, Max: maxBand.Min - opts.PickInferNear}
			layout.PickInferred = true
		}
	}
	if !layout.Has(ColumnPickAmount) && !layout.Has(ColumnMax) && !layout.Has(ColumnCurrent) {
		return nil, ErrStructureNotFound
	}
	return layout, nil
}

// HeaderEnd returns the index of the last header-like row among the first
// window rows, or -1 when there is none.
func HeaderEnd(rows []Row, floors *FloorMatcher, window int) int {
	if window <= 0 {
		window = 40
	}
	last := -1
	for i := 0; i < min(len(rows), window); i++ {
		if isHeaderRow(rows[i], floors) {
			last = i
		}
	}
	return last
}

// pickCompanion looks for the word completing a "Pick" header: the token to
// its right on the same row, or a token wrapped underneath it.
func pickCompanion(header []Row, ri, ti int) (string, *WordToken) {
	row := header[ri]
	if ti+1 < len(row.Tokens) {
		next := row.Tokens[ti+1]
		if w := companionWord(next.Clean()); w != "" {
			return w, &row.Tokens[ti+1]
		}
	}
	pick := row.Tokens[ti].Bounds
	for r := ri + 1; r < len(header); r++ {
		for i := range header[r].Tokens {
			below := header[r].Tokens[i]
			if !overlapsX(pick, below.Bounds) {
				continue
			}
			if w := companionWord(below.Clean()); w != "" {
				return w, &header[r].Tokens[i]
			}
		}
	}
	return "", nil
}

func companionWord(s string) string {
	s = strings.ToLower(s)
	for _, w := range []string{"amount", "actual", "area"} {
		if strings.Contains(s, w) {
			return w
		}
	}
	return ""
}

func isHeaderRow(row Row, floors *FloorMatcher) bool {
	if len(row.Tokens) == 0 {
		return false
	}
	if floors != nil {
		if _, ok := floors.FindInRow(row); ok {
			return false
		}
	}
	digits, keyword := 0, false
	for _, tok := range row.Tokens {
		if isDigits(tok.Clean()) {
			digits++
		}
		if isHeaderWord(tok) {
			keyword = true
		}
	}
	if digits*2 > len(row.Tokens) {
		return false
	}
	return keyword
}
