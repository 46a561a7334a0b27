package extract

import (
	"strconv"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

// Assembler groups table rows into candidate records.
type Assembler struct {
	floors *detection.FloorMatcher
}

// NewAssembler returns an Assembler recognizing floors with floors.
func NewAssembler(floors *detection.FloorMatcher) *Assembler {
	return &Assembler{floors: floors}
}

// Assemble walks rows top to bottom and returns the parsed records.
//
// With a layout, tokens are routed by column band. Without one (line mode)
// a row made only of integers feeds the numbers list and any other row is
// description text. Rows up to and including headerEnd contribute floor
// codes only.
//
// The floor in effect is local to one call, so concurrent pages never share it.
func (a *Assembler) Assemble(rows []detection.Row, layout *detection.Layout, headerEnd int) []*CandidateRecord {
	var (
		floor   string
		records []*CandidateRecord
		cur     *CandidateRecord
	)
	closeCurrent := func() {
		if cur == nil {
			return
		}
		if len(cur.Fragments) > 0 && parseBlock(cur) {
			records = append(records, cur)
		} else {
			logging.Logger().Debug("dropping block without a medication name",
				"text", strings.Join(cur.Description, " "), "row", cur.Row)
		}
		cur = nil
	}

	for i, row := range rows {
		if f, ok := a.floors.FindInRow(row); ok {
			if f != floor {
				closeCurrent()
			}
			floor = f
			continue
		}
		if i <= headerEnd {
			continue
		}

		desc, numbers := splitRow(row, layout)
		if len(desc) == 0 && len(numbers) == 0 {
			continue
		}

		if cur != nil && len(cur.Numbers) > 0 {
			if lead := leadingToken(desc); lead != "" && startsRecord(lead) {
				closeCurrent()
			}
		}
		if cur == nil {
			if len(desc) == 0 {
				logging.Logger().Debug("numbers without a description", "row", i)
				continue
			}
			cur = &CandidateRecord{Floor: floor, Row: i}
		}

		unitInRow := false
		for _, t := range desc {
			if isUnitToken(t) {
				unitInRow = true
				break
			}
		}
		for _, t := range desc {
			cur.Description = append(cur.Description, t)
			if isSkipTerm(t) {
				continue
			}
			if unitInRow && numericToken.MatchString(t) {
				continue
			}
			cur.Fragments = append(cur.Fragments, t)
		}
		cur.Numbers = append(cur.Numbers, numbers...)
	}
	closeCurrent()
	return records
}

func leadingToken(desc []string) string {
	for _, t := range desc {
		if !isSkipTerm(t) {
			return t
		}
	}
	return ""
}

// splitRow separates a row into description text and numeric tokens.
func splitRow(row detection.Row, layout *detection.Layout) ([]string, []NumberToken) {
	var (
		desc    []string
		numbers []NumberToken
	)
	if layout == nil {
		all := len(row.Tokens) > 0
		for _, t := range row.Tokens {
			if !textutil.IsDigits(t.Clean()) {
				all = false
				break
			}
		}
		for _, t := range row.Tokens {
			s := t.Clean()
			if s == "" {
				continue
			}
			if all {
				v, _ := strconv.Atoi(s)
				numbers = append(numbers, NumberToken{Value: v})
			} else {
				desc = append(desc, s)
			}
		}
		return desc, numbers
	}

	for _, t := range row.Tokens {
		s := t.Clean()
		if s == "" {
			continue
		}
		x := t.CenterX()
		if col, ok := layout.NumericColumn(x); ok {
			if textutil.IsDigits(s) {
				v, _ := strconv.Atoi(s)
				numbers = append(numbers, NumberToken{Value: v, Column: col})
			}
			continue
		}
		if layout.InDescription(x) {
			desc = append(desc, s)
		}
	}
	return desc, numbers
}
