package detection

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFloorPattern matches hospital unit codes such as 8E-1, 5N-1,
// 7EM_MICU and 6E-2_CICU. The separator after the unit letters is required
// so quantities like 1EA or 10MG never read as floors.
const DefaultFloorPattern = `^\d+[A-Z]{1,3}[-_][\dA-Z]+(?:[-_][\dA-Z]+)?$`

var floorStem = regexp.MustCompile(`^\d+[A-Z]{1,3}$`)

// FloorMatcher recognizes floor/device codes in rows and validates floor strings.
type FloorMatcher struct {
	re *regexp.Regexp
}

// NewFloorMatcher compiles pattern, or DefaultFloorPattern when pattern is empty.
func NewFloorMatcher(pattern string) (*FloorMatcher, error) {
	if pattern == "" {
		pattern = DefaultFloorPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid floor pattern: %w", err)
	}
	return &FloorMatcher{re: re}, nil
}

// Valid reports whether s is a well-formed floor code.
func (m *FloorMatcher) Valid(s string) bool {
	return m.re.MatchString(s)
}

// FindInRow returns the floor code carried by row, if any.
//
// A token may carry a "Device:" prefix. OCR sometimes splits "9E-1" into the
// three tokens "9E", "-", "1"; those are joined back together.
func (m *FloorMatcher) FindInRow(row Row) (string, bool) {
	toks := row.Tokens
	for i, tok := range toks {
		text := tok.Clean()
		if len(text) > 7 && strings.EqualFold(text[:7], "device:") {
			text = strings.TrimSpace(text[7:])
		}
		if text == "" {
			continue
		}
		if m.re.MatchString(text) {
			return text, true
		}
		if floorStem.MatchString(text) && len(text) <= 4 && i+2 < len(toks) {
			if toks[i+1].Clean() == "-" {
				n := toks[i+2].Clean()
				if isDigits(n) {
					joined := text + "-" + n
					if m.re.MatchString(joined) {
						return joined, true
					}
				}
			}
		}
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
