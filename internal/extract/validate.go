package extract

import (
	"fmt"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

// Validator checks candidate records against the page's own text so that no
// name reaches the caller unless it was actually printed on the page.
type Validator struct {
	floors     *detection.FloorMatcher
	similarity float64
	pickMin    int
	pickMax    int
}

// NewValidator returns a Validator using the thresholds in opts.
func NewValidator(floors *detection.FloorMatcher, opts Options) *Validator {
	opts = opts.withDefaults()
	return &Validator{
		floors:     floors,
		similarity: opts.SourceSimilarity,
		pickMin:    opts.PickMin,
		pickMax:    opts.PickMax,
	}
}

// Validate returns the records that trace back to source, in input order.
// Records failing the name or floor checks are logged and dropped.
func (v *Validator) Validate(records []*CandidateRecord, source string) []ValidatedRecord {
	src := prepareSource(source)
	words := strings.Fields(src)

	out := make([]ValidatedRecord, 0, len(records))
	for _, r := range records {
		if !v.nameInSource(r.Name, src, words) {
			logging.Logger().Warn("record name not found in source text, discarded", "record", r.Name, "floor", r.Floor)
			continue
		}
		if r.Floor == "" {
			r.warn(WarnNoFloor)
		} else if !v.floors.Valid(r.Floor) {
			logging.Logger().Warn("invalid floor, record discarded", "record", r.Name, "floor", r.Floor)
			continue
		}
		if r.Pick != nil && (*r.Pick < v.pickMin || *r.Pick > v.pickMax) {
			r.warn(fmt.Sprintf("%s [%d, %d]: %d", WarnPickRange, v.pickMin, v.pickMax, *r.Pick))
		}
		out = append(out, newValidatedRecord(r))
	}
	return out
}

func prepareSource(s string) string {
	return textutil.CollapseSpace(strings.ToLower(textutil.Fold(s)))
}

func (v *Validator) nameInSource(name, src string, words []string) bool {
	n := prepareSource(name)
	if n == "" || src == "" {
		return false
	}
	if strings.Contains(src, n) {
		return true
	}
	main := n
	if i := strings.Index(n, "("); i >= 0 {
		main = strings.TrimSpace(n[:i])
	}
	if main == "" {
		return false
	}
	if strings.Contains(src, main) {
		return true
	}

	if strings.Contains(main, " in ") {
		all := true
		for _, part := range strings.Split(main, " in ") {
			if p := strings.TrimSpace(part); p != "" && !strings.Contains(src, p) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	nameWords := strings.Fields(main)
	for i := range words {
		end := min(len(words), i+len(nameWords)+1)
		for j := i + 1; j <= end; j++ {
			if textutil.Ratio(main, strings.Join(words[i:j], " ")) >= v.similarity {
				return true
			}
		}
	}

	for _, w := range nameWords {
		if len(w) >= 6 && strings.Contains(src, w) {
			return true
		}
	}
	return false
}
