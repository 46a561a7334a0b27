package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

// Normalizer removes duplicate records and canonicalizes forms and names.
type Normalizer struct {
	roster      []string
	corrections []FormCorrection
	titleCase   bool
}

// NewNormalizer returns a Normalizer using the roster and corrections in opts.
func NewNormalizer(opts Options) *Normalizer {
	opts = opts.withDefaults()
	roster := make([]string, len(opts.IVRoster))
	for i, r := range opts.IVRoster {
		roster[i] = strings.ToLower(r)
	}
	return &Normalizer{
		roster:      roster,
		corrections: opts.FormCorrections,
		titleCase:   opts.TitleCaseNames,
	}
}

// Apply returns the deduplicated, normalized records in input order.
//
// Names keep their source casing unless Options.TitleCaseNames is set, which
// it is not by default. MergePages title-cases the display names of merged
// batch output on its own.
func (n *Normalizer) Apply(records []ValidatedRecord) []ValidatedRecord {
	kept := Dedup(records)
	out := make([]ValidatedRecord, 0, len(kept))
	for _, r := range kept {
		name := textutil.CollapseSpace(r.Name())
		if n.titleCase {
			name = TitleCase(name)
		}
		out = append(out, r.withName(name).withForm(n.canonicalForm(r.Name(), r.Form())))
	}
	return out
}

// Dedup drops every record whose lowercased name is contained in another
// record's name on the same floor with the same strength. Of two identical
// names the first one is kept.
func Dedup(records []ValidatedRecord) []ValidatedRecord {
	lower := make([]string, len(records))
	for i, r := range records {
		lower[i] = strings.ToLower(textutil.CollapseSpace(r.Name()))
	}
	out := make([]ValidatedRecord, 0, len(records))
	for i, r := range records {
		dup := false
		for j, o := range records {
			if i == j || r.Floor() != o.Floor() || r.Strength() != o.Strength() {
				continue
			}
			if !strings.Contains(lower[j], lower[i]) {
				continue
			}
			if lower[i] != lower[j] || j < i {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

func (n *Normalizer) canonicalForm(name, form string) string {
	nl := strings.ToLower(name)
	f := strings.ToLower(strings.TrimSpace(form))

	for _, c := range n.corrections {
		if !strings.Contains(nl, strings.ToLower(c.NameContains)) {
			continue
		}
		for _, from := range c.From {
			if f == strings.ToLower(from) {
				f = c.To
				break
			}
		}
	}

	switch f {
	case "mini bag", "mini-bag", "ivpb", "iv":
		f = "bag"
	case "suspension":
		f = "liquid"
	case "soln":
		f = "solution"
	case "ea", "each":
		switch {
		case strings.Contains(nl, "patch"):
			f = "patch"
		case strings.Contains(nl, "bag"):
			f = "bag"
		default:
			f = "packet"
		}
	}

	if f == "injection" || f == "vial" {
		for _, drug := range n.roster {
			if strings.Contains(nl, drug) {
				f = "bag"
				break
			}
		}
	}
	return f
}

// TitleCase capitalizes the first letter of every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
