package locate

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

type replacement struct {
	re  *regexp.Regexp
	out string
}

func rx(pattern, out string) replacement {
	return replacement{re: regexp.MustCompile(pattern), out: out}
}

var brandNames = []struct{ brand, generic string }{
	{"ROBITUSSIN DM", "DEXTROMETHORPHAN-GUAIFENESIN"},
	{"ROBITUSSIN", "GUAIFENESIN"},
	{"MUCINEX", "GUAIFENESIN"},
	{"MEROPENEUM", "MEROPENEM"},
	{"PERIDEX", "CHLORHEXIDINE 0.12 %"},
}

// Most specific first, so "IN 0.9% NACL" expands before "NACL".
var abbreviations = []replacement{
	rx(`(?i)\bIN\s+0\.9\s*%\s*NACL\b`, "IN NORMAL SALINE"),
	rx(`(?i)\bIN\s+0\.9\s*%\s*SODIUM\s+CHLORIDE\b`, "IN NORMAL SALINE"),
	rx(`(?i)\b0\.9\s*%\s*NACL\b`, "NORMAL SALINE"),
	rx(`(?i)\b0\.9\s*%\s*SODIUM\s+CHLORIDE\b`, "NORMAL SALINE"),
	rx(`(?i)\bIN\s+NS\b`, "IN NORMAL SALINE"),
	rx(`(?i)\bIN\s+D5W\b`, "IN DEXTROSE"),
	rx(`(?i)\bIN\s+D10W\b`, "IN DEXTROSE 10%"),
	rx(`(?i)\bIN\s+LR\b`, "IN LACTATED RINGERS"),
	rx(`(?i)\bNS\b`, "NORMAL SALINE"),
	rx(`(?i)\bD5W\b`, "DEXTROSE"),
	rx(`(?i)\bD10W\b`, "DEXTROSE 10%"),
	rx(`(?i)\bLR\b`, "LACTATED RINGERS"),
	rx(`(?i)\bNACL\b`, "SODIUM CHLORIDE"),
	rx(`(?i)\bIVPB\b`, "IV PIGGYBACK"),
}

var equivalents = strings.NewReplacer(
	"SODIUM CHLORIDE", "NORMAL SALINE",
	" NS ", " NORMAL SALINE ",
	" RINSE ", " MOUTHWASH ",
)

var (
	parenNoDigits = regexp.MustCompile(`\([^()\d]*\)`)
	routeWords    = regexp.MustCompile(`\b(?:INTRAVENOUS|ORAL|TOPICAL|OPHTHALMIC|RECTAL|VAGINAL|NASAL|OTIC|PIGGYBACK)\b`)
	dextroseAlias = regexp.MustCompile(`\b(?:D5W|DSW)\b`)
	noiseTokens   = strings.NewReplacer(
		"NOREPHINEPHRINE", "NOREPINEPHRINE",
		"%", "",
		",", "",
		"ISO-OSMOTIC", "",
		"ISO OSMOTIC", "",
	)
	noiseVolumes = []*regexp.Regexp{
		regexp.MustCompile(`\b0\.9\b`),
		regexp.MustCompile(`\b15\s*ML\b`),
		regexp.MustCompile(`\b(?:50|100|200|250|500|1000)\s*ML\b`),
	}
	digitLetter = regexp.MustCompile(`(\d)([A-Z])`)
	units       = []replacement{
		rx(`\bGRAMS?\b`, "G"),
		rx(`\bGMS?\b`, "G"),
		rx(`\bMILLIGRAMS?\b`, "MG"),
		rx(`\bMICROGRAMS?\b`, "MCG"),
		rx(`\bMILLILITERS?\b`, "ML"),
		rx(`\bUNITS?\b`, "UNITS"),
	}
	strengthPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:MG|G|ML|MCG|UNITS|MEQ|%|MG/ML)`)
)

var saltNames = map[string]bool{
	"BITARTRATE": true, "HYDROCHLORIDE": true, "SODIUM": true, "POTASSIUM": true,
	"CALCIUM": true, "SULFATE": true, "ACETATE": true, "TARTRATE": true,
	"MALEATE": true, "FUMARATE": true, "SUCCINATE": true, "PHOSPHATE": true,
	"CITRATE": true, "MESYLATE": true, "BESYLATE": true, "HCL": true,
	"PORCINE": true, "RECOMBINANT": true,
}

// Words that never distinguish one product from another in a sorted key.
var keyIgnore = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`MG MCG ML G L OZ MEQ UNITS UNIT %
		TABLET CAPSULE VIAL INJ SOLN SOLUTION SYRUP LIQUID SUSP SUSPENSION ELIXIR
		DROPS SPRAY CREAM OINTMENT GEL LOTION FOAM PATCH PAD KIT CUP BAG BOTTLE
		MINIBAG IVPB ADD-EASE ADDEASE INFUSION RINSE MOUTHWASH UD ISO-OSMOTIC ISO
		OSMOTIC PYXIS OSM PUMP INHALER NEBULIZER AMPUL CARTRIDGE SYRINGE PEN CREON
		DELAYED RELEASE EXTENDED ER DR IR SR CR XL REL HCL SODIUM POTASSIUM
		CHLORIDE SULFATE TARTRATE GLUCONATE ACETATE ORAL TOPICAL INTRAVENOUS
		OPHTHALMIC OTIC NASAL IN AND WITH FOR OF AS IV IM PO PR SL TO`) {
		keyIgnore[w] = true
	}
}

// Normalizer canonicalizes medication descriptions for matching. Results are
// memoized; a Normalizer is safe for concurrent use.
type Normalizer struct {
	memo sync.Map // string -> string
}

// NewNormalizer returns an empty Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the canonical uppercase form of s.
func (n *Normalizer) Normalize(s string) string {
	if v, ok := n.memo.Load(s); ok {
		return v.(string)
	}
	out := normalize(s)
	n.memo.Store(s, out)
	return out
}

func normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = strings.ToUpper(textutil.Fold(s))

	for _, b := range brandNames {
		s = strings.ReplaceAll(s, b.brand, b.generic)
	}
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.out)
	}
	s = equivalents.Replace(s)

	// Parenthesized brands and notes go; strengths such as (200 ML) stay.
	for i := 0; i < 5 && strings.Contains(s, "(") && strings.Contains(s, ")"); i++ {
		prev := s
		s = parenNoDigits.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, "()", "")
		if s == prev {
			break
		}
	}
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)

	s = routeWords.ReplaceAllString(s, "")
	s = dextroseAlias.ReplaceAllString(s, "DEXTROSE")
	s = noiseTokens.Replace(s)
	for _, re := range noiseVolumes {
		s = re.ReplaceAllString(s, "")
	}
	s = digitLetter.ReplaceAllString(s, "$1 $2")
	for _, u := range units {
		s = u.re.ReplaceAllString(s, u.out)
	}
	return textutil.CollapseSpace(s)
}

// StripSalts drops salt words such as HCL or SODIUM from a normalized name.
func StripSalts(s string) string {
	words := strings.Fields(s)
	out := words[:0:0]
	for _, w := range words {
		if !saltNames[w] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// Strength returns every dose in s joined by spaces, uppercased.
func Strength(s string) string {
	return strings.ToUpper(strings.Join(strengthPattern.FindAllString(s, -1), " "))
}

var keySeparators = strings.NewReplacer("/", " ", "-", " ", "(", " ", ")", " ")

func isNumeric(w string) bool {
	return textutil.IsDigits(strings.ReplaceAll(w, ".", ""))
}

// SortedKey returns an order-independent fingerprint of a normalized name:
// its sorted unique numbers followed by its sorted unique significant words.
func SortedKey(s string) string {
	clean := keySeparators.Replace(s)
	nums := map[string]bool{}
	words := map[string]bool{}
	for _, w := range strings.Fields(clean) {
		if keyIgnore[w] {
			continue
		}
		switch {
		case isNumeric(w):
			nums[w] = true
		case len(w) > 1:
			words[w] = true
		}
	}
	return strings.Join(append(sortedSet(nums), sortedSet(words)...), " ")
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// splitKey separates a sorted key into its word part and its number set.
func splitKey(key string) (string, map[string]bool) {
	var words []string
	nums := map[string]bool{}
	for _, w := range strings.Fields(key) {
		if isNumeric(w) {
			nums[w] = true
		} else {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	return strings.Join(words, " "), nums
}
