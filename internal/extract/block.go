package extract

import (
	"regexp"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

// skipTerms is report and header vocabulary that never belongs to a name.
var skipTerms = setOf(
	"device", "med", "description", "pick", "amount", "max", "current",
	"area", "actual", "report", "time", "group", "by", "summary", "mount",
	"sinai", "morningside", "run", "des", "bd", "page",
)

var unitWords = setOf(
	"mg", "mcg", "g", "ml", "l", "meq", "mmol", "unit", "units", "each", "ea",
)

var formWords = setOf(
	"tablet", "tablets", "tab", "capsule", "capsules", "cap", "vial", "bag",
	"patch", "syringe", "packet", "injection", "solution", "soln", "ivpb",
	"iv", "cup", "syrup", "liquid", "suspension", "nebulizer", "inhaler",
	"cream", "ointment", "spray", "drops", "half", "mini", "mini-bag",
)

var (
	leadingUnitForm = regexp.MustCompile(`(?i)^\d*\s*(?:mg|mcg|g|ml)\s+(?:vial|tablet|capsule|bag|patch|syringe)\s+`)

	formPattern = regexp.MustCompile(`(?i)\b(ivpb|iv|half[\s-]tablet|tablet|capsule|vial|mini[\s-]bag|bag|patch|syringe|packet|nebulizer|cup|syrup|liquid|suspension|injection|solution|soln)\b`)
	eachPattern = regexp.MustCompile(`(?i)\b(each|ea)\b`)

	strengthPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:(?:mg|mcg|g|ml|units?|meq|mmol|each)\b|%)(?:\s*/\s*\d+(?:\.\d+)?\s*(?:ml|l)\b)?`)

	// generic (BRAND), where BRAND may itself read "X in Y" and may be cut
	// short by a nested parenthesis.
	brandPattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9%.\s-]*?)\s*\(([A-Z][A-Z0-9%.\s-]*(?:\s+(?:IN|in)\s+[A-Z0-9%.\s-]+)?)\s*[()]`)

	numericToken  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	percentToken  = regexp.MustCompile(`^\d+(?:\.\d+)?%$`)
	lowerStart    = regexp.MustCompile(`^[a-z]`)
	mixedStart    = regexp.MustCompile(`^[A-Z]{2,}[a-z]`)
	unitFragment  = regexp.MustCompile(`^[a-z]\s*[(\[]`)
	nonLetterRune = regexp.MustCompile(`[^A-Za-z]+`)
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func bare(s string) string {
	return strings.ToLower(strings.Trim(s, "()[]{}.,:;|"))
}

func isSkipTerm(s string) bool { return skipTerms[bare(s)] }

// isUnitToken reports whether s carries a dose unit, as in "mg", "mg/1",
// "mL)" or "(8mg))".
func isUnitToken(s string) bool {
	if strings.Contains(s, "%") {
		return true
	}
	letters := strings.ToLower(nonLetterRune.ReplaceAllString(s, ""))
	return letters != "" && unitWords[letters] && letters != "each" && letters != "ea"
}

// startsRecord reports whether tok can open a new medication. Generic names
// print lowercase ("gabapentin") or with a tall-man prefix ("NORepinephrine").
func startsRecord(tok string) bool {
	t := strings.TrimSpace(tok)
	switch {
	case lowerStart.MatchString(t):
		if unitFragment.MatchString(t) {
			return false
		}
	case mixedStart.MatchString(t):
	default:
		return false
	}
	if textutil.CountLetters(t) < 4 {
		return false
	}
	b := bare(t)
	letters := strings.ToLower(nonLetterRune.ReplaceAllString(t, ""))
	return !formWords[b] && !unitWords[letters]
}

// parseBlock fills Name, Strength and Form from the collected fragments.
// It reports false when the block holds no usable medication name.
func parseBlock(c *CandidateRecord) bool {
	desc := textutil.CollapseSpace(strings.Join(c.Description, " "))
	text := textutil.CollapseSpace(strings.Join(c.Fragments, " "))
	text = leadingUnitForm.ReplaceAllString(text, "")
	desc = leadingUnitForm.ReplaceAllString(desc, "")

	c.Form = parseForm(desc)
	c.Strength = parseStrength(desc)
	c.Name = parseName(text)
	return acceptName(c.Name, c.Strength)
}

func parseForm(s string) string {
	m := formPattern.FindStringSubmatch(s)
	if m == nil {
		if e := eachPattern.FindStringSubmatch(s); e != nil {
			return strings.ToLower(e[1])
		}
		return "tablet"
	}
	f := strings.ToLower(m[1])
	switch {
	case f == "ivpb" || f == "iv" || strings.HasPrefix(f, "mini"):
		return "bag"
	case strings.HasPrefix(f, "half"):
		return "half tablet"
	case f == "soln":
		return "solution"
	}
	return f
}

// parseStrength picks the first dose outside parentheses, then any dose, and
// only then a percentage, which usually belongs to the name.
func parseStrength(s string) string {
	locs := strengthPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return ""
	}
	pick := func(top bool) string {
		for _, l := range locs {
			m := s[l[0]:l[1]]
			if strings.HasSuffix(m, "%") {
				continue
			}
			if top && parenDepth(s[:l[0]]) > 0 {
				continue
			}
			return m
		}
		return ""
	}
	if m := pick(true); m != "" {
		return textutil.CollapseSpace(m)
	}
	if m := pick(false); m != "" {
		return textutil.CollapseSpace(m)
	}
	return textutil.CollapseSpace(s[locs[0][0]:locs[0][1]])
}

func parenDepth(s string) int {
	d := 0
	for _, r := range s {
		switch r {
		case '(':
			d++
		case ')':
			if d > 0 {
				d--
			}
		}
	}
	return d
}

func parseName(text string) string {
	if m := brandPattern.FindStringSubmatch(text); m != nil {
		generic := strings.TrimSpace(m[1])
		brand := strings.TrimSpace(m[2])
		if strings.Contains(strings.ToUpper(brand), " IN ") && strings.HasSuffix(strings.ToLower(generic), " in") {
			generic = strings.TrimSpace(generic[:len(generic)-3])
		}
		if generic != "" && brand != "" {
			return generic + " (" + brand + ")"
		}
	}

	// Walk words until the first dose, unit, form or parenthesis.
	var words []string
	for _, w := range strings.Fields(text) {
		if len(words) == 5 {
			break
		}
		b := bare(w)
		if strings.HasPrefix(w, "(") || numericToken.MatchString(b) ||
			(isUnitToken(w) && !percentToken.MatchString(w)) || formWords[b] || unitWords[b] {
			break
		}
		if b != "" && b[0] >= '0' && b[0] <= '9' && !percentToken.MatchString(w) {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func acceptName(name, strength string) bool {
	if name == "" {
		return false
	}
	l := strings.ToLower(name)
	if skipTerms[l] || formWords[l] || unitWords[l] {
		return false
	}
	letters := textutil.CountLetters(name)
	if letters < 3 {
		return false
	}
	if unitWords[strings.ToLower(nonLetterRune.ReplaceAllString(name, ""))] {
		return false
	}
	if strength == "" && letters < 5 {
		return false
	}
	return true
}
