package locate

import (
	"regexp"
	"strings"
)

// FridgeCode is the location of refrigerated stock.
const FridgeCode = "FRIDGE"

// DefaultFridgeKeywords lists medication classes always stored cold.
var DefaultFridgeKeywords = []string{
	"INSULIN", "VACCINE", "DTAP", "TDAP", "PNEUMOVAX", "H1N1", "FLU", "ZOSTER", "SHINGRIX",
	"VASOPRESSIN", "FAMOTIDINE VIAL", "FAMOTIDINE INJ",
	"AMOXICILLIN-CLAVULANATE SYRINGE", "AUGMENTIN",
	"VANCOMYCIN SYRINGE", "VANCOMYCIN INJ",
	"FORMOTEROL", "PERFOROMIST", "ARMODAFINIL", "NUVIGIL",
	"REFRIGERATE", "FRIDGE",
	"FILGRASTIM", "NEUPOGEN", "ZARXIO",
	"FOSPHENYTOIN", "CEREBYX",
	"EPTIFIBATIDE", "INTEGRILIN",
	"OCTREOTIDE", "SANDOSTATIN",
	"CASPOFUNGIN", "CANCIDAS",
	"DAPTOMYCIN", "CUBICIN",
	"CALCITONIN", "MIACALCIN",
	"VELETRI", "EPOPROSTENOL", "FLOLAN",
	"ISOPROTERENOL", "ISUPREL",
	"HEPATITIS", "ENGERIX", "RECOMBIVAX",
}

type fridgeMatcher struct {
	re *regexp.Regexp
}

// newFridgeMatcher matches keywords as whole words, so FLU never fires on
// FLUOXETINE.
func newFridgeMatcher(keywords []string) *fridgeMatcher {
	if len(keywords) == 0 {
		return &fridgeMatcher{}
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(strings.ToUpper(k)), " ", `\s+`)
	}
	return &fridgeMatcher{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

// match reports whether a medication must come from the fridge. The form
// takes part so that "famotidine" dispensed as a vial is caught.
func (f *fridgeMatcher) match(name, form string) bool {
	upper := strings.ToUpper(name)
	upperForm := strings.ToUpper(form)
	if f.re != nil && (f.re.MatchString(upper) || f.re.MatchString(upper+" "+upperForm)) {
		return true
	}
	return strings.Contains(upper, "AMOX") && strings.Contains(upper, "CLAV") && strings.Contains(upperForm, "SUSP")
}
