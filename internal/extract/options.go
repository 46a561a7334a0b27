package extract

import "github.com/HabtB/Pharmacy-Pickup/internal/detection"

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Contains reports whether v lies within r.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// FormCorrection rewrites a misread form for names containing NameContains.
type FormCorrection struct {
	NameContains string   `yaml:"name_contains" json:"name_contains"`
	From         []string `yaml:"from" json:"from"`
	To           string   `yaml:"to" json:"to"`
}

// Options configures an Engine. Zero fields take the values of DefaultOptions.
type Options struct {
	Layout       detection.Options
	RowTolerance float64
	FloorPattern string

	// FormulaTolerance bounds |pick - (max - current)| for a valid triple.
	FormulaTolerance int
	// PreferredPicks ranks donor triples during redistribution, best tier first.
	PreferredPicks []Range
	PickMin        int
	PickMax        int

	SourceSimilarity    float64
	TitleCaseNames      bool
	DisableLineFallback bool

	IVRoster        []string
	FormCorrections []FormCorrection

	// Workers bounds the number of pages extracted at once in a batch.
	Workers int
}

// DefaultIVRoster lists medications dispensed as IV bags rather than vials.
var DefaultIVRoster = []string{
	"cefazolin", "ceftriaxone", "ampicillin", "vancomycin", "piperacillin",
	"meropenem", "ertapenem", "ceftazidime", "cefepime", "gentamicin",
	"tobramycin", "azithromycin", "levofloxacin", "ciprofloxacin",
	"metronidazole", "normal saline", "lactated ringers", "dextrose",
	"sodium chloride", "potassium chloride", "magnesium sulfate",
}

// DefaultFormCorrections holds the known OCR form misreads.
var DefaultFormCorrections = []FormCorrection{
	{NameContains: "50%", From: []string{"injection", "vial"}, To: "syringe"},
}

// DefaultOptions returns the stock extraction settings.
func DefaultOptions() Options {
	return Options{
		RowTolerance:     detection.DefaultRowTolerance,
		FloorPattern:     detection.DefaultFloorPattern,
		FormulaTolerance: 5,
		PreferredPicks:   []Range{{Min: 10, Max: 20}, {Min: 5, Max: 30}},
		PickMin:          0,
		PickMax:          200,
		SourceSimilarity: 0.70,
		IVRoster:         DefaultIVRoster,
		FormCorrections:  DefaultFormCorrections,
		Workers:          4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RowTolerance <= 0 {
		o.RowTolerance = d.RowTolerance
	}
	if o.FloorPattern == "" {
		o.FloorPattern = d.FloorPattern
	}
	if o.FormulaTolerance <= 0 {
		o.FormulaTolerance = d.FormulaTolerance
	}
	if o.PreferredPicks == nil {
		o.PreferredPicks = d.PreferredPicks
	}
	if o.PickMax <= 0 {
		o.PickMax = d.PickMax
	}
	if o.SourceSimilarity <= 0 {
		o.SourceSimilarity = d.SourceSimilarity
	}
	if o.IVRoster == nil {
		o.IVRoster = d.IVRoster
	}
	if o.FormCorrections == nil {
		o.FormCorrections = d.FormCorrections
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}
