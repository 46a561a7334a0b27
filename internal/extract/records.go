package extract

import (
	"encoding/json"
	"fmt"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
)

// Warning texts attached to records. Formula mismatches append the numbers
// involved after the constant prefix.
const (
	WarnLowConfidence   = "only two numbers found, pick amount taken from the first"
	WarnFormulaMismatch = "no pick/max/current combination satisfies pick = max - current"
	WarnRedistributed   = "pick amount recovered from a neighbouring row"
	WarnNoPick          = "no pick amount found"
	WarnPickRange       = "pick amount outside expected range"
	WarnNoFloor         = "floor not detected"
)

// NumberToken is one purely numeric token and the column band it fell in.
type NumberToken struct {
	Value  int
	Column detection.Column
}

// CandidateRecord is a record under construction. It is owned by a single
// extraction pass and never leaves the package.
type CandidateRecord struct {
	Fragments   []string // name fragments, skip terms removed
	Description []string // every description token in reading order
	Numbers     []NumberToken
	Floor       string
	Row         int // index of the row that opened the record

	Name     string
	Strength string
	Form     string

	Pick    *int
	Max     *int
	Current *int

	Warnings []string
}

func (c *CandidateRecord) warn(msg string) {
	for _, w := range c.Warnings {
		if w == msg {
			return
		}
	}
	c.Warnings = append(c.Warnings, msg)
}

func (c *CandidateRecord) setTriple(p, m, cur int) {
	c.Pick, c.Max, c.Current = &p, &m, &cur
}

// ValidatedRecord is an extracted record that passed source validation.
// Values are read through accessors; nothing outside the package can change
// one after it is built.
type ValidatedRecord struct {
	name     string
	strength string
	form     string
	floor    string
	pick     int
	max      *int
	current  *int
	warnings []string
}

func newValidatedRecord(c *CandidateRecord) ValidatedRecord {
	r := ValidatedRecord{
		name:     c.Name,
		strength: c.Strength,
		form:     c.Form,
		floor:    c.Floor,
		warnings: append([]string(nil), c.Warnings...),
	}
	if c.Pick != nil {
		r.pick = *c.Pick
	}
	if c.Max != nil {
		v := *c.Max
		r.max = &v
	}
	if c.Current != nil {
		v := *c.Current
		r.current = &v
	}
	return r
}

func (r ValidatedRecord) Name() string     { return r.name }
func (r ValidatedRecord) Strength() string { return r.strength }
func (r ValidatedRecord) Form() string     { return r.form }
func (r ValidatedRecord) Floor() string    { return r.floor }
func (r ValidatedRecord) PickAmount() int  { return r.pick }

// Max returns the MAX column value, if known.
func (r ValidatedRecord) Max() (int, bool) {
	if r.max == nil {
		return 0, false
	}
	return *r.max, true
}

// Current returns the CURRENT column value, if known.
func (r ValidatedRecord) Current() (int, bool) {
	if r.current == nil {
		return 0, false
	}
	return *r.current, true
}

// Warnings returns a copy of the record's warnings.
func (r ValidatedRecord) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

func (r ValidatedRecord) String() string {
	return fmt.Sprintf("%s %s %s @%s pick=%d", r.name, r.strength, r.form, r.floor, r.pick)
}

type recordJSON struct {
	Name       string   `json:"name"`
	Strength   string   `json:"strength"`
	Form       string   `json:"form"`
	Floor      string   `json:"floor"`
	PickAmount int      `json:"pick_amount"`
	Max        *int     `json:"max,omitempty"`
	Current    *int     `json:"current,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

func (r ValidatedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Name:       r.name,
		Strength:   r.strength,
		Form:       r.form,
		Floor:      r.floor,
		PickAmount: r.pick,
		Max:        r.max,
		Current:    r.current,
		Warnings:   r.warnings,
	})
}

func (r ValidatedRecord) withName(name string) ValidatedRecord {
	r.name = name
	return r
}

func (r ValidatedRecord) withForm(form string) ValidatedRecord {
	r.form = form
	return r
}
