package locate

import (
	"errors"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/textutil"
)

// ErrNoReferenceRows is returned by loaders that found no usable rows.
var ErrNoReferenceRows = errors.New("no reference rows")

// Strategy names the cascade step that produced a match.
type Strategy string

const (
	StrategyNone         Strategy = ""
	StrategyFridge       Strategy = "fridge"
	StrategyExact        Strategy = "exact"
	StrategyNoForm       Strategy = "no_form"
	StrategyNameStrength Strategy = "name_strength"
	StrategyName         Strategy = "name"
	StrategyFuzzyFull    Strategy = "fuzzy_full"
	StrategyFuzzyName    Strategy = "fuzzy_name"
	StrategySortedKey    Strategy = "sorted_key"
	StrategySortedSubset Strategy = "sorted_subset"
)

// Result is the outcome of a lookup.
type Result struct {
	Location Location `json:"location"`
	Found    bool     `json:"found"`
	Strategy Strategy `json:"strategy,omitempty"`
	Score    float64  `json:"score,omitempty"`
}

// NotFound is returned for every miss.
var NotFound = Result{}

// DefaultCodeDescriptions names the bare location codes.
var DefaultCodeDescriptions = map[string]string{
	"PHRM":     "Main Pharmacy",
	"STR":      "Store Room",
	"VIT":      "Vitamins Section",
	"IV":       "IV Room",
	FridgeCode: "Refrigerated Section",
}

// Options tunes a Resolver. Zero fields take the defaults noted.
type Options struct {
	FullThreshold  float64 // fuzzy_full acceptance (0.85)
	NameThreshold  float64 // fuzzy_name acceptance (0.80)
	StrengthWeight float64 // share of the score given to strength similarity (0.4)
	SubstringScore float64 // base score when the query is contained in a name (0.85)
	CandidateFloor int     // widen to the first-character bucket below this many (50)

	FridgeKeywords   []string
	CodeDescriptions map[string]string
}

func (o Options) withDefaults() Options {
	if o.FullThreshold <= 0 {
		o.FullThreshold = 0.85
	}
	if o.NameThreshold <= 0 {
		o.NameThreshold = 0.80
	}
	if o.StrengthWeight <= 0 {
		o.StrengthWeight = 0.4
	}
	if o.SubstringScore <= 0 {
		o.SubstringScore = 0.85
	}
	if o.CandidateFloor <= 0 {
		o.CandidateFloor = 50
	}
	if o.FridgeKeywords == nil {
		o.FridgeKeywords = DefaultFridgeKeywords
	}
	if o.CodeDescriptions == nil {
		o.CodeDescriptions = DefaultCodeDescriptions
	}
	return o
}

// Resolver maps medication descriptions to storage locations. Build one with
// NewResolver and share it; it is safe for concurrent use.
type Resolver struct {
	opts   Options
	norm   *Normalizer
	index  *Index
	fridge *fridgeMatcher
	cache  *Cache
}

// NewResolver builds the reference indices from rows.
func NewResolver(rows []ReferenceRow, opts Options) *Resolver {
	opts = opts.withDefaults()
	norm := NewNormalizer()
	r := &Resolver{
		opts:   opts,
		norm:   norm,
		index:  BuildIndex(rows, norm),
		fridge: newFridgeMatcher(opts.FridgeKeywords),
		cache:  newCache(),
	}
	logging.Logger().Info("reference index built", "rows", len(rows), "entries", r.index.Len())
	return r
}

// Len returns the number of distinct reference entries.
func (r *Resolver) Len() int { return r.index.Len() }

// CacheStats reports lookup cache usage.
func (r *Resolver) CacheStats() CacheStats { return r.cache.Stats() }

// Describe returns the description for a bare location code.
func (r *Resolver) Describe(code string) string {
	if d, ok := r.opts.CodeDescriptions[strings.ToUpper(code)]; ok {
		return d
	}
	return code
}

// Lookup resolves one medication. Results are cached per (name, strength, form).
func (r *Resolver) Lookup(name, strength, form string) Result {
	k := cacheKey{name, strength, form}
	if res, ok := r.cache.get(k); ok {
		return res
	}
	res := r.resolve(name, strength, form)
	r.cache.put(k, res)
	return res
}

// Resolved pairs an extracted record with its location.
type Resolved struct {
	Record extract.ValidatedRecord `json:"record"`
	Result Result                  `json:"location"`
}

// LookupRecords resolves each record in order.
func (r *Resolver) LookupRecords(records []extract.ValidatedRecord) []Resolved {
	out := make([]Resolved, len(records))
	for i, rec := range records {
		out[i] = Resolved{Record: rec, Result: r.Lookup(rec.Name(), rec.Strength(), rec.Form())}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func (r *Resolver) found(loc Location, s Strategy, score float64) Result {
	if loc.Description == "" {
		loc.Description = r.Describe(loc.Code)
	}
	return Result{Location: loc, Found: true, Strategy: s, Score: score}
}

func (r *Resolver) resolve(name, strength, form string) Result {
	log := logging.Logger()
	name = strings.TrimSpace(name)
	if name == "" {
		return NotFound
	}
	if r.fridge.match(name, form) {
		log.Debug("fridge override", "name", name, "form", form)
		return r.found(Location{Code: FridgeCode}, StrategyFridge, 1)
	}

	full := r.norm.Normalize(joinNonEmpty(name, strength, form))
	if loc, ok := r.index.Get(full); ok {
		return r.found(loc, StrategyExact, 1)
	}
	if strings.TrimSpace(form) != "" {
		if loc, ok := r.index.Get(r.norm.Normalize(joinNonEmpty(name, strength))); ok {
			return r.found(loc, StrategyNoForm, 1)
		}
	}
	if strings.TrimSpace(strength) != "" {
		if loc, ok := r.index.Get(r.norm.Normalize(joinNonEmpty(name, strength))); ok {
			return r.found(loc, StrategyNameStrength, 1)
		}
	}
	nameOnly := r.norm.Normalize(name)
	if loc, ok := r.index.Get(nameOnly); ok {
		return r.found(loc, StrategyName, 1)
	}

	want := numbers(r.norm.Normalize(strength))
	if loc, score, ok := r.fuzzy(full, r.opts.FullThreshold, want); ok {
		return r.found(loc, StrategyFuzzyFull, score)
	}
	if loc, score, ok := r.fuzzy(nameOnly, r.opts.NameThreshold, want); ok {
		return r.found(loc, StrategyFuzzyName, score)
	}

	key := SortedKey(full)
	if key == "" {
		log.Debug("no location", "name", name, "normalized", full)
		return NotFound
	}
	if n, ok := r.index.sorted[key]; ok {
		return r.found(r.index.entries[n], StrategySortedKey, 1)
	}
	words, nums := splitKey(key)
	for _, cand := range r.index.sortedKeys {
		cw, cn := splitKey(cand)
		if cw != words || !subset(nums, cn) {
			continue
		}
		return r.found(r.index.entries[r.index.sorted[cand]], StrategySortedSubset, 1)
	}

	log.Debug("no location", "name", name, "normalized", full)
	return NotFound
}

func subset(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func numbers(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(keySeparators.Replace(s)) {
		if isNumeric(w) {
			out[w] = true
		}
	}
	return out
}

// fuzzy scores query against the candidate names and returns the best one
// at or above threshold. When both sides carry a strength the score blends
// name similarity with strength similarity.
//
// A candidate printing numbers must contain every number of the requested
// strength, so a close name never lends its location to a different dose.
func (r *Resolver) fuzzy(query string, threshold float64, want map[string]bool) (Location, float64, bool) {
	cands := r.index.candidates(query, r.opts.CandidateFloor)
	if len(cands) == 0 {
		return Location{}, 0, false
	}
	qStrength := Strength(query)
	qNoSalt := StripSalts(query)

	var (
		best      Location
		bestScore float64
	)
	for _, name := range cands {
		// A candidate without numbers cannot confirm the requested strength.
		if len(want) > 0 && !subset(want, numbers(name)) {
			continue
		}
		noSalt := StripSalts(name)
		base := max(textutil.Ratio(query, name), textutil.Ratio(qNoSalt, noSalt))
		if strings.Contains(name, query) || (qNoSalt != "" && strings.Contains(noSalt, qNoSalt)) {
			base = max(base, r.opts.SubstringScore)
		}
		score := base
		if s := Strength(name); qStrength != "" && s != "" {
			score = (1-r.opts.StrengthWeight)*base + r.opts.StrengthWeight*textutil.Ratio(qStrength, s)
		}
		if score > bestScore {
			best, bestScore = r.index.entries[name], score
		}
	}
	if bestScore >= threshold {
		return best, bestScore, true
	}
	return Location{}, 0, false
}
