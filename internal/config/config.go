// Package config loads pickup service settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PICKUP_"

// Config is the top-level service configuration.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Batch      BatchConfig      `yaml:"batch"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Reference  ReferenceConfig  `yaml:"reference"`
	OCR        OCRConfig        `yaml:"ocr"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Assist     AssistConfig     `yaml:"assist"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// ExtractionConfig tunes the pick-list engine.
type ExtractionConfig struct {
	RowTolerance   float64 `yaml:"row_tolerance"`
	HeaderWindow   int     `yaml:"header_window"`
	BandPad        float64 `yaml:"band_pad"`
	DescriptionPad float64 `yaml:"description_pad"`
	PickInferNear  float64 `yaml:"pick_infer_near"`
	PickInferFar   float64 `yaml:"pick_infer_far"`

	FormulaTolerance int             `yaml:"formula_tolerance"`
	PreferredPicks   []extract.Range `yaml:"preferred_picks"`
	PickMin          int             `yaml:"pick_min"`
	PickMax          int             `yaml:"pick_max"`

	SourceSimilarity float64 `yaml:"source_similarity"`
	FloorPattern     string  `yaml:"floor_pattern"`
	TitleCaseNames   bool    `yaml:"title_case_names"`
	LineFallback     *bool   `yaml:"line_fallback"` // nil means enabled

	IVRoster        []string                 `yaml:"iv_roster"`
	FormCorrections []extract.FormCorrection `yaml:"form_corrections"`
}

// BatchConfig bounds multi-page work.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LookupConfig tunes the location resolver.
type LookupConfig struct {
	FullThreshold    float64           `yaml:"full_threshold"`
	NameThreshold    float64           `yaml:"name_threshold"`
	StrengthWeight   float64           `yaml:"strength_weight"`
	SubstringScore   float64           `yaml:"substring_score"`
	CandidateFloor   int               `yaml:"candidate_floor"`
	FridgeKeywords   []string          `yaml:"fridge_keywords"`
	CodeDescriptions map[string]string `yaml:"code_descriptions"`
}

// ReferenceConfig locates the location reference table.
type ReferenceConfig struct {
	Path  string `yaml:"path"`
	Kind  string `yaml:"kind"`  // csv | xlsx | sqlite; empty infers from the extension
	Table string `yaml:"table"` // sqlite only
	Sheet string `yaml:"sheet"` // xlsx only; empty reads the first sheet
}

// OCRConfig selects the Tesseract language data.
type OCRConfig struct {
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// PreprocessConfig controls photo cleanup before OCR.
type PreprocessConfig struct {
	Disabled     bool    `yaml:"disabled"`
	MinWidth     int     `yaml:"min_width"`
	Contrast     float64 `yaml:"contrast"`
	SharpenSigma float64 `yaml:"sharpen_sigma"`
	Binarize     bool    `yaml:"binarize"`
	Denoise      bool    `yaml:"denoise"`
}

// AssistConfig configures the optional LLM name check.
type AssistConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Provider  string        `yaml:"provider"` // openai | ollama
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
}

// HTTPConfig configures the optional REST listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration file, applies defaults and then
// PICKUP_* environment overrides. An empty path yields the defaults with
// overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := extract.DefaultOptions()
	e := &c.Extraction
	if e.RowTolerance <= 0 {
		e.RowTolerance = d.RowTolerance
	}
	if e.HeaderWindow <= 0 {
		e.HeaderWindow = 40
	}
	if e.BandPad <= 0 {
		e.BandPad = 30
	}
	if e.DescriptionPad <= 0 {
		e.DescriptionPad = 100
	}
	if e.PickInferNear <= 0 {
		e.PickInferNear = 50
	}
	if e.PickInferFar <= 0 {
		e.PickInferFar = 150
	}
	if e.FormulaTolerance <= 0 {
		e.FormulaTolerance = d.FormulaTolerance
	}
	if len(e.PreferredPicks) == 0 {
		e.PreferredPicks = d.PreferredPicks
	}
	if e.PickMax <= 0 {
		e.PickMax = d.PickMax
	}
	if e.SourceSimilarity <= 0 {
		e.SourceSimilarity = d.SourceSimilarity
	}
	if e.FloorPattern == "" {
		e.FloorPattern = d.FloorPattern
	}
	if e.IVRoster == nil {
		e.IVRoster = d.IVRoster
	}
	if e.FormCorrections == nil {
		e.FormCorrections = d.FormCorrections
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = d.Workers
	}

	l := &c.Lookup
	if l.FullThreshold <= 0 {
		l.FullThreshold = 0.85
	}
	if l.NameThreshold <= 0 {
		l.NameThreshold = 0.80
	}
	if l.StrengthWeight <= 0 {
		l.StrengthWeight = 0.4
	}
	if l.SubstringScore <= 0 {
		l.SubstringScore = 0.85
	}
	if l.CandidateFloor <= 0 {
		l.CandidateFloor = 50
	}

	if c.Reference.Table == "" {
		c.Reference.Table = "locations"
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.Preprocess.MinWidth <= 0 {
		c.Preprocess.MinWidth = 1800
	}
	if c.Preprocess.SharpenSigma <= 0 {
		c.Preprocess.SharpenSigma = 1.0
	}

	a := &c.Assist
	if a.Provider == "" {
		a.Provider = "openai"
	}
	if a.Model == "" {
		a.Model = "gpt-4o-mini"
	}
	if a.APIKeyEnv == "" {
		a.APIKeyEnv = "OPENAI_API_KEY"
	}
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
	if a.Retries <= 0 {
		a.Retries = 2
	}
}

// applyEnv overrides settings from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("REFERENCE_PATH", &c.Reference.Path)
	str("REFERENCE_KIND", &c.Reference.Kind)
	str("OCR_LANGUAGE", &c.OCR.Language)
	str("TESSDATA_PREFIX", &c.OCR.TessdataPrefix)
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("ASSIST_PROVIDER", &c.Assist.Provider)
	str("ASSIST_MODEL", &c.Assist.Model)
	str("ASSIST_BASE_URL", &c.Assist.BaseURL)

	if v, ok := lookup(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%sWORKERS: invalid value %q", EnvPrefix, v)
		}
		c.Batch.Workers = n
	}
	flags := []struct {
		name string
		dst  *bool
	}{
		{"ASSIST_ENABLED", &c.Assist.Enabled},
		{"PREPROCESS_DISABLED", &c.Preprocess.Disabled},
	}
	for _, f := range flags {
		v, ok := lookup(EnvPrefix + f.name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid value %q", EnvPrefix, f.name, v)
		}
		*f.dst = b
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	e := c.Extraction
	if e.PickMin > e.PickMax {
		return fmt.Errorf("extraction: pick_min %d exceeds pick_max %d", e.PickMin, e.PickMax)
	}
	for _, r := range e.PreferredPicks {
		if r.Min > r.Max {
			return fmt.Errorf("extraction: preferred pick range %d-%d is inverted", r.Min, r.Max)
		}
	}
	if _, err := regexp.Compile(e.FloorPattern); err != nil {
		return fmt.Errorf("extraction: floor_pattern: %w", err)
	}
	ratios := []struct {
		name string
		v    float64
	}{
		{"extraction.source_similarity", e.SourceSimilarity},
		{"lookup.full_threshold", c.Lookup.FullThreshold},
		{"lookup.name_threshold", c.Lookup.NameThreshold},
		{"lookup.strength_weight", c.Lookup.StrengthWeight},
		{"lookup.substring_score", c.Lookup.SubstringScore},
	}
	for _, r := range ratios {
		if r.v <= 0 || r.v > 1 {
			return fmt.Errorf("%s: %v outside (0, 1]", r.name, r.v)
		}
	}
	if _, err := c.Reference.ResolvedKind(); err != nil {
		return err
	}
	switch strings.ToLower(c.Assist.Provider) {
	case "openai", "ollama":
	default:
		return fmt.Errorf("assist: unknown provider %q", c.Assist.Provider)
	}
	return nil
}

// Reference kinds.
const (
	KindCSV    = "csv"
	KindXLSX   = "xlsx"
	KindSQLite = "sqlite"
)

// ErrUnknownKind is returned for a reference table of unsupported type.
var ErrUnknownKind = errors.New("unknown reference kind")

// ResolvedKind returns the configured kind, or the one implied by the file
// extension. An unset path resolves to "".
func (r ReferenceConfig) ResolvedKind() (string, error) {
	kind := strings.ToLower(r.Kind)
	if kind == "" {
		if r.Path == "" {
			return "", nil
		}
		switch ext := strings.ToLower(r.Path[strings.LastIndex(r.Path, ".")+1:]); ext {
		case "csv", "txt":
			kind = KindCSV
		case "xlsx", "xlsm":
			kind = KindXLSX
		case "db", "sqlite", "sqlite3":
			kind = KindSQLite
		default:
			return "", fmt.Errorf("reference %s: %w", r.Path, ErrUnknownKind)
		}
	}
	switch kind {
	case KindCSV, KindXLSX, KindSQLite:
		return kind, nil
	}
	return "", fmt.Errorf("reference kind %q: %w", r.Kind, ErrUnknownKind)
}

// ExtractOptions maps the extraction and batch sections onto engine options.
func (c *Config) ExtractOptions() extract.Options {
	e := c.Extraction
	return extract.Options{
		Layout: detection.Options{
			HeaderWindow:   e.HeaderWindow,
			BandPad:        e.BandPad,
			DescriptionPad: e.DescriptionPad,
			PickInferNear:  e.PickInferNear,
			PickInferFar:   e.PickInferFar,
		},
		RowTolerance:        e.RowTolerance,
		FloorPattern:        e.FloorPattern,
		FormulaTolerance:    e.FormulaTolerance,
		PreferredPicks:      e.PreferredPicks,
		PickMin:             e.PickMin,
		PickMax:             e.PickMax,
		SourceSimilarity:    e.SourceSimilarity,
		TitleCaseNames:      e.TitleCaseNames,
		DisableLineFallback: e.LineFallback != nil && !*e.LineFallback,
		IVRoster:            e.IVRoster,
		FormCorrections:     e.FormCorrections,
		Workers:             c.Batch.Workers,
	}
}

// LookupOptions maps the lookup section onto resolver options.
func (c *Config) LookupOptions() locate.Options {
	l := c.Lookup
	return locate.Options{
		FullThreshold:    l.FullThreshold,
		NameThreshold:    l.NameThreshold,
		StrengthWeight:   l.StrengthWeight,
		SubstringScore:   l.SubstringScore,
		CandidateFloor:   l.CandidateFloor,
		FridgeKeywords:   l.FridgeKeywords,
		CodeDescriptions: l.CodeDescriptions,
	}
}
