package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// ErrStructureNotFound is returned when a page has neither a usable header
// nor text for the line fallback.
var ErrStructureNotFound = detection.ErrStructureNotFound

// Extraction modes reported in PageResult.Mode.
const (
	ModeColumns = "columns"
	ModeLines   = "lines"
	ModeNone    = "none"
)

// Page is one OCR'd page: word boxes plus the recognized full text.
type Page struct {
	ID       string                `json:"id"`
	Tokens   []detection.WordToken `json:"tokens"`
	FullText string                `json:"full_text"`
}

// PageResult is the extraction outcome for one page.
type PageResult struct {
	PageID  string            `json:"page_id"`
	Mode    string            `json:"mode"`
	Layout  *detection.Layout `json:"layout,omitempty"`
	Records []ValidatedRecord `json:"records"`
	// Discarded counts parsed records that did not survive to Records.
	Discarded int      `json:"discarded"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Verdict is a NameChecker's opinion of one name.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictValid
	VerdictInvalid
)

// NameChecker gives a second opinion on extracted names. Implementations
// return one verdict per name, in order.
type NameChecker interface {
	CheckNames(ctx context.Context, names []string) ([]Verdict, error)
}

// Engine turns OCR pages into validated records.
type Engine struct {
	opts       Options
	floors     *detection.FloorMatcher
	assembler  *Assembler
	validator  *Validator
	normalizer *Normalizer
	checker    NameChecker
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithNameChecker installs a NameChecker run after validation.
func WithNameChecker(c NameChecker) EngineOption {
	return func(e *Engine) { e.checker = c }
}

// NewEngine builds an Engine. It fails only on an invalid floor pattern.
func NewEngine(opts Options, options ...EngineOption) (*Engine, error) {
	opts = opts.withDefaults()
	floors, err := detection.NewFloorMatcher(opts.FloorPattern)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		opts:       opts,
		floors:     floors,
		assembler:  NewAssembler(floors),
		validator:  NewValidator(floors, opts),
		normalizer: NewNormalizer(opts),
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Extract runs the full pipeline on one page.
//
// Pages whose header cannot be found fall back to line mode when they carry
// full text. When neither works the result is empty and the error is
// ErrStructureNotFound.
func (e *Engine) Extract(ctx context.Context, page Page) (*PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &PageResult{PageID: page.ID, Mode: ModeNone, Records: []ValidatedRecord{}}
	log := logging.Logger().With("page", page.ID)

	var (
		rows      []detection.Row
		layout    *detection.Layout
		headerEnd = -1
	)
	if len(page.Tokens) > 0 {
		rows = detection.ClusterRows(page.Tokens, e.opts.RowTolerance)
		l, err := detection.ResolveColumns(rows, e.floors, e.opts.Layout)
		switch {
		case err == nil:
			layout, headerEnd = l, l.HeaderEnd
			res.Mode, res.Layout = ModeColumns, l
		case errors.Is(err, detection.ErrStructureNotFound):
			log.Info("no table header found", "rows", len(rows))
		default:
			return nil, fmt.Errorf("resolve columns: %w", err)
		}
	}
	if layout == nil {
		if e.opts.DisableLineFallback || strings.TrimSpace(page.FullText) == "" {
			res.Warnings = append(res.Warnings, ErrStructureNotFound.Error())
			return res, ErrStructureNotFound
		}
		rows = detection.LineRows(page.FullText)
		headerEnd = detection.HeaderEnd(rows, e.floors, e.opts.Layout.HeaderWindow)
		res.Mode = ModeLines
		log.Info("using line fallback", "lines", len(rows))
	}

	candidates := e.assembler.Assemble(rows, layout, headerEnd)
	Disambiguate(candidates, e.opts)

	source := page.FullText
	if strings.TrimSpace(source) == "" {
		texts := make([]string, len(rows))
		for i, r := range rows {
			texts[i] = r.Text()
		}
		source = strings.Join(texts, "\n")
	}
	validated := e.validator.Validate(candidates, source)
	records := e.normalizer.Apply(validated)
	if e.checker != nil {
		records = e.checkNames(ctx, records)
	}

	res.Records = records
	res.Discarded = len(candidates) - len(records)
	log.Debug("page extracted", "mode", res.Mode, "candidates", len(candidates), "records", len(records))
	return res, nil
}

// checkNames drops records the checker explicitly rejects. Any checker
// failure keeps every record.
func (e *Engine) checkNames(ctx context.Context, records []ValidatedRecord) []ValidatedRecord {
	if len(records) == 0 {
		return records
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name()
	}
	verdicts, err := e.checker.CheckNames(ctx, names)
	if err != nil {
		logging.Logger().Warn("name check failed, keeping all records", "error", err)
		return records
	}
	if len(verdicts) != len(records) {
		logging.Logger().Warn("name check returned wrong verdict count, keeping all records",
			"want", len(records), "got", len(verdicts))
		return records
	}
	out := records[:0:0]
	for i, r := range records {
		if verdicts[i] == VerdictInvalid {
			logging.Logger().Info("record rejected by name check", "record", r.Name(), "floor", r.Floor())
			continue
		}
		out = append(out, r)
	}
	return out
}
