// Package assist asks a language model whether extracted medication names
// are real. It implements extract.NameChecker and is strictly advisory: the
// engine keeps every record when the model errors or times out.
package assist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/HabtB/Pharmacy-Pickup/internal/config"
	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("empty model response")

const systemPrompt = "You are a pharmacy expert who verifies medication names."

// Options tunes a Checker. Zero fields take the defaults noted.
type Options struct {
	Timeout   time.Duration // per attempt (15s)
	Retries   int           // extra attempts after the first
	Backoff   time.Duration // first retry delay, doubled each time (500ms)
	MaxTokens int           // (1000)
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1000
	}
	return o
}

// Checker verifies names with an llms.Model.
type Checker struct {
	llm  llms.Model
	opts Options
}

var _ extract.NameChecker = (*Checker)(nil)

// New wraps llm.
func New(llm llms.Model, opts Options) *Checker {
	return &Checker{llm: llm, opts: opts.withDefaults()}
}

// NewFromConfig builds the model client named by cfg.Provider.
func NewFromConfig(cfg config.AssistConfig) (*Checker, error) {
	var (
		llm llms.Model
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if key := os.Getenv(cfg.APIKeyEnv); key != "" {
			opts = append(opts, openai.WithToken(key))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("assist: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("assist: create %s client: %w", cfg.Provider, err)
	}
	return New(llm, Options{Timeout: cfg.Timeout, Retries: cfg.Retries}), nil
}

// CheckNames returns one verdict per name. Names the model does not answer
// for are VerdictUnknown.
func (c *Checker) CheckNames(ctx context.Context, names []string) ([]extract.Verdict, error) {
	if len(names) == 0 {
		return nil, nil
	}
	msgs := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, Prompt(names)),
	}

	log := logging.Logger()
	delay := c.opts.Backoff
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		content, err := c.generate(ctx, msgs)
		if err == nil {
			verdicts := ParseVerdicts(content, len(names))
			log.Debug("name check answered", "names", len(names), "attempt", attempt+1)
			return verdicts, nil
		}
		lastErr = err
		log.Warn("name check failed", "attempt", attempt+1, "error", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("assist: %d attempts: %w", c.opts.Retries+1, lastErr)
}

func (c *Checker) generate(ctx context.Context, msgs []llms.MessageContent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	resp, err := c.llm.GenerateContent(ctx, msgs,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(c.opts.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// Prompt renders the numbered verification request for names.
func Prompt(names []string) string {
	var b strings.Builder
	b.WriteString(`Review this list of extracted medication names and identify which ones are real medications and which are fragments or errors.

Rules:
- VALID: real medication names, generic or brand, including combinations like "amiodarone in D5W"
- INVALID: fragments like "g (100 mL)", single units, form words only ("vial", "tablet"), incomplete names
- INVALID: brand and generic that do not belong together, e.g. "atorvastatin (ZOFRAN)"

Medication names to verify:
`)
	for i, n := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n)
	}
	b.WriteString(`
Respond with one line per medication in exactly this format:
1. VALID - reason
2. INVALID - reason
`)
	return b.String()
}

var verdictLine = regexp.MustCompile(`(?i)^\s*(\d+)\s*[.)]\s*\**\s*(INVALID|VALID)\b`)

// ParseVerdicts reads "N. VALID|INVALID - reason" lines. Out-of-range and
// unparsable lines are ignored; the first answer for an index wins.
func ParseVerdicts(content string, n int) []extract.Verdict {
	out := make([]extract.Verdict, n)
	for _, line := range strings.Split(content, "\n") {
		m := verdictLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		i, err := strconv.Atoi(m[1])
		if err != nil || i < 1 || i > n || out[i-1] != extract.VerdictUnknown {
			continue
		}
		if strings.EqualFold(m[2], "INVALID") {
			out[i-1] = extract.VerdictInvalid
		} else {
			out[i-1] = extract.VerdictValid
		}
	}
	return out
}
