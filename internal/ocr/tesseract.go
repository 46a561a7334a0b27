package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// Word is one recognized word with its location and confidence.
type Word struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds detection.Bounds `json:"bounds"`
}

// Result contains the complete results of text extraction from an image.
type Result struct {
	// FullText is all recognized text with original spacing and newlines.
	FullText string `json:"full_text"`

	// Words may be empty if bounding box extraction fails; the text is
	// still in FullText.
	Words []Word `json:"words"`
}

// Tokens returns the words at or above minConfidence as engine tokens.
func (r *Result) Tokens(minConfidence float64) []detection.WordToken {
	out := make([]detection.WordToken, 0, len(r.Words))
	for _, w := range r.Words {
		if w.Confidence < minConfidence {
			continue
		}
		out = append(out, detection.WordToken{Text: w.Text, Bounds: w.Bounds})
	}
	return out
}

// Options configures an Engine.
type Options struct {
	// Language is a Tesseract language code such as "eng" (the default).
	Language string
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
	// MinConfidence drops words below this score when building pages.
	MinConfidence float64
}

// Engine runs Tesseract. A new client is created per call, so an Engine is
// safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an Engine for opts.
func NewEngine(opts Options) *Engine {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Engine{opts: opts}
}

func (e *Engine) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if e.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(e.opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}

// ExtractFile performs OCR on an image file. Supported formats are those
// Tesseract reads directly: PNG, JPEG, TIFF, BMP.
func (e *Engine) ExtractFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := e.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(ctx, client)
}

// ExtractImage performs OCR on a decoded image, typically one that has been
// preprocessed in memory.
func (e *Engine) ExtractImage(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	client, err := e.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(ctx, client)
}

// ExtractRegion performs OCR on one rectangle of img. Word bounds in the
// result are relative to img, not to the crop.
func (e *Engine) ExtractRegion(ctx context.Context, img image.Image, region image.Rectangle) (*Result, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("region %v lies outside the image", region)
	}
	res, err := e.ExtractImage(ctx, imaging.Crop(img, region))
	if err != nil {
		return nil, err
	}
	res.offset(region.Min.X, region.Min.Y)
	return res, nil
}

// ExtractPage runs OCR on a preprocessed image and packages the words as an
// extraction page.
func (e *Engine) ExtractPage(ctx context.Context, id string, img image.Image) (extract.Page, error) {
	res, err := e.ExtractImage(ctx, img)
	if err != nil {
		return extract.Page{}, fmt.Errorf("ocr page %s: %w", id, err)
	}
	page := res.Page(id, e.opts.MinConfidence)
	logging.Logger().Debug("page recognized", "page", id, "words", len(res.Words), "tokens", len(page.Tokens))
	return page, nil
}

// Page converts the result to engine input.
func (r *Result) Page(id string, minConfidence float64) extract.Page {
	return extract.Page{ID: id, Tokens: r.Tokens(minConfidence), FullText: r.FullText}
}

func (r *Result) offset(dx, dy int) {
	for i := range r.Words {
		b := &r.Words[i].Bounds
		b.X1 += dx
		b.Y1 += dy
		b.X2 += dx
		b.Y2 += dy
	}
}

func recognize(ctx context.Context, client *gosseract.Client) (*Result, error) {
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		logging.Logger().Warn("word boxes unavailable", "error", err)
		return &Result{FullText: text, Words: []Word{}}, nil
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		w := strings.TrimSpace(box.Word)
		if w == "" {
			continue
		}
		words = append(words, Word{
			Text:       w,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: detection.Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return &Result{FullText: text, Words: words}, nil
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

// Info reports whether Tesseract and the configured language are usable.
func (e *Engine) Info() Info {
	info := Info{Language: e.opts.Language, Backend: "gosseract"}
	client, err := e.client()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer client.Close()
	info.Available = true
	info.Version = client.Version()
	return info
}
