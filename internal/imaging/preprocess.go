package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// PreprocessOptions controls photo cleanup before OCR. Zero fields take the
// defaults noted.
type PreprocessOptions struct {
	// MinWidth upscales narrower photos so glyphs reach a size Tesseract
	// reads reliably (1800).
	MinWidth int
	// Contrast is the imaging.AdjustContrast percentage. Zero measures the
	// photo and picks a boost with AutoContrast.
	Contrast float64
	// SharpenSigma is the unsharp radius (1.0). Negative disables sharpening.
	SharpenSigma float64
	// Denoise applies a light Gaussian blur before thresholding.
	Denoise bool
	// Binarize thresholds the page to black and white at Otsu's level.
	Binarize bool
}

func (o PreprocessOptions) withDefaults() PreprocessOptions {
	if o.MinWidth <= 0 {
		o.MinWidth = 1800
	}
	if o.SharpenSigma == 0 {
		o.SharpenSigma = 1.0
	}
	return o
}

// PreprocessReport records what Preprocess did.
type PreprocessReport struct {
	OriginalWidth  int            `json:"original_width"`
	OriginalHeight int            `json:"original_height"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Scale          float64        `json:"scale"`
	Contrast       ContrastReport `json:"contrast"`
	ContrastBoost  float64        `json:"contrast_boost"`
	Threshold      uint8          `json:"threshold,omitempty"`
}

// Preprocess prepares a pick-list photo for OCR: grayscale, upscale small
// photos, boost contrast, sharpen, and optionally denoise and binarize.
//
// Word boxes reported by OCR on the result are in the coordinates of the
// returned image, which is what the extraction engine consumes.
func Preprocess(img image.Image, opts PreprocessOptions) (image.Image, PreprocessReport) {
	opts = opts.withDefaults()
	b := img.Bounds()
	report := PreprocessReport{OriginalWidth: b.Dx(), OriginalHeight: b.Dy(), Scale: 1}
	if b.Empty() {
		return img, report
	}

	out := imaging.Grayscale(img)
	if w := out.Bounds().Dx(); w < opts.MinWidth {
		out = imaging.Resize(out, opts.MinWidth, 0, imaging.Lanczos)
		report.Scale = float64(opts.MinWidth) / float64(w)
	}

	report.Contrast = MeasureContrast(out)
	boost := opts.Contrast
	if boost == 0 {
		boost = report.Contrast.AutoContrast()
	}
	if boost != 0 {
		out = imaging.AdjustContrast(out, boost)
	}
	report.ContrastBoost = boost

	if opts.SharpenSigma > 0 {
		out = imaging.Sharpen(out, opts.SharpenSigma)
	}

	var final image.Image = out
	if opts.Denoise {
		final = blur.Gaussian(final, 0.8)
	}
	if opts.Binarize {
		level := OtsuLevel(final)
		final = segment.Threshold(final, level)
		report.Threshold = level
	}

	fb := final.Bounds()
	report.Width, report.Height = fb.Dx(), fb.Dy()
	return final, report
}

// OtsuLevel returns the gray level that best separates ink from paper by
// maximizing between-class variance.
func OtsuLevel(img image.Image) uint8 {
	var hist [256]int
	b := img.Bounds()
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			hist[g.Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}
	var (
		sumB, best float64
		weightB    int
		level      = 128
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best, level = between, t
		}
	}
	// pixels at or above the level become white
	return uint8(min(level+1, 255))
}
