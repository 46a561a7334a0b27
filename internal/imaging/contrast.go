package imaging

import (
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ContrastReport describes how far ink stands out from paper.
//
// Lightness values are CIE L* scaled to 0-1, measured with go-colorful so
// that coloured highlighter and grey paper are judged the way the eye sees
// them rather than by raw RGB distance.
type ContrastReport struct {
	// InkL is the 5th percentile lightness, the darkest strokes.
	InkL float64 `json:"ink_l"`
	// PaperL is the 95th percentile lightness, the page background.
	PaperL float64 `json:"paper_l"`
	// Spread is PaperL - InkL. Clean printouts score above 0.6.
	Spread float64 `json:"spread"`
	// Samples is the number of pixels measured.
	Samples int `json:"samples"`
}

// maxContrastSamples bounds the pixels read from large photos.
const maxContrastSamples = 40000

// MeasureContrast samples the image on a regular grid and reports the
// lightness of ink and paper. An empty image yields a zero report.
func MeasureContrast(img image.Image) ContrastReport {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return ContrastReport{}
	}
	step := 1
	if total > maxContrastSamples {
		step = int(math.Ceil(math.Sqrt(float64(total) / maxContrastSamples)))
	}

	ls := make([]float64, 0, min(total, maxContrastSamples*2))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// fully transparent; treat as paper
				ls = append(ls, 1)
				continue
			}
			l, _, _ := c.Lab()
			ls = append(ls, math.Min(math.Max(l, 0), 1))
		}
	}
	sort.Float64s(ls)

	ink := percentile(ls, 0.05)
	paper := percentile(ls, 0.95)
	return ContrastReport{
		InkL:    round3(ink),
		PaperL:  round3(paper),
		Spread:  round3(paper - ink),
		Samples: len(ls),
	}
}

// AutoContrast returns the percentage boost for imaging.AdjustContrast that
// brings a faint photo up to a readable spread. Sharp printouts get 0.
func (r ContrastReport) AutoContrast() float64 {
	const target = 0.6
	if r.Samples == 0 || r.Spread >= target {
		return 0
	}
	boost := (target - r.Spread) / target * 60
	return math.Round(math.Min(boost, 50))
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(math.Round(p * float64(len(sorted)-1)))
	return sorted[i]
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
