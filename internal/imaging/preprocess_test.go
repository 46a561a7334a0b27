package imaging

import (
	"image"
	"image/color"
	"testing"
)

// textLikeImage draws dark horizontal strokes on light paper.
func textLikeImage(width, height int, ink, paper uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := paper
			if y%10 < 2 && x%7 < 5 {
				v = ink
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestMeasureContrast(t *testing.T) {
	tests := []struct {
		name       string
		ink, paper uint8
		minSpread  float64
		maxSpread  float64
	}{
		{"crisp printout", 0, 255, 0.95, 1.0},
		{"faded photo", 110, 170, 0.1, 0.35},
		{"blank page", 200, 200, 0, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MeasureContrast(textLikeImage(140, 100, tt.ink, tt.paper))
			if r.Spread < tt.minSpread || r.Spread > tt.maxSpread {
				t.Errorf("Spread = %v, want in [%v, %v]", r.Spread, tt.minSpread, tt.maxSpread)
			}
			if r.InkL > r.PaperL {
				t.Errorf("InkL %v above PaperL %v", r.InkL, r.PaperL)
			}
		})
	}
}

func TestMeasureContrast_Empty(t *testing.T) {
	r := MeasureContrast(image.NewGray(image.Rect(0, 0, 0, 0)))
	if r != (ContrastReport{}) {
		t.Errorf("empty image report = %+v, want zero", r)
	}
	if r.AutoContrast() != 0 {
		t.Error("empty report should not ask for a boost")
	}
}

func TestMeasureContrast_SamplesLargeImages(t *testing.T) {
	r := MeasureContrast(textLikeImage(1000, 800, 0, 255))
	if r.Samples > 2*maxContrastSamples {
		t.Errorf("Samples = %d, want bounded near %d", r.Samples, maxContrastSamples)
	}
}

func TestAutoContrast(t *testing.T) {
	tests := []struct {
		spread float64
		want   float64
	}{
		{0.9, 0},
		{0.6, 0},
		{0.3, 30},
		{0, 50},
	}
	for _, tt := range tests {
		r := ContrastReport{Spread: tt.spread, Samples: 1}
		if got := r.AutoContrast(); got != tt.want {
			t.Errorf("AutoContrast(spread=%v) = %v, want %v", tt.spread, got, tt.want)
		}
	}
}

func TestPreprocess_UpscalesSmallPhotos(t *testing.T) {
	src := textLikeImage(600, 400, 60, 200)
	out, report := Preprocess(src, PreprocessOptions{MinWidth: 1200})

	b := out.Bounds()
	if b.Dx() != 1200 || b.Dy() != 800 {
		t.Errorf("size = %dx%d, want 1200x800", b.Dx(), b.Dy())
	}
	if report.Scale != 2 {
		t.Errorf("Scale = %v, want 2", report.Scale)
	}
	if report.OriginalWidth != 600 || report.Width != 1200 {
		t.Errorf("report = %+v", report)
	}
	if src.Bounds().Dx() != 600 {
		t.Error("Preprocess modified its input")
	}
}

func TestPreprocess_KeepsLargePhotos(t *testing.T) {
	src := textLikeImage(400, 100, 0, 255)
	_, report := Preprocess(src, PreprocessOptions{MinWidth: 300, SharpenSigma: -1})
	if report.Scale != 1 || report.Width != 400 {
		t.Errorf("report = %+v, want unscaled 400 wide", report)
	}
	if report.ContrastBoost != 0 {
		t.Errorf("crisp page got a contrast boost of %v", report.ContrastBoost)
	}
}

func TestPreprocess_Binarize(t *testing.T) {
	src := textLikeImage(300, 100, 90, 180)
	out, report := Preprocess(src, PreprocessOptions{MinWidth: 300, Binarize: true, Denoise: true})

	if report.Threshold == 0 {
		t.Error("Threshold not recorded")
	}
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(out.At(x, y)).(color.Gray).Y
			if g != 0 && g != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want pure black or white", x, y, g)
			}
		}
	}
}

func TestPreprocess_Empty(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 0, 0))
	out, report := Preprocess(src, PreprocessOptions{})
	if out != image.Image(src) || report.Scale != 1 {
		t.Errorf("empty image was processed: %+v", report)
	}
}

func TestOtsuLevel(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 1))
	for x := 0; x < 100; x++ {
		v := uint8(40)
		if x >= 30 {
			v = 220
		}
		img.SetGray(x, 0, color.Gray{Y: v})
	}
	level := OtsuLevel(img)
	if level <= 40 || level > 220 {
		t.Errorf("OtsuLevel = %d, want between the two modes", level)
	}
}
