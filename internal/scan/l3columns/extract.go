package l3columns

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Mode selects the per-column centroid estimator.
type Mode int

const (
	// Compact takes the first maximum of the column and shifts it by half
	// the "on" run length. It assumes one contiguous band per column; with
	// several bands the estimate is biased toward the first one.
	Compact Mode = iota
	// Weighted takes the intensity-weighted mean row of the column.
	Weighted
)

func (m Mode) String() string {
	switch m {
	case Compact:
		return "compact"
	case Weighted:
		return "weighted"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "compact" or "weighted" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact", "":
		return Compact, nil
	case "weighted":
		return Weighted, nil
	default:
		return Compact, fmt.Errorf("unknown extraction mode %q", s)
	}
}

// Sample is the row estimate for one image column.
type Sample struct {
	Col int
	Row float64
}

// Extract returns one Sample per mask column with a nonzero sum, in ascending
// column order. Columns without signal produce nothing.
//
// weights is only read in Weighted mode; it must match the mask size. When it
// is nil, or a column's weights inside the mask sum to zero, the mask itself
// is used as the intensity.
func Extract(mask *image.Gray, weights image.Image, mode Mode) ([]Sample, error) {
	if mask == nil {
		return nil, fmt.Errorf("extract: nil mask")
	}
	mb := mask.Bounds()
	if weights != nil && weights.Bounds().Size() != mb.Size() {
		return nil, fmt.Errorf("extract: weights size %v does not match mask %v",
			weights.Bounds().Size(), mb.Size())
	}

	switch mode {
	case Compact:
		return extractCompact(mask), nil
	case Weighted:
		return extractWeighted(mask, weights), nil
	default:
		return nil, fmt.Errorf("extract: unsupported mode %v", mode)
	}
}

func extractCompact(mask *image.Gray) []Sample {
	b := mask.Bounds()
	var out []Sample
	for x := 0; x < b.Dx(); x++ {
		sum := 0
		argmax, best := 0, -1
		for y := 0; y < b.Dy(); y++ {
			v := int(mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)])
			sum += v
			if v > best {
				best, argmax = v, y
			}
		}
		if sum == 0 {
			continue
		}
		row := float64(argmax) + (float64(sum)/255-1)/2
		out = append(out, Sample{Col: x, Row: row})
	}
	return out
}

func extractWeighted(mask *image.Gray, weights image.Image) []Sample {
	b := mask.Bounds()
	var wb image.Rectangle
	if weights != nil {
		wb = weights.Bounds()
	}

	rows := make([]float64, 0, b.Dy())
	w := make([]float64, 0, b.Dy())
	fallback := make([]float64, 0, b.Dy())

	var out []Sample
	for x := 0; x < b.Dx(); x++ {
		rows, w, fallback = rows[:0], w[:0], fallback[:0]
		total := 0.0
		for y := 0; y < b.Dy(); y++ {
			m := mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)]
			if m == 0 {
				continue
			}
			rows = append(rows, float64(y))
			fallback = append(fallback, float64(m))
			if weights != nil {
				g := color.GrayModel.Convert(weights.At(wb.Min.X+x, wb.Min.Y+y)).(color.Gray)
				w = append(w, float64(g.Y))
				total += float64(g.Y)
			}
		}
		if len(rows) == 0 {
			continue
		}
		colWeights := w
		if weights == nil || total == 0 {
			colWeights = fallback
		}
		out = append(out, Sample{Col: x, Row: stat.Mean(rows, colWeights)})
	}
	return out
}
