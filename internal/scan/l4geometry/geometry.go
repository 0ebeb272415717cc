package l4geometry

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l3columns"
)

// Color is an 8-bit RGB point colour.
type Color struct {
	R, G, B uint8
}

// Batch is one frame's mapped points. Rho keeps the signed radial distance of
// each point for the ROI filter; all three slices have the same length.
type Batch struct {
	Points []r3.Vector
	Colors []Color
	Rho    []float64
}

// Len returns the number of points in the batch.
func (b Batch) Len() int { return len(b.Points) }

// Map converts row samples into 3D points rotated by angleDeg about the
// platform axis. The sample row is truncated to a pixel index. Samples
// outside the tables or on the singular column are skipped. colorSource is
// sampled at the same pixel in its own coordinate space; nil yields black.
func Map(samples []l3columns.Sample, angleDeg float64, tables *l1calib.LookupTables, colorSource image.Image, zOffset float64) Batch {
	out := Batch{
		Points: make([]r3.Vector, 0, len(samples)),
		Colors: make([]Color, 0, len(samples)),
		Rho:    make([]float64, 0, len(samples)),
	}
	if tables == nil {
		return out
	}

	theta := angleDeg * math.Pi / 180.0
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	var cb image.Rectangle
	if colorSource != nil {
		cb = colorSource.Bounds()
	}

	for _, s := range samples {
		if math.IsNaN(s.Row) || s.Row < 0 {
			continue
		}
		v, i := int(s.Row), s.Col
		if !tables.Contains(v, i) || tables.Singular(v, i) {
			continue
		}
		rho := tables.Rho(v, i)
		out.Points = append(out.Points, r3.Vector{
			X: rho * cosT,
			Y: rho * sinT,
			Z: tables.Z(v, i) + zOffset,
		})
		out.Rho = append(out.Rho, rho)

		var c Color
		if colorSource != nil {
			n := color.NRGBAModel.Convert(colorSource.At(cb.Min.X+i, cb.Min.Y+v)).(color.NRGBA)
			c = Color{R: n.R, G: n.G, B: n.B}
		}
		out.Colors = append(out.Colors, c)
	}
	return out
}
