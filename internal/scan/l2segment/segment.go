package l2segment

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Segment runs the configured pipeline over src and returns the binary mask
// (255 inside the HSV window, 0 elsewhere) together with a three-channel
// visualisation of the same mask. Both images are zero-origin and match the
// size of src.
func Segment(src image.Image, cfg Config) (*image.Gray, *image.RGBA, error) {
	if src == nil {
		return nil, nil, fmt.Errorf("segment: nil image")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, nil, fmt.Errorf("segment: empty image bounds %v", b)
	}

	m, err := toMat(src)
	if err != nil {
		return nil, nil, fmt.Errorf("segment: %w", err)
	}
	defer m.Close()
	smoothed := smooth(m, cfg)
	defer smoothed.Close()
	px, err := fromMat(smoothed)
	if err != nil {
		return nil, nil, fmt.Errorf("segment: %w", err)
	}

	w, h := px.Bounds().Dx(), px.Bounds().Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := px.PixOffset(x, y)
			if inRange(ToHSV(px.Pix[o], px.Pix[o+1], px.Pix[o+2]), cfg.ColorMin, cfg.ColorMax) {
				mask.Pix[mask.PixOffset(x, y)] = 0xff
			}
		}
	}
	return mask, Visualize(mask), nil
}

// ToHSV converts an 8-bit RGB triple to the 8-bit HSV convention (hue halved
// to fit [0,180), saturation and value scaled to [0,255]).
func ToHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()

	hh := math.Round(h / 2)
	if hh >= 180 {
		hh -= 180
	}
	return HSV{
		H: uint8(hh),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

func inRange(c, lo, hi HSV) bool {
	return c.H >= lo.H && c.H <= hi.H &&
		c.S >= lo.S && c.S <= hi.S &&
		c.V >= lo.V && c.V <= hi.V
}

// Visualize replicates a mask into the three colour channels of an opaque
// RGBA image, for display only.
func Visualize(mask *image.Gray) *image.RGBA {
	b := mask.Bounds()
	vis := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			o := vis.PixOffset(x, y)
			vis.Pix[o] = v
			vis.Pix[o+1] = v
			vis.Pix[o+2] = v
			vis.Pix[o+3] = 0xff
		}
	}
	return vis
}
