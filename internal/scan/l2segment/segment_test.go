package l2segment

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// laserRed sits inside the default HSV window.
var laserRed = color.RGBA{R: 120, G: 10, B: 10, A: 255}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func thresholdOnly() Config {
	cfg := DefaultConfig()
	cfg.BlurEnable = false
	cfg.OpenEnable = false
	return cfg
}

func TestToHSV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{0, 255, 255}},
		{"green", 0, 255, 0, HSV{60, 255, 255}},
		{"blue", 0, 0, 255, HSV{120, 255, 255}},
		{"grey", 128, 128, 128, HSV{0, 0, 128}},
		{"black", 0, 0, 0, HSV{0, 0, 0}},
		{"dark laser", 120, 10, 10, HSV{0, 234, 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHSV(tt.r, tt.g, tt.b))
		})
	}
}

func TestSegment_Threshold(t *testing.T) {
	t.Parallel()
	img := fill(6, 4, color.RGBA{A: 255})
	img.SetRGBA(2, 1, laserRed)
	img.SetRGBA(5, 3, laserRed)

	mask, vis, err := Segment(img, thresholdOnly())
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 6, 4), mask.Bounds())

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			want := uint8(0)
			if (x == 2 && y == 1) || (x == 5 && y == 3) {
				want = 255
			}
			assert.Equal(t, want, mask.GrayAt(x, y).Y, "mask at (%d,%d)", x, y)

			v := vis.RGBAAt(x, y)
			assert.Equal(t, color.RGBA{want, want, want, 255}, v)
		}
	}
}

func TestSegment_OpeningRemovesSpeckle(t *testing.T) {
	t.Parallel()
	img := fill(20, 20, color.RGBA{A: 255})
	// isolated speckle
	img.SetRGBA(2, 2, laserRed)
	// solid 6x6 block survives a 3x3 opening
	for y := 10; y < 16; y++ {
		for x := 10; x < 16; x++ {
			img.SetRGBA(x, y, laserRed)
		}
	}

	cfg := thresholdOnly()
	cfg.OpenEnable = true
	cfg.OpenKernel = 3

	mask, _, err := Segment(img, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), mask.GrayAt(2, 2).Y, "speckle should be removed")
	for y := 10; y < 16; y++ {
		for x := 10; x < 16; x++ {
			assert.Equal(t, uint8(255), mask.GrayAt(x, y).Y, "block pixel (%d,%d)", x, y)
		}
	}
}

func TestSegment_BlurKeepsUniformImage(t *testing.T) {
	t.Parallel()
	img := fill(7, 5, laserRed)
	cfg := thresholdOnly()
	cfg.BlurEnable = true
	cfg.BlurKernel = 4

	mask, _, err := Segment(img, cfg)
	require.NoError(t, err)
	for _, v := range mask.Pix {
		require.Equal(t, uint8(255), v)
	}
}

func TestSegment_NonZeroOrigin(t *testing.T) {
	t.Parallel()
	full := fill(10, 10, color.RGBA{A: 255})
	full.SetRGBA(5, 6, laserRed)
	sub := full.SubImage(image.Rect(4, 4, 8, 8))

	mask, _, err := Segment(sub, thresholdOnly())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), mask.Bounds())
	assert.Equal(t, uint8(255), mask.GrayAt(1, 2).Y)
}

func TestSegment_InvalidConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"hue inverted", func(c *Config) { c.ColorMin.H, c.ColorMax.H = 100, 10 }, "color.h"},
		{"sat inverted", func(c *Config) { c.ColorMin.S, c.ColorMax.S = 200, 100 }, "color.s"},
		{"val inverted", func(c *Config) { c.ColorMin.V, c.ColorMax.V = 200, 100 }, "color.v"},
		{"blur zero", func(c *Config) { c.BlurKernel = 0 }, "blur_kernel"},
		{"open negative", func(c *Config) { c.OpenKernel = -3 }, "open_kernel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, _, err := Segment(fill(2, 2, laserRed), cfg)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestSegment_NilImage(t *testing.T) {
	t.Parallel()
	_, _, err := Segment(nil, DefaultConfig())
	assert.Error(t, err)
}

func TestSegment_BlurWidensStripe(t *testing.T) {
	t.Parallel()
	img := fill(9, 5, color.RGBA{A: 255})
	for y := 0; y < 5; y++ {
		img.SetRGBA(4, y, laserRed)
	}
	cfg := thresholdOnly()
	cfg.BlurEnable = true
	cfg.BlurKernel = 3

	// A 3x3 box spreads the stripe to (40,3,3), still inside the window.
	mask, _, err := Segment(img, cfg)
	require.NoError(t, err)
	for y := 0; y < 5; y++ {
		for x := 0; x < 9; x++ {
			want := uint8(0)
			if x >= 3 && x <= 5 {
				want = 255
			}
			assert.Equal(t, want, mask.GrayAt(x, y).Y, "pixel (%d,%d)", x, y)
		}
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()
	a := fill(2, 2, color.RGBA{R: 200, G: 10, B: 50, A: 255})
	b := fill(2, 2, color.RGBA{R: 50, G: 40, B: 50, A: 255})

	d, err := Diff(a, b)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 150, G: 30, B: 0, A: 255}, d.NRGBAAt(1, 1))

	_, err = Diff(a, fill(3, 2, laserRed))
	assert.Error(t, err)
	_, err = Diff(nil, b)
	assert.Error(t, err)
}
