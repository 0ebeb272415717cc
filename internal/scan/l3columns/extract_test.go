package l3columns

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskWith(w, h int, on ...image.Point) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	for _, p := range on {
		m.SetGray(p.X, p.Y, color.Gray{Y: 255})
	}
	return m
}

func band(col, fromRow, n int) []image.Point {
	pts := make([]image.Point, n)
	for i := range pts {
		pts[i] = image.Pt(col, fromRow+i)
	}
	return pts
}

func TestExtractCompact_SinglePixel(t *testing.T) {
	t.Parallel()
	mask := maskWith(300, 200, image.Pt(150, 100))

	got, err := Extract(mask, nil, Compact)
	require.NoError(t, err)
	want := []Sample{{Col: 150, Row: 100}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCompact_BandCentre(t *testing.T) {
	t.Parallel()
	mask := maskWith(4, 20, band(1, 10, 5)...)
	mask.SetGray(3, 4, color.Gray{Y: 255})
	mask.SetGray(3, 5, color.Gray{Y: 255})

	got, err := Extract(mask, nil, Compact)
	require.NoError(t, err)
	want := []Sample{
		{Col: 1, Row: 12},  // 10 + (5-1)/2
		{Col: 3, Row: 4.5}, // 4 + (2-1)/2
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCompact_TwoBandsYieldOneEstimate(t *testing.T) {
	t.Parallel()
	on := append(band(2, 3, 5), band(2, 20, 5)...)
	mask := maskWith(5, 30, on...)

	got, err := Extract(mask, nil, Compact)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// argmax picks the first band (row 3), the correction uses all ten "on"
	// pixels: 3 + (10-1)/2.
	assert.Equal(t, 2, got[0].Col)
	assert.Equal(t, 7.5, got[0].Row)
}

func TestExtract_EmptyMask(t *testing.T) {
	t.Parallel()
	mask := maskWith(16, 16)
	for _, mode := range []Mode{Compact, Weighted} {
		got, err := Extract(mask, nil, mode)
		require.NoError(t, err)
		assert.Empty(t, got, "mode %v", mode)
	}
}

func TestExtractWeighted_IntensityCentroid(t *testing.T) {
	t.Parallel()
	mask := maskWith(3, 10, band(1, 2, 3)...)
	weights := image.NewGray(image.Rect(0, 0, 3, 10))
	weights.SetGray(1, 2, color.Gray{Y: 10})
	weights.SetGray(1, 3, color.Gray{Y: 10})
	weights.SetGray(1, 4, color.Gray{Y: 80})
	// outside the mask, ignored
	weights.SetGray(1, 9, color.Gray{Y: 255})

	got, err := Extract(mask, weights, Weighted)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// (2*10 + 3*10 + 4*80) / 100
	assert.InDelta(t, 3.7, got[0].Row, 1e-12)
}

func TestExtractWeighted_FallsBackToMask(t *testing.T) {
	t.Parallel()
	mask := maskWith(3, 10, band(0, 2, 4)...)
	mask.SetGray(2, 7, color.Gray{Y: 255})
	dark := image.NewGray(image.Rect(0, 0, 3, 10))

	for _, w := range []image.Image{nil, dark} {
		got, err := Extract(mask, w, Weighted)
		require.NoError(t, err)
		want := []Sample{{Col: 0, Row: 3.5}, {Col: 2, Row: 7}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Extract mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()
	_, err := Extract(nil, nil, Compact)
	assert.Error(t, err)

	_, err = Extract(maskWith(4, 4), image.NewGray(image.Rect(0, 0, 5, 4)), Weighted)
	assert.Error(t, err)

	_, err = Extract(maskWith(4, 4), nil, Mode(7))
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"compact", Compact, false},
		{"Weighted", Weighted, false},
		{"", Compact, false},
		{"median", Compact, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.String(), got.String())
	}
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
