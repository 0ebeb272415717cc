package l4geometry

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l3columns"
)

func referenceTables(t *testing.T) *l1calib.LookupTables {
	t.Helper()
	tables, err := l1calib.DeriveLookupTables(l1calib.DefaultParams(), 640, 480)
	require.NoError(t, err)
	return tables
}

func TestMap_SinglePixelClosedForm(t *testing.T) {
	t.Parallel()
	tables := referenceTables(t)

	alpha := 60 * math.Pi / 180
	u := 150.0 - 269
	v := 240.0 - 100
	rho := (270 / math.Sin(alpha)) * u / (u + 1150/math.Tan(alpha))
	z := 50 + (270-rho*math.Sin(alpha))*v/1150

	b := Map([]l3columns.Sample{{Col: 150, Row: 100}}, 0, tables, nil, 0)
	require.Equal(t, 1, b.Len())
	assert.InDelta(t, rho, b.Points[0].X, 1e-9)
	assert.InDelta(t, 0, b.Points[0].Y, 1e-12)
	assert.InDelta(t, z, b.Points[0].Z, 1e-9)
	assert.Equal(t, Color{}, b.Colors[0])
	assert.Equal(t, b.Points[0].X, b.Rho[0])
}

func TestMap_RotationAndOffset(t *testing.T) {
	t.Parallel()
	tables := referenceTables(t)
	s := []l3columns.Sample{{Col: 400, Row: 200.9}}

	base := Map(s, 0, tables, nil, 0)
	quarter := Map(s, 90, tables, nil, 5)
	full := Map(s, 360, tables, nil, 0)
	require.Equal(t, 1, quarter.Len())

	rho := tables.Rho(200, 400)
	assert.InDelta(t, rho, base.Points[0].X, 1e-12)
	assert.InDelta(t, 0, quarter.Points[0].X, 1e-9)
	assert.InDelta(t, rho, quarter.Points[0].Y, 1e-9)
	assert.InDelta(t, tables.Z(200, 400)+5, quarter.Points[0].Z, 1e-12)
	assert.InDelta(t, base.Points[0].X, full.Points[0].X, 1e-9)
	assert.InDelta(t, base.Points[0].Y, full.Points[0].Y, 1e-9)
}

func TestMap_SkipsInvalidSamples(t *testing.T) {
	t.Parallel()
	p := l1calib.DefaultParams()
	p.Cx = p.Fx / math.Tan(p.AlphaDeg*math.Pi/180) // column 0 singular
	tables, err := l1calib.DeriveLookupTables(p, 8, 8)
	require.NoError(t, err)

	samples := []l3columns.Sample{
		{Col: 0, Row: 3},   // singular
		{Col: 1, Row: 3},   // kept
		{Col: 9, Row: 3},   // outside width
		{Col: 2, Row: 8},   // outside height
		{Col: 3, Row: -1},  // negative
		{Col: 4, Row: 2.2}, // kept
	}
	b := Map(samples, 30, tables, nil, 0)
	require.Equal(t, 2, b.Len())
	for _, pt := range b.Points {
		assert.False(t, math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsNaN(pt.Z))
	}
	assert.Len(t, b.Colors, 2)
	assert.Len(t, b.Rho, 2)
}

func TestMap_Colors(t *testing.T) {
	t.Parallel()
	tables := referenceTables(t)
	raw := image.NewRGBA(image.Rect(0, 0, 640, 480))
	raw.SetRGBA(10, 20, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	raw.SetRGBA(11, 30, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	b := Map([]l3columns.Sample{{Col: 10, Row: 20}, {Col: 11, Row: 30.4}}, 0, tables, raw, 0)
	want := []Color{{1, 2, 3}, {200, 100, 50}}
	if diff := cmp.Diff(want, b.Colors); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
}

func TestMap_NilTables(t *testing.T) {
	t.Parallel()
	b := Map([]l3columns.Sample{{Col: 1, Row: 1}}, 0, nil, nil, 0)
	assert.Equal(t, 0, b.Len())
}

func batchOf(pts ...[2]float64) Batch {
	var b Batch
	for i, p := range pts {
		// p = {rho, z}
		b.Points = append(b.Points, r3.Vector{X: p[0], Y: 0, Z: p[1]})
		b.Colors = append(b.Colors, Color{R: uint8(i)})
		b.Rho = append(b.Rho, p[0])
	}
	return b
}

func TestFilter_StrictBounds(t *testing.T) {
	t.Parallel()
	rc := DefaultRangeConfig()
	b := batchOf(
		[2]float64{0, 10},   // keep
		[2]float64{0, 0},    // z == hMin: drop
		[2]float64{60, 10},  // rho == rhoMax: drop
		[2]float64{-60, 10}, // rho == rhoMin: drop
		[2]float64{0, 80},   // z == hMax: drop
		[2]float64{-59.9, 79.9},
		[2]float64{100, 10},
	)

	got := Filter(b, rc)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, uint8(0), got.Colors[0].R)
	assert.Equal(t, uint8(5), got.Colors[1].R)
	assert.Equal(t, -59.9, got.Rho[1])
}

func TestFilter_Idempotent(t *testing.T) {
	t.Parallel()
	rc := RangeConfig{RhoMin: -10, RhoMax: 10, HMin: 1, HMax: 5}
	b := batchOf([2]float64{0, 2}, [2]float64{11, 2}, [2]float64{3, 4}, [2]float64{-3, 0.5})

	once := Filter(b, rc)
	twice := Filter(once, rc)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("filter not idempotent (-once +twice):\n%s", diff)
	}
}

func TestFilter_EmptyResult(t *testing.T) {
	t.Parallel()
	got := Filter(batchOf([2]float64{1000, 1000}), DefaultRangeConfig())
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 0, Filter(Batch{}, DefaultRangeConfig()).Len())
}

func TestRangeConfig_Validate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultRangeConfig().Validate())

	var cfgErr *ConfigError
	err := RangeConfig{RhoMin: 5, RhoMax: 5, HMin: 0, HMax: 1}.Validate()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "rho", cfgErr.Field)

	err = RangeConfig{RhoMin: 0, RhoMax: 5, HMin: 2, HMax: 1}.Validate()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "h", cfgErr.Field)

	assert.Error(t, RangeConfig{RhoMin: math.NaN(), RhoMax: 1, HMax: 1}.Validate())
}
