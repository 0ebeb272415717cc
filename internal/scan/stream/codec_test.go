package stream

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

func TestDeltaCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	d := l5cloud.Delta{
		Points: []r3.Vector{{X: 1, Y: -2, Z: 3.25}, {X: math.Inf(1), Y: math.SmallestNonzeroFloat64, Z: -0}},
		Colors: []l5cloud.Color{{R: 1, G: 2, B: 3}, {R: 255, G: 254, B: 253}},
	}
	b := EncodeDelta(d)
	assert.Len(t, b, 4+2*pointSize)

	got, err := DecodeDelta(b)
	require.NoError(t, err)
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDeltaCodec_Empty(t *testing.T) {
	t.Parallel()
	b := EncodeDelta(l5cloud.Delta{})
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
	got, err := DecodeDelta(b)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestDecodeDelta_Malformed(t *testing.T) {
	t.Parallel()
	one := EncodeDelta(l5cloud.Delta{Points: []r3.Vector{{X: 1}}, Colors: []l5cloud.Color{{}}})

	_, err := DecodeDelta(nil)
	assert.ErrorIs(t, err, ErrShortPayload)

	_, err = DecodeDelta(one[:len(one)-1])
	assert.ErrorIs(t, err, ErrShortPayload)

	_, err = DecodeDelta(append(one, 0))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrShortPayload)
}
