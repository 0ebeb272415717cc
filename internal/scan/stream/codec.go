package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

// pointSize is the encoded size of one point: x, y, z as float64 then r, g, b.
const pointSize = 3*8 + 3

// ErrShortPayload is returned when a payload ends before its declared count.
var ErrShortPayload = errors.New("stream: short delta payload")

// EncodeDelta packs d as a little-endian uint32 point count followed by the
// points.
func EncodeDelta(d l5cloud.Delta) []byte {
	n := len(d.Points)
	buf := make([]byte, 4+n*pointSize)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	off := 4
	for i, p := range d.Points {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(p.Z))
		c := d.Colors[i]
		buf[off+24], buf[off+25], buf[off+26] = c.R, c.G, c.B
		off += pointSize
	}
	return buf
}

// DecodeDelta reverses EncodeDelta.
func DecodeDelta(b []byte) (l5cloud.Delta, error) {
	if len(b) < 4 {
		return l5cloud.Delta{}, ErrShortPayload
	}
	n := int(binary.LittleEndian.Uint32(b))
	body := b[4:]
	if len(body) != n*pointSize {
		if len(body) < n*pointSize {
			return l5cloud.Delta{}, fmt.Errorf("%w: %d points need %d bytes, have %d", ErrShortPayload, n, n*pointSize, len(body))
		}
		return l5cloud.Delta{}, fmt.Errorf("stream: %d trailing bytes after %d points", len(body)-n*pointSize, n)
	}

	d := l5cloud.Delta{
		Points: make([]r3.Vector, n),
		Colors: make([]l5cloud.Color, n),
	}
	for i := 0; i < n; i++ {
		p := body[i*pointSize:]
		d.Points[i] = r3.Vector{
			X: math.Float64frombits(binary.LittleEndian.Uint64(p)),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(p[8:])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(p[16:])),
		}
		d.Colors[i] = l5cloud.Color{R: p[24], G: p[25], B: p[26]}
	}
	return d, nil
}
