package l2segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Diff returns the per-channel absolute difference of two equally sized
// frames, typically the laser-on and laser-off captures at one angle.
func Diff(a, b image.Image) (*image.NRGBA, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("diff: nil image")
	}
	if a.Bounds().Size() != b.Bounds().Size() {
		return nil, fmt.Errorf("diff: size mismatch %v vs %v", a.Bounds().Size(), b.Bounds().Size())
	}
	ma, err := toMat(a)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	defer ma.Close()
	mb, err := toMat(b)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	defer mb.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.AbsDiff(ma, mb, &out)
	return fromMat(out)
}
