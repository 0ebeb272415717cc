package l1calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LookupTables holds the per-pixel radial distance and height derived from a
// calibration. Both matrices are height×width (row, column). Tables are
// immutable once built; rebuild them when the calibration or the image size
// changes.
type LookupTables struct {
	params Params
	width  int
	height int

	rho *mat.Dense
	z   *mat.Dense
}

// DeriveLookupTables evaluates the laser-plane triangulation model for every
// pixel of a width×height image.
//
// Columns where u+B == 0 have no defined radius; both tables hold NaN there
// and Singular reports true for them.
func DeriveLookupTables(p Params, width, height int) (*LookupTables, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, &CalibrationError{
			Field:  "image_width",
			Value:  float64(width),
			Reason: fmt.Sprintf("image dimensions must be positive, got %dx%d", width, height),
		}
	}
	if height <= 0 {
		return nil, &CalibrationError{
			Field:  "image_height",
			Value:  float64(height),
			Reason: fmt.Sprintf("image dimensions must be positive, got %dx%d", width, height),
		}
	}

	alpha := p.alphaRad()
	sinAlpha := math.Sin(alpha)
	A := p.Zs / sinAlpha
	B := p.Fx / math.Tan(alpha)

	// rho depends only on the column.
	rhoCol := make([]float64, width)
	for i := 0; i < width; i++ {
		u := float64(i) - p.Cx
		den := u + B
		if den == 0 {
			rhoCol[i] = math.NaN()
			continue
		}
		rhoCol[i] = A * u / den
	}

	rhoData := make([]float64, width*height)
	zData := make([]float64, width*height)
	for j := 0; j < height; j++ {
		v := p.Cy - float64(j)
		row := j * width
		for i := 0; i < width; i++ {
			rho := rhoCol[i]
			rhoData[row+i] = rho
			zData[row+i] = p.Ho + (p.Zs-rho*sinAlpha)*v/p.Fy
		}
	}

	return &LookupTables{
		params: p,
		width:  width,
		height: height,
		rho:    mat.NewDense(height, width, rhoData),
		z:      mat.NewDense(height, width, zData),
	}, nil
}

// Dims returns the image size the tables were built for.
func (t *LookupTables) Dims() (width, height int) { return t.width, t.height }

// Params returns the calibration the tables were built from.
func (t *LookupTables) Params() Params { return t.params }

// Matches reports whether the tables were built for exactly this calibration
// and image size.
func (t *LookupTables) Matches(p Params, width, height int) bool {
	return t != nil && t.params == p && t.width == width && t.height == height
}

// Rho returns the radial distance of pixel (row, col).
func (t *LookupTables) Rho(row, col int) float64 { return t.rho.At(row, col) }

// Z returns the height of pixel (row, col).
func (t *LookupTables) Z(row, col int) float64 { return t.z.At(row, col) }

// Contains reports whether (row, col) lies inside the tables.
func (t *LookupTables) Contains(row, col int) bool {
	return row >= 0 && row < t.height && col >= 0 && col < t.width
}

// Singular reports whether the pixel sits on the model's singular column.
func (t *LookupTables) Singular(row, col int) bool {
	return math.IsNaN(t.rho.At(row, col))
}

// RhoMatrix exposes the radial table read-only.
func (t *LookupTables) RhoMatrix() mat.Matrix { return t.rho }

// ZMatrix exposes the height table read-only.
func (t *LookupTables) ZMatrix() mat.Matrix { return t.z }
