package l1calib

import (
	"fmt"
	"math"
)

// Params holds the camera intrinsics and the laser geometry of the rig.
type Params struct {
	// Camera intrinsics, in pixels.
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`

	// Laser geometry.
	Zs       float64 `json:"zs"`        // stripe height offset
	Ho       float64 `json:"ho"`        // mount height
	AlphaDeg float64 `json:"alpha_deg"` // laser plane angle, degrees, in (0, 90)
}

// DefaultParams returns the factory calibration of the reference rig.
func DefaultParams() Params {
	return Params{
		Fx:       1150,
		Fy:       1150,
		Cx:       269,
		Cy:       240,
		Zs:       270,
		Ho:       50,
		AlphaDeg: 60,
	}
}

// CalibrationError reports an invalid geometric parameter. A scan cannot
// start while the calibration is invalid.
type CalibrationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration: %s=%g: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the invariants the lookup table equations depend on.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"fx", p.Fx}, {"fy", p.Fy}, {"cx", p.Cx}, {"cy", p.Cy},
		{"zs", p.Zs}, {"ho", p.Ho}, {"alpha_deg", p.AlphaDeg},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &CalibrationError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}
	for _, f := range fields[:4] {
		if f.v <= 0 {
			return &CalibrationError{Field: f.name, Value: f.v, Reason: "intrinsics must be positive"}
		}
	}
	if p.AlphaDeg <= 0 || p.AlphaDeg >= 90 {
		return &CalibrationError{Field: "alpha_deg", Value: p.AlphaDeg, Reason: "must be in (0, 90)"}
	}
	return nil
}

// alphaRad returns the laser plane angle in radians.
func (p Params) alphaRad() float64 {
	return p.AlphaDeg * math.Pi / 180.0
}
