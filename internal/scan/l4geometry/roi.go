package l4geometry

import (
	"fmt"

	"github.com/banshee-data/laserscan/internal/scan/l2segment"
)

// ConfigError is shared with the segmentation settings.
type ConfigError = l2segment.ConfigError

// RangeConfig bounds the cylindrical region of interest.
type RangeConfig struct {
	RhoMin float64 `json:"rho_min"`
	RhoMax float64 `json:"rho_max"`
	HMin   float64 `json:"h_min"`
	HMax   float64 `json:"h_max"`
}

// DefaultRangeConfig returns the reference platform bounds.
func DefaultRangeConfig() RangeConfig {
	return RangeConfig{RhoMin: -60, RhoMax: 60, HMin: 0, HMax: 80}
}

// Validate requires RhoMin < RhoMax and HMin < HMax.
func (c RangeConfig) Validate() error {
	if !(c.RhoMin < c.RhoMax) {
		return &ConfigError{Field: "rho", Reason: fmt.Sprintf("rho_min %g must be < rho_max %g", c.RhoMin, c.RhoMax)}
	}
	if !(c.HMin < c.HMax) {
		return &ConfigError{Field: "h", Reason: fmt.Sprintf("h_min %g must be < h_max %g", c.HMin, c.HMax)}
	}
	return nil
}

// Contains applies the strict ROI predicate.
func (c RangeConfig) Contains(rho, z float64) bool {
	return c.HMin < z && z < c.HMax && c.RhoMin < rho && rho < c.RhoMax
}

// Filter keeps the points strictly inside the region, preserving order. An
// empty result is not an error.
func Filter(b Batch, c RangeConfig) Batch {
	out := Batch{
		Points: b.Points[:0:0],
		Colors: b.Colors[:0:0],
		Rho:    b.Rho[:0:0],
	}
	for k := range b.Points {
		if !c.Contains(b.Rho[k], b.Points[k].Z) {
			continue
		}
		out.Points = append(out.Points, b.Points[k])
		out.Colors = append(out.Colors, b.Colors[k])
		out.Rho = append(out.Rho, b.Rho[k])
	}
	return out
}
