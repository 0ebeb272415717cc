package pipeline

import (
	"fmt"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l2segment"
	"github.com/banshee-data/laserscan/internal/scan/l3columns"
	"github.com/banshee-data/laserscan/internal/scan/l4geometry"
)

// Settings is the full engine configuration applied by Configure.
type Settings struct {
	Calibration  l1calib.Params
	Segmentation l2segment.Config
	Range        l4geometry.RangeConfig
	Mode         l3columns.Mode

	// ZOffset is added to every mapped Z (platform height correction).
	ZOffset float64
}

// DefaultSettings returns the reference calibration, segmentation and ROI
// with compact extraction.
func DefaultSettings() Settings {
	return Settings{
		Calibration:  l1calib.DefaultParams(),
		Segmentation: l2segment.DefaultConfig(),
		Range:        l4geometry.DefaultRangeConfig(),
		Mode:         l3columns.Compact,
	}
}

// Validate checks every section. Calibration failures are
// *l1calib.CalibrationError; the rest are *l2segment.ConfigError.
func (s Settings) Validate() error {
	if err := s.Calibration.Validate(); err != nil {
		return err
	}
	if err := s.Segmentation.Validate(); err != nil {
		return err
	}
	if err := s.Range.Validate(); err != nil {
		return err
	}
	switch s.Mode {
	case l3columns.Compact, l3columns.Weighted:
	default:
		return &l2segment.ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown extraction mode %d", int(s.Mode))}
	}
	return nil
}
