package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l2segment"
	"github.com/banshee-data/laserscan/internal/scan/l3columns"
	"github.com/banshee-data/laserscan/internal/scan/l4geometry"
	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
	"github.com/banshee-data/laserscan/internal/scan/pipeline"
)

// DefaultConfigPath is the path to the canonical scan defaults file.
const DefaultConfigPath = "config/scan.defaults.json"

// ScanConfig is the on-disk scanner configuration. Every field is optional;
// the Get* accessors fall back to the reference defaults, so partial files
// are safe.
type ScanConfig struct {
	// Calibration
	Fx       *float64 `json:"fx,omitempty"`
	Fy       *float64 `json:"fy,omitempty"`
	Cx       *float64 `json:"cx,omitempty"`
	Cy       *float64 `json:"cy,omitempty"`
	Zs       *float64 `json:"zs,omitempty"`
	Ho       *float64 `json:"ho,omitempty"`
	AlphaDeg *float64 `json:"alpha_deg,omitempty"`

	// Segmentation
	BlurEnable *bool   `json:"blur_enable,omitempty"`
	BlurKernel *int    `json:"blur_kernel,omitempty"`
	OpenEnable *bool   `json:"open_enable,omitempty"`
	OpenKernel *int    `json:"open_kernel,omitempty"`
	ColorMin   *[3]int `json:"color_min,omitempty"` // H, S, V with H in [0,180)
	ColorMax   *[3]int `json:"color_max,omitempty"`

	// Region of interest
	RhoMin *float64 `json:"rho_min,omitempty"`
	RhoMax *float64 `json:"rho_max,omitempty"`
	HMin   *float64 `json:"h_min,omitempty"`
	HMax   *float64 `json:"h_max,omitempty"`

	// Extraction and accumulation
	ExtractionMode *string  `json:"extraction_mode,omitempty"` // "compact" or "weighted"
	ZOffset        *float64 `json:"z_offset,omitempty"`
	QueueCapacity  *int     `json:"queue_capacity,omitempty"`

	// Streaming
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "50ms"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyScanConfig returns a ScanConfig with every field unset.
func EmptyScanConfig() *ScanConfig {
	return &ScanConfig{}
}

// DefaultScanConfig returns a ScanConfig with every field set to its
// default.
func DefaultScanConfig() *ScanConfig {
	p := l1calib.DefaultParams()
	seg := l2segment.DefaultConfig()
	roi := l4geometry.DefaultRangeConfig()
	return &ScanConfig{
		Fx:             ptrFloat64(p.Fx),
		Fy:             ptrFloat64(p.Fy),
		Cx:             ptrFloat64(p.Cx),
		Cy:             ptrFloat64(p.Cy),
		Zs:             ptrFloat64(p.Zs),
		Ho:             ptrFloat64(p.Ho),
		AlphaDeg:       ptrFloat64(p.AlphaDeg),
		BlurEnable:     ptrBool(seg.BlurEnable),
		BlurKernel:     ptrInt(seg.BlurKernel),
		OpenEnable:     ptrBool(seg.OpenEnable),
		OpenKernel:     ptrInt(seg.OpenKernel),
		ColorMin:       &[3]int{int(seg.ColorMin.H), int(seg.ColorMin.S), int(seg.ColorMin.V)},
		ColorMax:       &[3]int{int(seg.ColorMax.H), int(seg.ColorMax.S), int(seg.ColorMax.V)},
		RhoMin:         ptrFloat64(roi.RhoMin),
		RhoMax:         ptrFloat64(roi.RhoMax),
		HMin:           ptrFloat64(roi.HMin),
		HMax:           ptrFloat64(roi.HMax),
		ExtractionMode: ptrString(l3columns.Compact.String()),
		ZOffset:        ptrFloat64(0),
		QueueCapacity:  ptrInt(l5cloud.DefaultQueueCapacity),
		PollInterval:   ptrString("50ms"),
	}
}

// LoadScanConfig loads a ScanConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadScanConfig(path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyScanConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultConfig() *ScanConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/scan/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadScanConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that can be checked in isolation, then the
// assembled settings.
func (c *ScanConfig) Validate() error {
	for _, f := range []struct {
		name string
		hsv  *[3]int
	}{{"color_min", c.ColorMin}, {"color_max", c.ColorMax}} {
		name, hsv := f.name, f.hsv
		if hsv == nil {
			continue
		}
		if hsv[0] < 0 || hsv[0] > 180 {
			return fmt.Errorf("%s hue must be between 0 and 180, got %d", name, hsv[0])
		}
		for _, v := range hsv[1:] {
			if v < 0 || v > 255 {
				return fmt.Errorf("%s saturation/value must be between 0 and 255, got %d", name, v)
			}
		}
	}

	if c.QueueCapacity != nil && *c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must be non-negative, got %d", *c.QueueCapacity)
	}

	if c.PollInterval != nil && *c.PollInterval != "" {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", d)
		}
	}

	_, err := c.ToSettings()
	return err
}

// ToSettings assembles pipeline settings from the config and its defaults.
func (c *ScanConfig) ToSettings() (pipeline.Settings, error) {
	mode, err := l3columns.ParseMode(c.GetExtractionMode())
	if err != nil {
		return pipeline.Settings{}, err
	}
	minHSV, maxHSV := c.GetColorMin(), c.GetColorMax()
	s := pipeline.Settings{
		Calibration: l1calib.Params{
			Fx:       c.GetFx(),
			Fy:       c.GetFy(),
			Cx:       c.GetCx(),
			Cy:       c.GetCy(),
			Zs:       c.GetZs(),
			Ho:       c.GetHo(),
			AlphaDeg: c.GetAlphaDeg(),
		},
		Segmentation: l2segment.Config{
			BlurEnable: c.GetBlurEnable(),
			BlurKernel: c.GetBlurKernel(),
			OpenEnable: c.GetOpenEnable(),
			OpenKernel: c.GetOpenKernel(),
			ColorMin:   l2segment.HSV{H: uint8(minHSV[0]), S: uint8(minHSV[1]), V: uint8(minHSV[2])},
			ColorMax:   l2segment.HSV{H: uint8(maxHSV[0]), S: uint8(maxHSV[1]), V: uint8(maxHSV[2])},
		},
		Range: l4geometry.RangeConfig{
			RhoMin: c.GetRhoMin(),
			RhoMax: c.GetRhoMax(),
			HMin:   c.GetHMin(),
			HMax:   c.GetHMax(),
		},
		Mode:    mode,
		ZOffset: c.GetZOffset(),
	}
	if err := s.Validate(); err != nil {
		return pipeline.Settings{}, err
	}
	return s, nil
}

func float64Or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// GetFx returns fx or the default.
func (c *ScanConfig) GetFx() float64 { return float64Or(c.Fx, l1calib.DefaultParams().Fx) }

// GetFy returns fy or the default.
func (c *ScanConfig) GetFy() float64 { return float64Or(c.Fy, l1calib.DefaultParams().Fy) }

// GetCx returns cx or the default.
func (c *ScanConfig) GetCx() float64 { return float64Or(c.Cx, l1calib.DefaultParams().Cx) }

// GetCy returns cy or the default.
func (c *ScanConfig) GetCy() float64 { return float64Or(c.Cy, l1calib.DefaultParams().Cy) }

// GetZs returns zs or the default.
func (c *ScanConfig) GetZs() float64 { return float64Or(c.Zs, l1calib.DefaultParams().Zs) }

// GetHo returns ho or the default.
func (c *ScanConfig) GetHo() float64 { return float64Or(c.Ho, l1calib.DefaultParams().Ho) }

// GetAlphaDeg returns alpha_deg or the default.
func (c *ScanConfig) GetAlphaDeg() float64 {
	return float64Or(c.AlphaDeg, l1calib.DefaultParams().AlphaDeg)
}

// GetBlurEnable returns blur_enable or the default.
func (c *ScanConfig) GetBlurEnable() bool {
	if c.BlurEnable == nil {
		return l2segment.DefaultConfig().BlurEnable
	}
	return *c.BlurEnable
}

// GetBlurKernel returns blur_kernel or the default.
func (c *ScanConfig) GetBlurKernel() int {
	if c.BlurKernel == nil {
		return l2segment.DefaultConfig().BlurKernel
	}
	return *c.BlurKernel
}

// GetOpenEnable returns open_enable or the default.
func (c *ScanConfig) GetOpenEnable() bool {
	if c.OpenEnable == nil {
		return l2segment.DefaultConfig().OpenEnable
	}
	return *c.OpenEnable
}

// GetOpenKernel returns open_kernel or the default.
func (c *ScanConfig) GetOpenKernel() int {
	if c.OpenKernel == nil {
		return l2segment.DefaultConfig().OpenKernel
	}
	return *c.OpenKernel
}

// GetColorMin returns color_min or the default.
func (c *ScanConfig) GetColorMin() [3]int {
	if c.ColorMin == nil {
		m := l2segment.DefaultConfig().ColorMin
		return [3]int{int(m.H), int(m.S), int(m.V)}
	}
	return *c.ColorMin
}

// GetColorMax returns color_max or the default.
func (c *ScanConfig) GetColorMax() [3]int {
	if c.ColorMax == nil {
		m := l2segment.DefaultConfig().ColorMax
		return [3]int{int(m.H), int(m.S), int(m.V)}
	}
	return *c.ColorMax
}

// GetRhoMin returns rho_min or the default.
func (c *ScanConfig) GetRhoMin() float64 {
	return float64Or(c.RhoMin, l4geometry.DefaultRangeConfig().RhoMin)
}

// GetRhoMax returns rho_max or the default.
func (c *ScanConfig) GetRhoMax() float64 {
	return float64Or(c.RhoMax, l4geometry.DefaultRangeConfig().RhoMax)
}

// GetHMin returns h_min or the default.
func (c *ScanConfig) GetHMin() float64 { return float64Or(c.HMin, l4geometry.DefaultRangeConfig().HMin) }

// GetHMax returns h_max or the default.
func (c *ScanConfig) GetHMax() float64 { return float64Or(c.HMax, l4geometry.DefaultRangeConfig().HMax) }

// GetExtractionMode returns extraction_mode or "compact".
func (c *ScanConfig) GetExtractionMode() string {
	if c.ExtractionMode == nil || *c.ExtractionMode == "" {
		return l3columns.Compact.String()
	}
	return *c.ExtractionMode
}

// GetZOffset returns z_offset or 0.
func (c *ScanConfig) GetZOffset() float64 { return float64Or(c.ZOffset, 0) }

// GetQueueCapacity returns queue_capacity or the default.
func (c *ScanConfig) GetQueueCapacity() int {
	if c.QueueCapacity == nil || *c.QueueCapacity == 0 {
		return l5cloud.DefaultQueueCapacity
	}
	return *c.QueueCapacity
}

// GetPollInterval parses and returns the PollInterval as a time.Duration.
func (c *ScanConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 50 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil || d <= 0 {
		return 50 * time.Millisecond // default on parse error
	}
	return d
}
