package l2segment

import "fmt"

// HSV is a colour in the 8-bit HSV convention: H in [0,180), S and V in
// [0,255].
type HSV struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// Config selects the segmentation steps and the threshold window.
type Config struct {
	BlurEnable bool `json:"blur_enable"`
	BlurKernel int  `json:"blur_kernel"` // box size in pixels, > 0

	OpenEnable bool `json:"open_enable"`
	OpenKernel int  `json:"open_kernel"` // square structuring element size, > 0

	ColorMin HSV `json:"color_min"`
	ColorMax HSV `json:"color_max"`
}

// DefaultConfig returns the reference laser profile.
func DefaultConfig() Config {
	return Config{
		BlurEnable: true,
		BlurKernel: 4,
		OpenEnable: true,
		OpenKernel: 5,
		ColorMin:   HSV{H: 0, S: 180, V: 30},
		ColorMax:   HSV{H: 180, S: 250, V: 140},
	}
}

// ConfigError reports a malformed segmentation or range filter setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks kernel sizes and that ColorMin <= ColorMax on every channel.
func (c Config) Validate() error {
	if c.BlurKernel <= 0 {
		return &ConfigError{Field: "blur_kernel", Reason: fmt.Sprintf("must be positive, got %d", c.BlurKernel)}
	}
	if c.OpenKernel <= 0 {
		return &ConfigError{Field: "open_kernel", Reason: fmt.Sprintf("must be positive, got %d", c.OpenKernel)}
	}
	if c.ColorMin.H > c.ColorMax.H {
		return &ConfigError{Field: "color.h", Reason: fmt.Sprintf("min %d > max %d", c.ColorMin.H, c.ColorMax.H)}
	}
	if c.ColorMin.S > c.ColorMax.S {
		return &ConfigError{Field: "color.s", Reason: fmt.Sprintf("min %d > max %d", c.ColorMin.S, c.ColorMax.S)}
	}
	if c.ColorMin.V > c.ColorMax.V {
		return &ConfigError{Field: "color.v", Reason: fmt.Sprintf("min %d > max %d", c.ColorMin.V, c.ColorMax.V)}
	}
	return nil
}
