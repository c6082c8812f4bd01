package config

import "time"

// Config is the on-disk configuration of a flowpad server
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Editor EditorConfig `yaml:"editor"`
	Export ExportConfig `yaml:"export"`
}

// ServerConfig holds HTTP listener settings. There is no write timeout since
// event streams stay open indefinitely.
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	ReadTimeout     Duration `yaml:"read_timeout" validate:"gte=0"`
	IdleTimeout     Duration `yaml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// EditorConfig holds diagram editing defaults
type EditorConfig struct {
	HistoryLimit        int    `yaml:"history_limit" validate:"gte=0"` // 0 keeps every step
	DefaultEdgeAnimated bool   `yaml:"default_edge_animated"`
	DerivedLabel        string `yaml:"derived_label"`
	SeedPath            string `yaml:"seed_path,omitempty"`
	WatchSeed           bool   `yaml:"watch_seed"`
}

// ExportConfig holds PNG export settings
type ExportConfig struct {
	Width      int     `yaml:"width" validate:"gt=0,lte=8192"`
	Height     int     `yaml:"height" validate:"gt=0,lte=8192"`
	MinZoom    float64 `yaml:"min_zoom" validate:"gt=0"`
	MaxZoom    float64 `yaml:"max_zoom" validate:"gtefield=MinZoom"`
	Padding    float64 `yaml:"padding" validate:"gte=0"`
	Background string  `yaml:"background"`
	CacheSize  int     `yaml:"cache_size" validate:"gte=0"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
