package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"rotorgo/pkg/geo"
)

// Config holds the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Ticker  TickerConfig  `yaml:"ticker"`
	Station StationConfig `yaml:"station"`
	Rotator RotatorConfig `yaml:"rotator"`
	Beam    BeamConfig    `yaml:"beam"`
}

// StationConfig locates the antenna. Grid takes precedence over Lat/Lon when set.
type StationConfig struct {
	Callsign string  `yaml:"callsign"`
	Grid     string  `yaml:"grid"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
}

// RotatorConfig holds the rotator connection and telemetry filter settings.
type RotatorConfig struct {
	Provider       string            `yaml:"provider"` // "mock"
	DefaultBearing float64           `yaml:"default_bearing"`
	CommandTimeout Duration          `yaml:"command_timeout"`
	Filter         FilterConfig      `yaml:"filter"`
	Mock           MockRotatorConfig `yaml:"mock"`
}

// FilterConfig holds the reconciliation thresholds.
type FilterConfig struct {
	NearZeroLow  float64  `yaml:"near_zero_low"`
	NearZeroHigh float64  `yaml:"near_zero_high"`
	TrustWindow  Duration `yaml:"trust_window"`
	AcceptRadius float64  `yaml:"accept_radius"`
}

// MockRotatorConfig holds settings for the simulated rotator.
type MockRotatorConfig struct {
	StartAzimuth  float64  `yaml:"start_azimuth"`
	SlewRate      float64  `yaml:"slew_rate"` // degrees per second
	TickRate      Duration `yaml:"tick_rate"`
	SpuriousZeros bool     `yaml:"spurious_zeros"`
}

// BeamConfig holds beam geometry and animation settings.
type BeamConfig struct {
	MaxDistance    Distance `yaml:"max_distance"`
	Segments       int      `yaml:"segments"`
	HalfWidthStart float64  `yaml:"half_width_start"`
	HalfWidthEnd   float64  `yaml:"half_width_end"`
	Altitude       float64  `yaml:"altitude"`
	Color          string   `yaml:"color"`
	EdgeColor      string   `yaml:"edge_color"`
	PulsePeriod    Duration `yaml:"pulse_period"`
	PulseMin       float64  `yaml:"pulse_min"`
	PulseMax       float64  `yaml:"pulse_max"`
	PulseDamping   float64  `yaml:"pulse_damping"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Trace    bool        `yaml:"trace"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path     string `yaml:"path"`
	ADIFPath string `yaml:"adif_path"` // re-imported at startup when modified
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address   string `yaml:"address"`
	StaticDir string `yaml:"static_dir"` // optional frontend build served at /
}

// TickerConfig holds ticker settings.
type TickerConfig struct {
	TelemetryLoop Duration `yaml:"telemetry_loop"`
	FrameRate     Duration `yaml:"frame_rate"`
	HistoryPrune  Duration `yaml:"history_prune"`
	HistoryMaxAge Duration `yaml:"history_max_age"`
	LogWatch      Duration `yaml:"log_watch"` // ADIF re-import poll, 0 disables
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/rotorgo.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Ticker: TickerConfig{
			TelemetryLoop: Duration(500 * time.Millisecond),
			FrameRate:     Duration(50 * time.Millisecond),
			HistoryPrune:  Duration(1 * time.Hour),
			HistoryMaxAge: Duration(30 * Day),
			LogWatch:      Duration(30 * time.Second),
		},
		Station: StationConfig{
			Grid: "JO31",
		},
		Rotator: RotatorConfig{
			Provider:       "mock",
			DefaultBearing: 0,
			CommandTimeout: Duration(5 * time.Second),
			Filter: FilterConfig{
				NearZeroLow:  30,
				NearZeroHigh: 330,
				TrustWindow:  Duration(1000 * time.Millisecond),
				AcceptRadius: 15,
			},
			Mock: MockRotatorConfig{
				StartAzimuth:  0,
				SlewRate:      6,
				TickRate:      Duration(100 * time.Millisecond),
				SpuriousZeros: true,
			},
		},
		Beam: BeamConfig{
			MaxDistance:    Distance(18000 * 1000),
			Segments:       50,
			HalfWidthStart: 0.5,
			HalfWidthEnd:   10,
			Altitude:       0.01,
			Color:          "#ff9800",
			EdgeColor:      "#ffc107",
			PulsePeriod:    Duration(3 * time.Second),
			PulseMin:       0.35,
			PulseMax:       0.9,
			PulseDamping:   1.5,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Env fallback and expansion, never written back to disk
	cfg.DB.Path = expandPath(cfg.DB.Path)
	cfg.DB.ADIFPath = expandPath(cfg.DB.ADIFPath)
	cfg.Log.Server.Path = expandPath(cfg.Log.Server.Path)
	cfg.Log.Requests.Path = expandPath(cfg.Log.Requests.Path)
	if cfg.Station.Grid == "" {
		cfg.Station.Grid = os.Getenv("ROTORGO_STATION_GRID")
	}
	if cfg.Station.Callsign == "" {
		cfg.Station.Callsign = os.Getenv("ROTORGO_CALLSIGN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var reWinEnv = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// expandPath expands $VAR, ${VAR} and %VAR% references.
func expandPath(p string) string {
	p = reWinEnv.ReplaceAllString(p, "$${$1}")
	return os.ExpandEnv(p)
}

var reGrid = regexp.MustCompile(`^[A-Ra-r]{2}([0-9]{2}([A-Xa-x]{2}([0-9]{2})?)?)?$`)

// Validate checks values that would otherwise surface as odd runtime behavior.
func (c *Config) Validate() error {
	if c.Station.Grid != "" && !reGrid.MatchString(c.Station.Grid) {
		return fmt.Errorf("invalid station grid '%s': must be a Maidenhead locator (e.g. 'JO31', 'FN20xr')", c.Station.Grid)
	}
	if c.Station.Lat < -90 || c.Station.Lat > 90 || c.Station.Lon < -180 || c.Station.Lon > 180 {
		return fmt.Errorf("station position out of range: %v,%v", c.Station.Lat, c.Station.Lon)
	}
	if !validBearing(c.Rotator.DefaultBearing) {
		return fmt.Errorf("rotator.default_bearing %v must be in [0, 360)", c.Rotator.DefaultBearing)
	}
	f := c.Rotator.Filter
	if f.NearZeroLow < 0 || f.NearZeroHigh > 360 || f.NearZeroLow > f.NearZeroHigh {
		return fmt.Errorf("rotator.filter near-zero band [%v, %v] is invalid", f.NearZeroLow, f.NearZeroHigh)
	}
	if f.AcceptRadius < 0 || f.AcceptRadius > 180 {
		return fmt.Errorf("rotator.filter.accept_radius %v must be in [0, 180]", f.AcceptRadius)
	}
	if f.TrustWindow < 0 {
		return fmt.Errorf("rotator.filter.trust_window must not be negative")
	}
	if c.Beam.Segments < 0 {
		return fmt.Errorf("beam.segments must not be negative")
	}
	return nil
}

func validBearing(b float64) bool {
	return !math.IsNaN(b) && b >= 0 && b < 360
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# RotorGo Configuration
# ---------------------
# Supported Units:
#   Duration: ms, s, m, h, with an optional leading day count (e.g. 30d, 1d12h)
#   Distance: m (meters), km (kilometers)
#   Bearings: degrees clockwise from true north, [0, 360)

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: mock\n${1}provider:"))

	reZero := regexp.MustCompile(`(?m)^(\s+)near_zero_low:`)
	data = reZero.ReplaceAll(data, []byte("${1}# Telemetry reporting 0 is ignored unless the display is already within this band of north\n${1}near_zero_low:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

// Position returns the station origin, preferring the grid locator over explicit coordinates.
func (s *StationConfig) Position() (geo.Point, error) {
	if s.Grid != "" {
		p, err := geo.ParseLocator(s.Grid)
		if err != nil {
			return geo.Point{}, fmt.Errorf("station grid: %w", err)
		}
		return p, nil
	}
	return geo.Point{Lat: s.Lat, Lon: s.Lon}, nil
}
