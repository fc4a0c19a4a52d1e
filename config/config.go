// Package config loads the repeater's TOML configuration. Timing is fixed in
// the repeater package and has no entry here.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	DriverGPIO = "gpio"
	DriverSim  = "sim"

	BackendModule    = "module"
	BackendSoundcard = "soundcard"
)

type Config struct {
	Logging  LoggingConfig  `toml:"logging"  json:"logging"`
	Lines    LinesConfig    `toml:"lines"    json:"lines"`
	Recorder RecorderConfig `toml:"recorder" json:"recorder"`
	Status   StatusConfig   `toml:"status"   json:"status"`
	InfluxDB InfluxConfig   `toml:"influxdb" json:"influxdb"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
	Dir   string `toml:"dir"   json:"dir"`
}

// Line names a GPIO pin and its polarity. Active-low lines read and drive
// low for "on".
type Line struct {
	Pin       string `toml:"pin"        json:"pin"`
	ActiveLow bool   `toml:"active_low" json:"active_low"`
}

type LinesConfig struct {
	Driver string `toml:"driver" json:"driver"`
	RX     Line   `toml:"rx"     json:"rx"`
	PTT    Line   `toml:"ptt"    json:"ptt"`
	Record Line   `toml:"record" json:"record"`
	Play   Line   `toml:"play"   json:"play"`
	Key    Line   `toml:"key"    json:"key"` // empty pin disables key sensing
}

type RecorderConfig struct {
	Backend    string `toml:"backend"     json:"backend"`
	Device     string `toml:"device"      json:"device"`
	SampleRate int    `toml:"sample_rate" json:"sample_rate"`
}

type StatusConfig struct {
	Bind string `toml:"bind" json:"bind"` // empty disables the HTTP server
	TUI  bool   `toml:"tui"  json:"tui"`
}

type InfluxConfig struct {
	URL     string `toml:"url"     json:"url"` // empty disables InfluxDB
	Org     string `toml:"org"     json:"org"`
	Bucket  string `toml:"bucket"  json:"bucket"`
	Station string `toml:"station" json:"station"`
	Token   string `toml:"-"       json:"-"`
}

// Default matches the reference wiring: squelch and key sense on pulled-up
// active-low inputs, active-high outputs for PTT and the record/play module.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Lines: LinesConfig{
			Driver: DriverGPIO,
			RX:     Line{Pin: "GPIO17", ActiveLow: true},
			PTT:    Line{Pin: "GPIO27"},
			Record: Line{Pin: "GPIO22"},
			Play:   Line{Pin: "GPIO23"},
			Key:    Line{Pin: "GPIO24", ActiveLow: true},
		},
		Recorder: RecorderConfig{
			Backend:    BackendModule,
			SampleRate: 16000,
		},
		Status: StatusConfig{
			Bind: "127.0.0.1:8073",
		},
		InfluxDB: InfluxConfig{
			Bucket:  "parrot",
			Station: "parrot",
		},
	}
}

// Load layers the TOML file at path over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks a config assembled outside Load, e.g. after flag
// overrides.
func Validate(cfg Config) error {
	return validate(cfg)
}

func validate(cfg Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", cfg.Logging.Level)
	}

	switch cfg.Lines.Driver {
	case DriverGPIO:
		if cfg.Lines.RX.Pin == "" {
			return errors.New("lines.rx.pin must not be empty")
		}
		if cfg.Lines.PTT.Pin == "" {
			return errors.New("lines.ptt.pin must not be empty")
		}
		if cfg.Recorder.Backend == BackendModule {
			if cfg.Lines.Record.Pin == "" {
				return errors.New("lines.record.pin must not be empty")
			}
			if cfg.Lines.Play.Pin == "" {
				return errors.New("lines.play.pin must not be empty")
			}
		}
	case DriverSim:
	default:
		return fmt.Errorf("lines.driver %q must be %q or %q", cfg.Lines.Driver, DriverGPIO, DriverSim)
	}

	switch cfg.Recorder.Backend {
	case BackendModule:
	case BackendSoundcard:
		if cfg.Recorder.SampleRate <= 0 {
			return errors.New("recorder.sample_rate must be > 0")
		}
	default:
		return fmt.Errorf("recorder.backend %q must be %q or %q", cfg.Recorder.Backend, BackendModule, BackendSoundcard)
	}

	if cfg.InfluxDB.URL != "" {
		if cfg.InfluxDB.Org == "" {
			return errors.New("influxdb.org must not be empty when influxdb.url is set")
		}
		if cfg.InfluxDB.Bucket == "" {
			return errors.New("influxdb.bucket must not be empty when influxdb.url is set")
		}
	}
	return nil
}
