package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parrot.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"

[lines]
driver = "gpio"

[lines.rx]
pin = "GPIO5"
active_low = false

[recorder]
backend = "soundcard"
device = "USB Audio"

[status]
bind = ""
tui = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Lines.RX != (Line{Pin: "GPIO5"}) {
		t.Errorf("rx = %+v", cfg.Lines.RX)
	}
	if cfg.Lines.PTT != Default().Lines.PTT {
		t.Errorf("ptt should keep default, got %+v", cfg.Lines.PTT)
	}
	if cfg.Recorder.Backend != BackendSoundcard || cfg.Recorder.Device != "USB Audio" {
		t.Errorf("recorder = %+v", cfg.Recorder)
	}
	if cfg.Recorder.SampleRate != 16000 {
		t.Errorf("sample_rate should keep default, got %d", cfg.Recorder.SampleRate)
	}
	if cfg.Status.Bind != "" || !cfg.Status.TUI {
		t.Errorf("status = %+v", cfg.Status)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[logging\nlevel = ")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad driver", func(c *Config) { c.Lines.Driver = "serial" }, "lines.driver"},
		{"missing rx", func(c *Config) { c.Lines.RX.Pin = "" }, "lines.rx.pin"},
		{"missing ptt", func(c *Config) { c.Lines.PTT.Pin = "" }, "lines.ptt.pin"},
		{"missing record", func(c *Config) { c.Lines.Record.Pin = "" }, "lines.record.pin"},
		{"missing play", func(c *Config) { c.Lines.Play.Pin = "" }, "lines.play.pin"},
		{"bad backend", func(c *Config) { c.Recorder.Backend = "tape" }, "recorder.backend"},
		{"bad sample rate", func(c *Config) {
			c.Recorder.Backend = BackendSoundcard
			c.Recorder.SampleRate = 0
		}, "recorder.sample_rate"},
		{"influx without org", func(c *Config) { c.InfluxDB.URL = "http://localhost:8086" }, "influxdb.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("validate = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestValidateAllowsEmptyPinsInSim(t *testing.T) {
	cfg := Default()
	cfg.Lines = LinesConfig{Driver: DriverSim}
	if err := validate(cfg); err != nil {
		t.Fatalf("sim without pins: %v", err)
	}
}

func TestSoundcardDoesNotNeedModulePins(t *testing.T) {
	cfg := Default()
	cfg.Recorder.Backend = BackendSoundcard
	cfg.Lines.Record.Pin = ""
	cfg.Lines.Play.Pin = ""
	if err := validate(cfg); err != nil {
		t.Fatalf("soundcard without module pins: %v", err)
	}
}
