package main

import (
	"errors"
	"strings"
	"testing"

	"parrot/config"
	"parrot/gpio"
)

// stubGPIO replaces host GPIO with fakes. Opening failPin returns an error.
func stubGPIO(t *testing.T, failPin string) map[string]*gpio.FakeLine {
	t.Helper()
	opened := map[string]*gpio.FakeLine{}
	open := func(name string, _ bool) (line, error) {
		if name == failPin {
			return nil, errors.New("pin busy")
		}
		l := gpio.NewFake()
		opened[name] = l
		return l, nil
	}
	oldInit, oldIn, oldOut := gpioInit, openIn, openOut
	gpioInit = func() error { return nil }
	openIn, openOut = open, open
	t.Cleanup(func() { gpioInit, openIn, openOut = oldInit, oldIn, oldOut })
	return opened
}

func gpioConfig() config.Config {
	cfg := config.Default()
	cfg.Lines.Driver = config.DriverGPIO
	cfg.Recorder.Backend = config.BackendModule
	return cfg
}

func assertReleased(t *testing.T, l *gpio.FakeLine, name string) {
	t.Helper()
	if l == nil {
		t.Fatalf("%s line never opened", name)
	}
	got := l.Writes()
	if len(got) == 0 || got[len(got)-1] {
		t.Fatalf("%s writes = %v, want released", name, got)
	}
}

func TestOpenHardwareKeyLineFailureReleasesPTT(t *testing.T) {
	cfg := gpioConfig()
	opened := stubGPIO(t, cfg.Lines.Key.Pin)

	hw, err := openHardware(cfg, hardwareOptions{})
	if err == nil || !strings.Contains(err.Error(), "key line") {
		t.Fatalf("err = %v, want key line failure", err)
	}
	if hw != nil {
		t.Fatal("hardware returned alongside an error")
	}
	assertReleased(t, opened[cfg.Lines.PTT.Pin], "ptt")
}

func TestOpenHardwarePlayLineFailureReleasesPTT(t *testing.T) {
	cfg := gpioConfig()
	opened := stubGPIO(t, cfg.Lines.Play.Pin)

	if _, err := openHardware(cfg, hardwareOptions{}); err == nil || !strings.Contains(err.Error(), "play line") {
		t.Fatalf("err = %v, want play line failure", err)
	}
	assertReleased(t, opened[cfg.Lines.PTT.Pin], "ptt")
}

func TestOpenHardwareInitFailureOpensNothing(t *testing.T) {
	opened := stubGPIO(t, "")
	gpioInit = func() error { return errors.New("no host") }

	if _, err := openHardware(gpioConfig(), hardwareOptions{}); err == nil {
		t.Fatal("expected init error")
	}
	if len(opened) != 0 {
		t.Fatalf("opened %d lines after init failed", len(opened))
	}
}

func TestOpenHardwareGPIOModule(t *testing.T) {
	cfg := gpioConfig()
	opened := stubGPIO(t, "")

	hw, err := openHardware(cfg, hardwareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(opened) != 5 {
		t.Fatalf("opened %d lines, want 5", len(opened))
	}

	opened[cfg.Lines.Key.Pin].Set(true)
	if !hw.drivers.Key.Keyed() {
		t.Fatal("key sense did not follow the key line")
	}
	hw.drivers.Recorder.StartRecording()
	hw.drivers.PTT.SetKeyed(true)

	hw.Close()
	assertReleased(t, opened[cfg.Lines.PTT.Pin], "ptt")
	assertReleased(t, opened[cfg.Lines.Record.Pin], "record")
}

func TestOpenHardwareUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Lines.Driver = "serial"
	if _, err := openHardware(cfg, hardwareOptions{}); err == nil || !strings.Contains(err.Error(), "serial") {
		t.Fatalf("err = %v", err)
	}
}
