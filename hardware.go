package main

import (
	"fmt"
	"os"

	"parrot/audio"
	"parrot/config"
	"parrot/gpio"
	"parrot/log"
	"parrot/module"
	"parrot/repeater"
)

// hardware is the assembled set of collaborators for the controller.
type hardware struct {
	drivers repeater.Drivers
	sim     *simLines

	lines   string
	backend string
	closers []func()
}

func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}

type hardwareOptions struct {
	// selectDevice prompts for the soundcard input when none is configured.
	selectDevice bool
}

// line is a host GPIO opened in one direction; key and record read back.
type line interface {
	gpio.Input
	gpio.Output
}

// Host GPIO access, swapped out in tests.
var (
	gpioInit = gpio.Init
	openIn   = func(name string, activeLow bool) (line, error) { return gpio.OpenInput(name, activeLow) }
	openOut  = func(name string, activeLow bool) (line, error) { return gpio.OpenOutput(name, activeLow) }
)

// openHardware assembles the drivers named by cfg. On error everything
// already opened is released, so PTT is never left keyed.
func openHardware(cfg config.Config, opts hardwareOptions) (*hardware, error) {
	h := &hardware{lines: cfg.Lines.Driver, backend: cfg.Recorder.Backend}
	fail := func(err error) (*hardware, error) {
		h.Close()
		return nil, err
	}

	switch cfg.Lines.Driver {
	case config.DriverSim:
		lines := newSimLines()
		h.sim = lines
		ptt := gpio.NewTransmitter(lines.ptt)
		h.drivers = repeater.Drivers{
			RX:  gpio.Squelch{In: lines.rx},
			Key: gpio.KeySense{In: lines.ptt},
			PTT: ptt,
		}
		if cfg.Recorder.Backend != config.BackendModule {
			log.Info("sim lines use the module recorder")
			h.backend = config.BackendModule
		}
		m := module.New(lines.record, lines.play, module.WithReadback(lines.record))
		h.drivers.Recorder = m
		h.drivers.Player = m
		return h, nil

	case config.DriverGPIO:
		if err := gpioInit(); err != nil {
			return fail(err)
		}
		rx, err := openIn(cfg.Lines.RX.Pin, cfg.Lines.RX.ActiveLow)
		if err != nil {
			return fail(fmt.Errorf("rx line: %w", err))
		}
		pttPin, err := openOut(cfg.Lines.PTT.Pin, cfg.Lines.PTT.ActiveLow)
		if err != nil {
			return fail(fmt.Errorf("ptt line: %w", err))
		}
		ptt := gpio.NewTransmitter(pttPin)
		h.closers = append(h.closers, func() { ptt.SetKeyed(false) })
		h.drivers = repeater.Drivers{RX: gpio.Squelch{In: rx}, PTT: ptt}
		log.Debugf("gpio rx=%s ptt=%s", cfg.Lines.RX.Pin, cfg.Lines.PTT.Pin)

		if cfg.Lines.Key.Pin != "" {
			key, err := openIn(cfg.Lines.Key.Pin, cfg.Lines.Key.ActiveLow)
			if err != nil {
				return fail(fmt.Errorf("key line: %w", err))
			}
			h.drivers.Key = gpio.KeySense{In: key}
			log.Debugf("gpio key=%s", cfg.Lines.Key.Pin)
		}
	default:
		return fail(fmt.Errorf("unknown line driver %q", cfg.Lines.Driver))
	}

	switch cfg.Recorder.Backend {
	case config.BackendModule:
		record, err := openOut(cfg.Lines.Record.Pin, cfg.Lines.Record.ActiveLow)
		if err != nil {
			return fail(fmt.Errorf("record line: %w", err))
		}
		play, err := openOut(cfg.Lines.Play.Pin, cfg.Lines.Play.ActiveLow)
		if err != nil {
			return fail(fmt.Errorf("play line: %w", err))
		}
		m := module.New(record, play, module.WithReadback(record))
		h.closers = append(h.closers, m.StopRecording)
		h.drivers.Recorder = m
		h.drivers.Player = m
		log.Debugf("gpio record=%s play=%s", cfg.Lines.Record.Pin, cfg.Lines.Play.Pin)

	case config.BackendSoundcard:
		sc, err := openSoundcard(cfg.Recorder, opts.selectDevice)
		if err != nil {
			return fail(err)
		}
		h.closers = append(h.closers, sc.Close)
		h.drivers.Recorder = sc
		h.drivers.Player = sc
		h.backend = config.BackendSoundcard + " (" + sc.DeviceName() + ")"
	}

	return h, nil
}

type closingSoundcard struct {
	*audio.Soundcard
	ctx audio.Context
}

func (c closingSoundcard) Close() {
	c.Soundcard.Close()
	c.ctx.Close()
}

func openSoundcard(rc config.RecorderConfig, selectDevice bool) (closingSoundcard, error) {
	ctx, err := audio.NewContext()
	if err != nil {
		return closingSoundcard{}, fmt.Errorf("audio: %w", err)
	}

	var device *audio.DeviceInfo
	if rc.Device == "" && selectDevice {
		device, err = audio.SelectDevice(ctx, os.Stdin, os.Stdout)
	} else {
		device, err = audio.FindDevice(ctx, rc.Device)
	}
	if err != nil {
		ctx.Close()
		return closingSoundcard{}, err
	}

	sc, err := audio.NewSoundcard(ctx, device,
		audio.Config{SampleRate: uint32(rc.SampleRate), Channels: 1},
		audio.WithMaxDuration(repeater.MaxRecordTime))
	if err != nil {
		ctx.Close()
		return closingSoundcard{}, fmt.Errorf("soundcard: %w", err)
	}
	return closingSoundcard{Soundcard: sc, ctx: ctx}, nil
}
