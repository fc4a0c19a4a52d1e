package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Init loads the host drivers. It must run before any Open call.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// Pin is a periph GPIO with its polarity applied.
type Pin struct {
	name      string
	pin       pgpio.PinIO
	activeLow bool
}

func lookup(name string) (pgpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	return p, nil
}

// OpenInput configures name as an input, pulled towards its inactive level.
func OpenInput(name string, activeLow bool) (*Pin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	pull := pgpio.PullDown
	if activeLow {
		pull = pgpio.PullUp
	}
	if err := p.In(pull, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s input: %w", name, err)
	}
	return &Pin{name: name, pin: p, activeLow: activeLow}, nil
}

// OpenOutput configures name as an output, initially inactive.
func OpenOutput(name string, activeLow bool) (*Pin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	pin := &Pin{name: name, pin: p, activeLow: activeLow}
	if err := p.Out(pin.level(false)); err != nil {
		return nil, fmt.Errorf("gpio %s output: %w", name, err)
	}
	return pin, nil
}

func (p *Pin) level(active bool) pgpio.Level {
	return pgpio.Level(active != p.activeLow)
}

func (p *Pin) Read() (bool, error) {
	return bool(p.pin.Read()) != p.activeLow, nil
}

func (p *Pin) Write(active bool) error {
	if err := p.pin.Out(p.level(active)); err != nil {
		return fmt.Errorf("gpio %s: %w", p.name, err)
	}
	return nil
}
