package gpio

import (
	"testing"

	pgpio "periph.io/x/conn/v3/gpio"
)

func TestPinLevelPolarity(t *testing.T) {
	low := &Pin{activeLow: true}
	if low.level(true) != pgpio.Low || low.level(false) != pgpio.High {
		t.Fatal("active-low pin drives the wrong levels")
	}
	high := &Pin{activeLow: false}
	if high.level(true) != pgpio.High || high.level(false) != pgpio.Low {
		t.Fatal("active-high pin drives the wrong levels")
	}
}

func TestLookupUnknownPin(t *testing.T) {
	if _, err := OpenInput("NO_SUCH_PIN_42", false); err == nil {
		t.Fatal("expected error for unknown pin")
	}
}
