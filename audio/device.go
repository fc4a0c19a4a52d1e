package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var ErrSelectionCancelled = errors.New("device selection cancelled")

type keyAction int

const (
	keyNone keyAction = iota
	keyConfirm
	keyCancel
)

// applyKey moves cursor for one keypress read from a raw terminal.
func applyKey(buf []byte, cursor, count int) (int, keyAction) {
	switch {
	case len(buf) == 1:
		switch buf[0] {
		case '\r', '\n':
			return cursor, keyConfirm
		case 3, 'q': // Ctrl+C
			return cursor, keyCancel
		case 'j':
			return min(cursor+1, count-1), keyNone
		case 'k':
			return max(cursor-1, 0), keyNone
		}
	case len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[':
		switch buf[2] {
		case 'A':
			return max(cursor-1, 0), keyNone
		case 'B':
			return min(cursor+1, count-1), keyNone
		}
	}
	return cursor, keyNone
}

// SelectDevice lets the operator pick a capture device with the arrow keys.
// A single device is returned without prompting.
func SelectDevice(ctx Context, in *os.File, out io.Writer) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Fprint(out, "\r\x1b[J")
		fmt.Fprint(out, "Select recorder input (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			if i == cursor {
				fmt.Fprintf(out, "  \x1b[1;36m▶ %s\x1b[0m\r\n", d.Name)
			} else {
				fmt.Fprintf(out, "    %s\r\n", d.Name)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		var action keyAction
		cursor, action = applyKey(buf[:n], cursor, len(devices))
		switch action {
		case keyConfirm:
			fmt.Fprint(out, "\r\n")
			return &devices[cursor], nil
		case keyCancel:
			fmt.Fprint(out, "\r\n")
			return nil, ErrSelectionCancelled
		}
		fmt.Fprintf(out, "\x1b[%dA", len(devices)+2)
		render()
	}
}
