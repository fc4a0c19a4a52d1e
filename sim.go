package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"parrot/gpio"
	"parrot/log"
	"parrot/repeater"
)

// simLines stands in for the GPIO header. Key sense reads the PTT line back.
type simLines struct {
	rx     *gpio.FakeLine
	ptt    *gpio.FakeLine
	record *gpio.FakeLine
	play   *gpio.FakeLine
}

func newSimLines() *simLines {
	return &simLines{
		rx:     gpio.NewFake(),
		ptt:    gpio.NewFake(),
		record: gpio.NewFake(),
		play:   gpio.NewFake(),
	}
}

// runSim drives the simulated squelch from line commands on in:
//
//	RX ON | RX OFF   open or close the squelch
//	SLEEP <ms>       pause before the next command
//	STATUS           print the latest snapshot as JSON
//	QUIT             stop the controller
//
// EOF behaves like QUIT.
func runSim(in io.Reader, out io.Writer, lines *simLines, latest func() repeater.Snapshot, quit func()) {
	defer quit()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "":
		case "RX ON":
			lines.rx.Set(true)
		case "RX OFF":
			lines.rx.Set(false)
		case "STATUS":
			b, err := json.Marshal(latest())
			if err != nil {
				log.Errorf("sim status: %v", err)
				continue
			}
			fmt.Fprintln(out, string(b))
		case "QUIT":
			return
		default:
			if rest, ok := strings.CutPrefix(cmd, "SLEEP "); ok {
				if ms, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
					continue
				}
			}
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
}
