// Package doctor walks an operator through an interactive check of the
// repeater wiring.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"parrot/repeater"
)

const (
	pollEvery    = 50 * time.Millisecond
	waitFor      = 15 * time.Second
	pttHold      = time.Second
	recordFor    = 2 * time.Second
	playbackHold = 3 * time.Second
)

// Rig is the hardware under test. Key may be nil when no key sense line is
// wired.
type Rig struct {
	RX       repeater.ReceiveDetector
	Key      repeater.KeyInput
	PTT      repeater.PTT
	Recorder repeater.Recorder
	Player   repeater.Player
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

type session struct {
	rig Rig
	in  *bufio.Reader
	out io.Writer
}

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(rig Rig, in io.Reader, out io.Writer) int {
	if rig.Sleep == nil {
		rig.Sleep = time.Sleep
	}
	resetTerminal()
	setupInterruptHandler(func() {
		rig.PTT.SetKeyed(false)
		rig.Recorder.StopRecording()
	})

	s := &session{rig: rig, in: bufio.NewReader(in), out: out}

	fmt.Fprintln(out, "parrot doctor - interactive line check")
	fmt.Fprintln(out, "======================================")

	checks := []func() bool{
		s.checkSquelch,
		s.checkKey,
		s.checkPTT,
		s.checkRecordPlayback,
	}
	allPass := true
	for _, check := range checks {
		if !check() {
			allPass = false
			break
		}
	}

	fmt.Fprintln(out)
	if allPass {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(out, "Some checks failed. See details above.")
	return 1
}

// waitUntil polls cond until it holds or waitFor elapses.
func (s *session) waitUntil(cond func() bool) bool {
	for waited := time.Duration(0); waited < waitFor; waited += pollEvery {
		if cond() {
			return true
		}
		s.rig.Sleep(pollEvery)
	}
	return cond()
}

func (s *session) prompt(msg string) {
	fmt.Fprint(s.out, msg)
	s.in.ReadString('\n')
}

func (s *session) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [y/n]: ", question)
	answer, _ := s.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (s *session) checkSquelch() bool {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "[1/4] Receiver squelch")

	if s.rig.RX.Receiving() {
		fmt.Fprintln(s.out, "Squelch reads open. Close it or stop transmitting...")
		if !s.waitUntil(func() bool { return !s.rig.RX.Receiving() }) {
			fmt.Fprintln(s.out, "  FAIL: squelch stuck open (check rx polarity)")
			return false
		}
	}

	fmt.Fprintln(s.out, "Transmit to the receiver...")
	if !s.waitUntil(s.rig.RX.Receiving) {
		fmt.Fprintln(s.out, "  FAIL: timeout waiting for squelch to open")
		return false
	}
	fmt.Fprintln(s.out, "Squelch open. Now unkey...")
	if !s.waitUntil(func() bool { return !s.rig.RX.Receiving() }) {
		fmt.Fprintln(s.out, "  FAIL: timeout waiting for squelch to close")
		return false
	}
	fmt.Fprintln(s.out, "  PASS: squelch follows the receiver")
	return true
}

func (s *session) checkKey() bool {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "[2/4] Transmitter key sense")

	if s.rig.Key == nil {
		fmt.Fprintln(s.out, "  SKIP: no key line configured")
		return true
	}
	if s.rig.Key.Keyed() {
		fmt.Fprintln(s.out, "  FAIL: key reads asserted while idle (check key polarity)")
		return false
	}

	s.rig.PTT.SetKeyed(true)
	keyed := s.waitUntil(s.rig.Key.Keyed)
	s.rig.PTT.SetKeyed(false)
	if !keyed {
		fmt.Fprintln(s.out, "  FAIL: key sense did not follow PTT")
		return false
	}
	fmt.Fprintln(s.out, "  PASS: key sense follows PTT")
	return true
}

func (s *session) checkPTT() bool {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "[3/4] Push-to-talk")

	s.prompt(fmt.Sprintf("Press Enter to key the transmitter for %s...", pttHold))
	s.rig.PTT.SetKeyed(true)
	s.rig.Sleep(pttHold)
	s.rig.PTT.SetKeyed(false)

	if !s.confirm("Did the transmitter key?") {
		fmt.Fprintln(s.out, "  FAIL: transmitter did not key (check ptt polarity)")
		return false
	}
	fmt.Fprintln(s.out, "  PASS: transmitter keyed")
	return true
}

func (s *session) checkRecordPlayback() bool {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "[4/4] Record and playback")

	s.prompt(fmt.Sprintf("Press Enter and transmit a short message for %s...", recordFor))
	s.rig.Recorder.StartRecording()
	fmt.Fprint(s.out, "  Recording")
	for elapsed := time.Duration(0); elapsed < recordFor; elapsed += 500 * time.Millisecond {
		s.rig.Sleep(500 * time.Millisecond)
		fmt.Fprint(s.out, ".")
	}
	moduleRecording := s.rig.Recorder.Recording()
	s.rig.Recorder.StopRecording()
	fmt.Fprintln(s.out, " done")
	if !moduleRecording {
		fmt.Fprintln(s.out, "  Warning: recorder did not report recording")
	}

	s.prompt("Press Enter to play it back on the transmitter...")
	s.rig.PTT.SetKeyed(true)
	s.rig.Player.TriggerPlayback()
	s.rig.Sleep(playbackHold)
	s.rig.PTT.SetKeyed(false)

	if !s.confirm("Did you hear the recording?") {
		fmt.Fprintln(s.out, "  FAIL: playback not confirmed")
		return false
	}
	fmt.Fprintln(s.out, "  PASS: playback verified by user")
	return true
}
