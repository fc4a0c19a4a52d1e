package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"parrot/config"
	"parrot/repeater"
)

func TestRunSimCommands(t *testing.T) {
	lines := newSimLines()
	var out bytes.Buffer
	quits := 0
	var seenRX []bool

	latest := func() repeater.Snapshot {
		v, _ := lines.rx.Read()
		seenRX = append(seenRX, v)
		return repeater.Snapshot{PhaseName: "receiving", Receiving: v}
	}

	in := strings.NewReader("RX ON\nstatus\nSLEEP 1\nRX OFF\nBOGUS\nQUIT\nRX ON\n")
	runSim(in, &out, lines, latest, func() { quits++ })

	if quits != 1 {
		t.Fatalf("quit called %d times", quits)
	}
	if len(seenRX) != 1 || !seenRX[0] {
		t.Fatalf("STATUS saw rx %v, want [true]", seenRX)
	}
	if v, _ := lines.rx.Read(); v {
		t.Fatal("commands after QUIT were applied")
	}
	if !strings.Contains(out.String(), `"phase":"receiving"`) {
		t.Fatalf("missing status JSON:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `unknown command "BOGUS"`) {
		t.Fatalf("missing unknown command report:\n%s", out.String())
	}
}

func TestRunSimEOFQuits(t *testing.T) {
	quits := 0
	runSim(strings.NewReader("RX ON\n"), &bytes.Buffer{}, newSimLines(), nil, func() { quits++ })
	if quits != 1 {
		t.Fatalf("quit called %d times", quits)
	}
}

func TestOpenHardwareSim(t *testing.T) {
	cfg := config.Default()
	cfg.Lines.Driver = config.DriverSim
	cfg.Recorder.Backend = config.BackendSoundcard

	hw, err := openHardware(cfg, hardwareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer hw.Close()

	if hw.sim == nil {
		t.Fatal("expected sim lines")
	}
	if hw.backend != config.BackendModule {
		t.Fatalf("backend = %q, want module", hw.backend)
	}

	d := hw.drivers
	if d.RX.Receiving() {
		t.Fatal("squelch open at start")
	}
	hw.sim.rx.Set(true)
	if !d.RX.Receiving() {
		t.Fatal("squelch did not follow the sim rx line")
	}

	d.PTT.SetKeyed(true)
	if !d.Key.Keyed() {
		t.Fatal("key sense should read the PTT line back")
	}
	d.PTT.SetKeyed(false)

	d.Recorder.StartRecording()
	if !d.Recorder.Recording() {
		t.Fatal("module not recording")
	}
	d.Recorder.StopRecording()

	d.Player.TriggerPlayback()
	if got := hw.sim.play.Writes(); len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("play writes = %v, want one pulse", got)
	}
}

// The sim rig runs a full record/playback cycle on the real clock.
func TestSimRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("runs for several seconds")
	}
	cfg := config.Default()
	cfg.Lines.Driver = config.DriverSim
	hw, err := openHardware(cfg, hardwareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctrl := repeater.New(hw.drivers)

	hw.sim.rx.Set(true)
	deadline := time.Now().Add(2600 * time.Millisecond)
	for time.Now().Before(deadline) {
		ctrl.Poll()
		time.Sleep(repeater.PollInterval)
	}
	hw.sim.rx.Set(false)
	// Gap confirmation, settle and the transmit itself all run inside Poll.
	deadline = time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) && ctrl.Completed() == 0 {
		ctrl.Poll()
		time.Sleep(repeater.PollInterval)
	}

	if ctrl.Completed() != 1 {
		t.Fatalf("completed = %d", ctrl.Completed())
	}
	ptt := hw.sim.ptt.Writes()
	if len(ptt) != 2 || !ptt[0] || ptt[1] {
		t.Fatalf("ptt writes = %v, want one key cycle", ptt)
	}
}
