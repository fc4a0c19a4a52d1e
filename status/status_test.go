package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"parrot/repeater"
)

func snap(phase repeater.Phase, recorded time.Duration) repeater.Snapshot {
	return repeater.Snapshot{
		Phase:            phase,
		PhaseName:        phase.String(),
		Receiving:        phase == repeater.PhaseReceiving,
		Recording:        phase == repeater.PhaseReceiving || phase == repeater.PhaseGapWait,
		RecordedDuration: recorded,
	}
}

func TestBoardDedupesAtGranularity(t *testing.T) {
	hub := NewHub()
	b := NewBoard(hub)

	b.Update(snap(repeater.PhaseIdle, 0))
	b.Update(snap(repeater.PhaseIdle, 0))
	b.Update(snap(repeater.PhaseReceiving, 10*time.Millisecond))
	b.Update(snap(repeater.PhaseReceiving, 50*time.Millisecond))
	b.Update(snap(repeater.PhaseReceiving, 110*time.Millisecond))

	if got := len(hub.broadcast); got != 3 {
		t.Fatalf("expected 3 broadcasts, got %d", got)
	}
	if got := b.Latest().RecordedDuration; got != 110*time.Millisecond {
		t.Fatalf("Latest should hold the exact snapshot, got %v", got)
	}
}

func TestBoardWithoutHub(t *testing.T) {
	b := NewBoard(nil)
	b.Update(snap(repeater.PhaseGapWait, time.Second))
	if b.Latest().PhaseName != "gap_wait" {
		t.Fatalf("unexpected latest %+v", b.Latest())
	}
}

func TestStatusEndpoint(t *testing.T) {
	b := NewBoard(nil)
	b.Update(snap(repeater.PhaseReceiving, 1500*time.Millisecond))
	s := NewServer("", b, NewHub(), nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["phase"] != "receiving" || got["receiving"] != true {
		t.Fatalf("unexpected body %v", got)
	}
	if got["recorded_ns"] != float64(1500*time.Millisecond) {
		t.Fatalf("recorded_ns = %v", got["recorded_ns"])
	}
}

func TestMetricsRoutedOnlyWhenGiven(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "parrot_recordings_total 1\n")
	})

	with := NewServer("", NewBoard(nil), NewHub(), metrics)
	rec := httptest.NewRecorder()
	with.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "parrot_recordings_total") {
		t.Fatalf("metrics: %d %q", rec.Code, rec.Body.String())
	}

	without := NewServer("", NewBoard(nil), NewHub(), nil)
	rec = httptest.NewRecorder()
	without.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics, got %d", rec.Code)
	}
}

func TestWebSocketGreetsAndStreams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	b := NewBoard(hub)
	b.Update(snap(repeater.PhaseIdle, 0))
	// Drain the pre-connect broadcast so the stream starts clean.
	<-hub.broadcast
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer("", b, hub, nil).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() repeater.Snapshot {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var s repeater.Snapshot
		if err := conn.ReadJSON(&s); err != nil {
			t.Fatalf("read: %v", err)
		}
		return s
	}

	if got := read(); got.PhaseName != "idle" {
		t.Fatalf("greeting phase %q", got.PhaseName)
	}

	b.Update(snap(repeater.PhaseReceiving, 0))
	if got := read(); got.PhaseName != "receiving" || !got.Receiving {
		t.Fatalf("streamed %+v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer("127.0.0.1:0", NewBoard(nil), NewHub(), nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
