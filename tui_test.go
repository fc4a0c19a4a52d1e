package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parrot/repeater"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		d, limit time.Duration
		want     string
	}{
		{0, time.Second, "░░░░"},
		{500 * time.Millisecond, time.Second, "██░░"},
		{2 * time.Second, time.Second, "████"},
		{time.Second, 0, "░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.d, tt.limit, 4); got != tt.want {
			t.Errorf("progressBar(%v, %v) = %q, want %q", tt.d, tt.limit, got, tt.want)
		}
	}
}

func TestTUIRecordsHistory(t *testing.T) {
	var m tea.Model = tuiModel{}
	m, _ = m.Update(StatusMsg{Snap: repeater.Snapshot{Phase: repeater.PhaseTransmitting, Playing: true, PlayedDuration: 3 * time.Second}})
	m, _ = m.Update(StatusMsg{Snap: repeater.Snapshot{Completed: 1, LastOutcome: repeater.OutcomeTransmitted}})
	m, _ = m.Update(StatusMsg{Snap: repeater.Snapshot{Completed: 2, LastOutcome: repeater.OutcomeTooShort}})

	tm := m.(tuiModel)
	if len(tm.history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(tm.history))
	}
	if tm.history[0].outcome != repeater.OutcomeTooShort {
		t.Fatalf("newest entry should be first, got %q", tm.history[0].outcome)
	}
	if tm.history[1].played != 3*time.Second {
		t.Fatalf("transmitted entry played %v, want 3s", tm.history[1].played)
	}
}

func TestTUIHistoryBounded(t *testing.T) {
	var m tea.Model = tuiModel{}
	for i := 1; i <= historySize+3; i++ {
		m, _ = m.Update(StatusMsg{Snap: repeater.Snapshot{Completed: i, LastOutcome: repeater.OutcomeTooShort}})
	}
	if n := len(m.(tuiModel).history); n != historySize {
		t.Fatalf("history length %d, want %d", n, historySize)
	}
}

func TestTUIViewShowsPhase(t *testing.T) {
	var m tea.Model = tuiModel{}
	if got := m.View(); got != "Loading..." {
		t.Fatalf("unsized view = %q", got)
	}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.Update(WiringLineMsg{Text: "lines: sim  recorder: module"})
	m, _ = m.Update(StatusMsg{Snap: repeater.Snapshot{
		Phase:            repeater.PhaseGapWait,
		Recording:        true,
		RecordedDuration: 2 * time.Second,
	}})
	view := m.View()
	for _, want := range []string{"GAP WAIT", "REC", "lines: sim", "Recordings (0)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTUISinkSkipsUnchanged(t *testing.T) {
	var sent []tea.Msg
	sink := &tuiSink{send: func(m tea.Msg) { sent = append(sent, m) }}

	sink.Update(repeater.Snapshot{Phase: repeater.PhaseReceiving, RecordedDuration: 10 * time.Millisecond})
	sink.Update(repeater.Snapshot{Phase: repeater.PhaseReceiving, RecordedDuration: 20 * time.Millisecond})
	sink.Update(repeater.Snapshot{Phase: repeater.PhaseReceiving, RecordedDuration: 120 * time.Millisecond})
	sink.Update(repeater.Snapshot{Phase: repeater.PhaseGapWait, RecordedDuration: 120 * time.Millisecond})

	if len(sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sent))
	}
}
