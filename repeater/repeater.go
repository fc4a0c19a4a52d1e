// Package repeater implements the simplex repeater timing state machine:
// record while the receiver is squelch-open, wait for the end-of-transmission
// gap, then key the transmitter and replay the recording.
//
// The package reasons only in positive booleans. Line polarity and the
// mechanics of recording belong to the collaborators passed to New.
package repeater

import "time"

// Fixed timing contract. None of these are configurable.
const (
	GapThreshold      = 1000 * time.Millisecond
	TailElimination   = 500 * time.Millisecond
	MaxTransmitTime   = 120 * time.Second
	MinTransmitLength = 1000 * time.Millisecond
	MaxRecordTime     = 120 * time.Second

	PlaybackTick       = 200 * time.Millisecond
	RecorderSettle     = 500 * time.Millisecond
	PostTransmitSettle = 1000 * time.Millisecond
	PollInterval       = 10 * time.Millisecond
)

// ReceiveDetector reports whether the receiver squelch is open.
type ReceiveDetector interface {
	Receiving() bool
}

// KeyInput reports the transmitter key state. Read for display only.
type KeyInput interface {
	Keyed() bool
}

// Recorder drives the record side of the record/playback backend.
type Recorder interface {
	StartRecording()
	StopRecording()
	// Recording is the backend's own view and may lag the controller's.
	Recording() bool
}

// Player fires one playback pass of the last recording. There is no stop
// call; the controller bounds playback by time.
type Player interface {
	TriggerPlayback()
}

// PTT keys and unkeys the transmitter.
type PTT interface {
	SetKeyed(on bool)
}

// StatusSink observes controller snapshots. It must not block.
type StatusSink interface {
	Update(Snapshot)
}

// Clock supplies monotonic time and sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReceiving
	PhaseOverflowed
	PhaseGapWait
	PhaseTransmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReceiving:
		return "receiving"
	case PhaseOverflowed:
		return "overflowed"
	case PhaseGapWait:
		return "gap_wait"
	case PhaseTransmitting:
		return "transmitting"
	}
	return "unknown"
}

// State is the controller's entire mutable state.
type State struct {
	ID               string
	Receiving        bool
	Recording        bool
	Playing          bool
	Overflowed       bool
	ReceiveStart     time.Time
	ReceiveEnd       time.Time
	RecordedDuration time.Duration
	PlayedDuration   time.Duration
}

// Phase derives the state machine phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.Playing:
		return PhaseTransmitting
	case s.Overflowed:
		return PhaseOverflowed
	case s.Recording && s.Receiving:
		return PhaseReceiving
	case s.Recording:
		return PhaseGapWait
	}
	return PhaseIdle
}

// Snapshot is what status sinks see once per poll cycle.
type Snapshot struct {
	Phase            Phase         `json:"-"`
	PhaseName        string        `json:"phase"`
	ID               string        `json:"id,omitempty"`
	Receiving        bool          `json:"receiving"`
	Keyed            bool          `json:"keyed"`
	Recording        bool          `json:"recording"`
	ModuleRecording  bool          `json:"module_recording"`
	Playing          bool          `json:"playing"`
	Overflowed       bool          `json:"overflowed"`
	RecordedDuration time.Duration `json:"recorded_ns"`
	PlayedDuration   time.Duration `json:"played_ns"`
	Completed        int           `json:"completed"`
	LastOutcome      Outcome       `json:"last_outcome,omitempty"`
}

// Outcome classifies how a recording ended.
type Outcome string

const (
	OutcomeTransmitted   Outcome = "transmitted"
	OutcomeTooShort      Outcome = "too_short"
	OutcomeOverflowGuard Outcome = "overflow_guard"
)
