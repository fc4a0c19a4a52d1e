package repeater

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parrot/log"
	"parrot/metrics"
)

// Drivers groups the hardware collaborators of a Controller.
type Drivers struct {
	RX       ReceiveDetector
	Key      KeyInput // optional
	Recorder Recorder
	Player   Player
	PTT      PTT
}

type Controller struct {
	rx       ReceiveDetector
	key      KeyInput
	recorder Recorder
	player   Player
	ptt      PTT
	sinks    []StatusSink
	clock    Clock
	metrics  metrics.Recorder

	state       State
	completed   int
	lastOutcome Outcome
}

type Option func(c *Controller)

func WithClock(clk Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

func WithStatusSink(sink StatusSink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.sinks = append(c.sinks, sink)
		}
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

func New(d Drivers, opts ...Option) *Controller {
	c := &Controller{
		rx:       d.RX,
		key:      d.Key,
		recorder: d.Recorder,
		player:   d.Player,
		ptt:      d.PTT,
		clock:    SystemClock{},
		metrics:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Completed reports how many recordings have been finished, whatever their
// outcome.
func (c *Controller) Completed() int { return c.completed }

// Run polls until ctx is done. A transmit sequence in progress is never
// interrupted; cancellation is observed between polls. On return the
// transmitter is unkeyed and the recorder stopped.
func (c *Controller) Run(ctx context.Context) error {
	defer c.release()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Poll()
		c.clock.Sleep(PollInterval)
	}
}

// Poll runs one iteration of the receive/record state machine and publishes
// a snapshot.
func (c *Controller) Poll() {
	now := c.clock.Now()
	s := &c.state

	if c.rx.Receiving() {
		// A carrier returning during the gap does not re-arm Receiving, so
		// the gap stays timed from the first drop.
		if !s.Receiving && !s.Recording && !s.Overflowed {
			c.startRecording(now)
		}

		if !s.Overflowed {
			s.RecordedDuration = now.Sub(s.ReceiveStart)
		}

		if s.RecordedDuration > MaxRecordTime {
			c.overflow(now)
		}
	} else {
		if s.Receiving {
			s.ReceiveEnd = now
			s.Receiving = false
		}

		if s.Recording || s.Overflowed {
			if s.RecordedDuration > 0 && now.Sub(s.ReceiveEnd) > GapThreshold {
				c.stopRecording()
				s.Overflowed = false
				c.transmit()
			} else if !s.Overflowed {
				s.RecordedDuration = now.Sub(s.ReceiveStart)
			}
		}
	}

	c.publish()
}

func (c *Controller) startRecording(now time.Time) {
	s := &c.state
	s.ID = uuid.NewString()
	s.ReceiveStart = now
	s.Receiving = true
	s.Overflowed = false
	c.recorder.StartRecording()
	s.Recording = true
	c.metrics.IncRecordings()
	log.ReceiveStart(s.ID)
}

func (c *Controller) stopRecording() {
	c.recorder.StopRecording()
	c.state.Recording = false
}

func (c *Controller) overflow(now time.Time) {
	s := &c.state
	s.Overflowed = true
	c.stopRecording()
	s.ReceiveEnd = now
	s.Receiving = false
	s.RecordedDuration = MaxRecordTime
	c.metrics.IncOverflows()
	log.RecordOverflow(s.ID, MaxRecordTime)
}

// transmit trims the recording, applies the length guards and, if the
// recording qualifies, keys the transmitter for the trimmed duration.
func (c *Controller) transmit() {
	s := &c.state
	recorded := s.RecordedDuration
	c.metrics.ObserveRecorded(recorded)

	s.RecordedDuration -= GapThreshold + TailElimination
	target := s.RecordedDuration

	c.clock.Sleep(RecorderSettle)

	if target > MaxTransmitTime+GapThreshold+TailElimination {
		c.finish(OutcomeOverflowGuard, recorded, 0)
		return
	}

	if target <= 0 || target <= MinTransmitLength {
		c.finish(OutcomeTooShort, recorded, 0)
		c.clock.Sleep(PostTransmitSettle)
		return
	}

	c.ptt.SetKeyed(true)
	s.Playing = true
	c.player.TriggerPlayback()
	c.metrics.SetTransmitting(true)

	start := c.clock.Now()
	for {
		elapsed := c.clock.Now().Sub(start)
		if elapsed > target || elapsed >= MaxTransmitTime {
			break
		}
		s.PlayedDuration = elapsed
		c.publish()
		c.clock.Sleep(PlaybackTick)
	}

	c.ptt.SetKeyed(false)
	c.metrics.SetTransmitting(false)
	played := c.clock.Now().Sub(start)

	c.finish(OutcomeTransmitted, recorded, played)
	c.clock.Sleep(PostTransmitSettle)
}

// finish returns every transmit-related field to idle.
func (c *Controller) finish(outcome Outcome, recorded, played time.Duration) {
	s := &c.state
	trimmed := s.RecordedDuration
	id := s.ID

	s.Playing = false
	s.PlayedDuration = 0
	s.RecordedDuration = 0
	s.Overflowed = false
	s.ID = ""
	c.completed++
	c.lastOutcome = outcome

	c.metrics.IncOutcome(string(outcome))
	if outcome == OutcomeTransmitted {
		c.metrics.ObserveTransmit(played)
	} else {
		log.Discard(id, string(outcome), recorded, trimmed)
	}
	log.Transmission(log.TransmissionRecord{
		ID:         id,
		Outcome:    string(outcome),
		RecordedMs: float64(recorded.Milliseconds()),
		TrimmedMs:  float64(trimmed.Milliseconds()),
		PlayedMs:   float64(played.Milliseconds()),
	})
	c.publish()
}

// release puts the hardware in a safe state on shutdown.
func (c *Controller) release() {
	c.ptt.SetKeyed(false)
	if c.state.Recording {
		c.stopRecording()
	}
	c.state.Receiving = false
	c.state.Overflowed = false
	c.state.RecordedDuration = 0
	c.state.ID = ""
	c.publish()
}

func (c *Controller) snapshot() Snapshot {
	s := c.state
	snap := Snapshot{
		Phase:            s.Phase(),
		ID:               s.ID,
		Receiving:        c.rx.Receiving(),
		Recording:        s.Recording,
		ModuleRecording:  c.recorder.Recording(),
		Playing:          s.Playing,
		Overflowed:       s.Overflowed,
		RecordedDuration: s.RecordedDuration,
		PlayedDuration:   s.PlayedDuration,
		Completed:        c.completed,
		LastOutcome:      c.lastOutcome,
	}
	snap.PhaseName = snap.Phase.String()
	if c.key != nil {
		snap.Keyed = c.key.Keyed()
	}
	return snap
}

func (c *Controller) publish() {
	c.metrics.SetPhase(c.state.Phase().String())
	if len(c.sinks) == 0 {
		return
	}
	snap := c.snapshot()
	for _, sink := range c.sinks {
		sink.Update(snap)
	}
}
