// Package metrics exposes repeater activity to monitoring systems.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so the controller never needs nil checks. Real recorders
// forward to Prometheus (pull) or InfluxDB (push); Multi combines them.
package metrics

import "time"

// Recorder defines the observability hooks the controller calls.
type Recorder interface {
	IncRecordings()
	IncOverflows()
	IncOutcome(outcome string)
	ObserveRecorded(d time.Duration)
	ObserveTransmit(d time.Duration)
	SetTransmitting(on bool)
	SetPhase(phase string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRecordings()                {}
func (NoopRecorder) IncOverflows()                 {}
func (NoopRecorder) IncOutcome(string)             {}
func (NoopRecorder) ObserveRecorded(time.Duration) {}
func (NoopRecorder) ObserveTransmit(time.Duration) {}
func (NoopRecorder) SetTransmitting(bool)          {}
func (NoopRecorder) SetPhase(string)               {}

// Multi fans every call out to each recorder in order.
type Multi []Recorder

func (m Multi) IncRecordings() {
	for _, r := range m {
		r.IncRecordings()
	}
}

func (m Multi) IncOverflows() {
	for _, r := range m {
		r.IncOverflows()
	}
}

func (m Multi) IncOutcome(outcome string) {
	for _, r := range m {
		r.IncOutcome(outcome)
	}
}

func (m Multi) ObserveRecorded(d time.Duration) {
	for _, r := range m {
		r.ObserveRecorded(d)
	}
}

func (m Multi) ObserveTransmit(d time.Duration) {
	for _, r := range m {
		r.ObserveTransmit(d)
	}
}

func (m Multi) SetTransmitting(on bool) {
	for _, r := range m {
		r.SetTransmitting(on)
	}
}

func (m Multi) SetPhase(phase string) {
	for _, r := range m {
		r.SetPhase(phase)
	}
}
