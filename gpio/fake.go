package gpio

import (
	"sync"
	"sync/atomic"
)

// FakeLine is an in-memory line usable as both Input and Output. Sim mode
// and tests drive it with Set.
type FakeLine struct {
	v atomic.Bool

	mu     sync.Mutex
	writes []bool
	err    error
}

func NewFake() *FakeLine { return &FakeLine{} }

func (f *FakeLine) Set(active bool) { f.v.Store(active) }

// Fail makes every later Read and Write return err.
func (f *FakeLine) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeLine) Read() (bool, error) {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	return f.v.Load(), nil
}

func (f *FakeLine) Write(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, active)
	f.v.Store(active)
	return nil
}

// Writes returns every value written so far.
func (f *FakeLine) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}
