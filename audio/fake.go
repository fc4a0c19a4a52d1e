package audio

import (
	"os"
	"sync"
)

const fakeChunkFrames = 1024

// FakeContext captures a fixed PCM clip and keeps everything it is asked to
// play. Capture is delivered synchronously from Start.
type FakeContext struct {
	pcm []byte

	mu     sync.Mutex
	played [][]byte
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// NewFakeContextFromWAV loads a 16-bit mono WAV and drops its header.
func NewFakeContextFromWAV(path string) (*FakeContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContext(data), nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ Config) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm}, nil
}

func (f *FakeContext) Play(pcm []byte, _ Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, pcm)
	return nil
}

// Played returns every buffer passed to Play, oldest first.
func (f *FakeContext) Played() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.played))
	copy(out, f.played)
	return out
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	pcm []byte

	mu      sync.Mutex
	cb      DataCallback
	started int
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	cb := f.cb
	f.started++
	f.mu.Unlock()
	if cb == nil {
		return nil
	}
	chunk := fakeChunkFrames * BytesPerFrame
	for pos := 0; pos < len(f.pcm); pos += chunk {
		end := min(pos+chunk, len(f.pcm))
		data := make([]byte, end-pos)
		copy(data, f.pcm[pos:end])
		cb(data, uint32(len(data)/BytesPerFrame))
	}
	return nil
}

func (f *FakeCapture) Stop()  {}
func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// Starts reports how many times Start was called.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}
