package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"parrot/log"
)

const (
	DefaultSampleRate  = 16000
	DefaultMaxDuration = 120 * time.Second
)

// Soundcard is a record/playback backend built on a capture device and the
// default output. It keeps one recording in memory; starting a new one
// discards the previous.
type Soundcard struct {
	ctx     Context
	capture CaptureDevice
	config  Config
	limit   int

	mu  sync.Mutex
	buf []byte

	recording atomic.Bool
	playback  sync.WaitGroup
}

type SoundcardOption func(s *Soundcard)

// WithMaxDuration caps the buffered recording. Audio past the cap is dropped.
func WithMaxDuration(d time.Duration) SoundcardOption {
	return func(s *Soundcard) {
		s.limit = bufferBytes(s.config, d)
	}
}

func bufferBytes(cfg Config, d time.Duration) int {
	frames := int(d.Seconds() * float64(cfg.SampleRate))
	return frames * int(cfg.Channels) * BytesPerFrame
}

func NewSoundcard(ctx Context, device *DeviceInfo, cfg Config, opts ...SoundcardOption) (*Soundcard, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	capture, err := ctx.NewCapture(device, cfg)
	if err != nil {
		return nil, err
	}
	s := &Soundcard{
		ctx:     ctx,
		capture: capture,
		config:  cfg,
	}
	s.limit = bufferBytes(cfg, DefaultMaxDuration)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Soundcard) DeviceName() string { return s.capture.DeviceName() }

func (s *Soundcard) StartRecording() {
	if s.recording.Load() {
		return
	}
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.mu.Unlock()

	s.capture.SetCallback(s.append)
	s.recording.Store(true)
	if err := s.capture.Start(); err != nil {
		s.recording.Store(false)
		s.capture.ClearCallback()
		log.Errorf("soundcard capture start: %v", err)
	}
}

func (s *Soundcard) append(data []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.limit - len(s.buf)
	if room <= 0 {
		return
	}
	if len(data) > room {
		data = data[:room]
	}
	s.buf = append(s.buf, data...)
}

func (s *Soundcard) StopRecording() {
	if !s.recording.Swap(false) {
		return
	}
	s.capture.Stop()
	s.capture.ClearCallback()
}

func (s *Soundcard) Recording() bool { return s.recording.Load() }

// Buffered returns the length of the held recording.
func (s *Soundcard) Buffered() time.Duration {
	s.mu.Lock()
	n := len(s.buf)
	s.mu.Unlock()
	perSecond := int(s.config.SampleRate) * int(s.config.Channels) * BytesPerFrame
	return time.Duration(n) * time.Second / time.Duration(perSecond)
}

// TriggerPlayback starts one pass of the held recording and returns
// immediately.
func (s *Soundcard) TriggerPlayback() {
	s.mu.Lock()
	pcm := make([]byte, len(s.buf))
	copy(pcm, s.buf)
	s.mu.Unlock()

	if len(pcm) == 0 {
		log.Warn("soundcard playback with empty recording")
		return
	}

	s.playback.Add(1)
	go func() {
		defer s.playback.Done()
		if err := s.ctx.Play(pcm, s.config); err != nil {
			log.Errorf("soundcard playback: %v", err)
		}
	}()
}

// Wait blocks until every triggered playback has drained.
func (s *Soundcard) Wait() {
	s.playback.Wait()
}

func (s *Soundcard) Close() {
	s.StopRecording()
	s.Wait()
	s.capture.Close()
}
