// Package audio provides a soundcard record/playback backend: received audio
// is buffered as raw PCM while recording and written back out unchanged on
// playback.
package audio

const (
	WAVHeaderSize = 44

	// 16-bit mono PCM.
	BytesPerFrame = 2
)

type DataCallback func(data []byte, frameCount uint32)

type Config struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config Config) (CaptureDevice, error)
	// Play writes pcm to the default output and blocks until drained.
	Play(pcm []byte, config Config) error
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice returns the capture device called name, or nil for the system
// default when name is empty.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, &DeviceNotFoundError{Name: name}
}

type DeviceNotFoundError struct {
	Name string
}

func (e *DeviceNotFoundError) Error() string {
	return "capture device not found: " + e.Name
}
