package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog      zerolog.Logger
	diagFile     *os.File
	transmitFile *os.File
	logMu        sync.Mutex
	logReady     bool
	pid          int
	dir          string
)

// TransmissionRecord summarises one finished recording.
type TransmissionRecord struct {
	ID         string
	Outcome    string
	RecordedMs float64
	TrimmedMs  float64
	PlayedMs   float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: PARROT_LOG_PATH environment variable
	if envPath := os.Getenv("PARROT_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens the diagnostics and transmissions logs. When console is not
// nil, diagnostics are mirrored to it as well.
func Init(level string, console io.Writer) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	pid = os.Getpid()

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transmitPath := filepath.Join(dir, "transmissions_log.txt")
	transmitFile, err = os.OpenFile(transmitPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	if console != nil {
		out = zerolog.MultiLevelWriter(out, zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"})
	}
	diagLog = zerolog.New(out).Level(lvl).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transmitFile != nil {
		transmitFile.Close()
		transmitFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

// LineError reports a failed read or write on a hardware line.
func LineError(line string, err error) {
	if logReady {
		diagLog.Error().Str("line", line).Err(err).Msg("line_error")
	}
}

func ReceiveStart(id string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("id", id).Msg("receive_start")
}

func RecordOverflow(id string, capped time.Duration) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("id", id).
		Float64("capped_s", capped.Seconds()).
		Msg("record_overflow")
}

// Discard reports a recording that was dropped instead of replayed.
func Discard(id, reason string, recorded, trimmed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("id", id).
		Str("reason", reason).
		Int64("recorded_ms", recorded.Milliseconds()).
		Int64("trimmed_ms", trimmed.Milliseconds()).
		Msg("discard")
}

// Transmission logs a finished recording to the diagnostics log and appends
// a tab-separated line to the transmissions log.
func Transmission(r TransmissionRecord) {
	if !logReady {
		return
	}

	diagLog.Info().
		Str("id", r.ID).
		Str("outcome", r.Outcome).
		Float64("recorded_ms", r.RecordedMs).
		Float64("trimmed_ms", r.TrimmedMs).
		Float64("played_ms", r.PlayedMs).
		Msg("recording_done")

	logMu.Lock()
	defer logMu.Unlock()
	if transmitFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\t%.0f\t%.0f\t%.0f\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, r.ID, r.Outcome, r.RecordedMs, r.TrimmedMs, r.PlayedMs)
	transmitFile.WriteString(line)
}

func SessionStart(lines, recorder string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("lines", lines).
		Str("recorder", recorder).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}
