package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parrot/repeater"
	"parrot/status"
)

// TUI message types
type StatusMsg struct{ Snap repeater.Snapshot }
type WiringLineMsg struct{ Text string } // line driver and recorder backend
type tickMsg time.Time

const historySize = 8

type historyEntry struct {
	at      time.Time
	outcome repeater.Outcome
	played  time.Duration
}

type tuiModel struct {
	snap          repeater.Snapshot
	frame         int
	width, height int
	wiringLine    string
	history       []historyEntry
	lastPlayed    time.Duration
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	lampOn      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0"))
	lampOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236"))
	lampColors  = map[string]string{"RX": "42", "KEY": "214", "REC": "196", "PLAY": "33"}
	phaseColors = map[repeater.Phase]string{
		repeater.PhaseIdle:         "241",
		repeater.PhaseReceiving:    "42",
		repeater.PhaseGapWait:      "220",
		repeater.PhaseOverflowed:   "208",
		repeater.PhaseTransmitting: "196",
	}
	outcomeColors = map[repeater.Outcome]string{
		repeater.OutcomeTransmitted:   "42",
		repeater.OutcomeTooShort:      "245",
		repeater.OutcomeOverflowGuard: "208",
	}
)

func NewTUIProgram() *tea.Program {
	return tea.NewProgram(tuiModel{}, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		if msg.Snap.Playing {
			m.lastPlayed = msg.Snap.PlayedDuration
		}
		if msg.Snap.Completed > m.snap.Completed {
			e := historyEntry{at: time.Now(), outcome: msg.Snap.LastOutcome}
			if e.outcome == repeater.OutcomeTransmitted {
				e.played = m.lastPlayed
			}
			m.history = append([]historyEntry{e}, m.history...)
			if len(m.history) > historySize {
				m.history = m.history[:historySize]
			}
			m.lastPlayed = 0
		}
		m.snap = msg.Snap

	case WiringLineMsg:
		m.wiringLine = msg.Text
	}
	return m, nil
}

func lamp(label string, on bool) string {
	text := fmt.Sprintf(" %-4s ", label)
	if !on {
		return lampOff.Render(text)
	}
	return lampOn.Background(lipgloss.Color(lampColors[label])).Render(text)
}

// progressBar renders d against limit in width cells.
func progressBar(d, limit time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if limit > 0 && d > 0 {
		filled = int(int64(d) * int64(width) / int64(limit))
	}
	filled = min(filled, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	s := m.snap
	var left []string

	left = append(left, strings.Join([]string{
		lamp("RX", s.Receiving),
		lamp("KEY", s.Keyed),
		lamp("REC", s.ModuleRecording),
		lamp("PLAY", s.Playing),
	}, " "))
	left = append(left, "")

	phase := lipgloss.NewStyle().
		Foreground(lipgloss.Color(phaseColors[s.Phase])).
		Bold(s.Phase != repeater.PhaseIdle).
		Render("● " + strings.ToUpper(strings.ReplaceAll(s.Phase.String(), "_", " ")))
	left = append(left, phase)

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	const barWidth = 24
	switch {
	case s.Playing:
		left = append(left, dim.Render(fmt.Sprintf("TX  %5.1fs ", s.PlayedDuration.Seconds()))+
			progressBar(s.PlayedDuration, s.RecordedDuration, barWidth))
	case s.Recording || s.Overflowed:
		left = append(left, dim.Render(fmt.Sprintf("REC %5.1fs ", s.RecordedDuration.Seconds()))+
			progressBar(s.RecordedDuration, repeater.MaxRecordTime, barWidth))
	default:
		left = append(left, dim.Render("waiting for traffic"))
	}
	if s.Overflowed {
		left = append(left, lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Render("  ⚠ recording capped at 120s"))
	}

	left = append(left, "")
	if m.wiringLine != "" {
		left = append(left, dim.Render(m.wiringLine))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	left = append(left, helpStyle.Render("q to quit  parrot "+version))

	const leftWidth = 42
	rightWidth := max(m.width-leftWidth-1, 20)

	var right strings.Builder
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("246")).
		Render(fmt.Sprintf("Recordings (%d)", s.Completed))
	right.WriteString(title + "\n\n")
	if len(m.history) == 0 {
		right.WriteString(dim.Render("None yet"))
	}
	for _, e := range m.history {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(outcomeColors[e.outcome]))
		line := fmt.Sprintf("%s  %-14s", e.at.Format("15:04:05"), e.outcome)
		if e.outcome == repeater.OutcomeTransmitted {
			line += fmt.Sprintf(" %5.1fs", e.played.Seconds())
		}
		right.WriteString(style.Render(line) + "\n")
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// tuiSink forwards controller snapshots to the TUI, skipping those that
// would not change what is drawn.
type tuiSink struct {
	sent repeater.Snapshot
	seen bool
	send func(tea.Msg)
}

func newTUISink() *tuiSink {
	return &tuiSink{send: tuiSend}
}

func (t *tuiSink) Update(s repeater.Snapshot) {
	c := s
	c.RecordedDuration = c.RecordedDuration.Truncate(status.Granularity)
	c.PlayedDuration = c.PlayedDuration.Truncate(status.Granularity)
	if t.seen && c == t.sent {
		return
	}
	t.sent = c
	t.seen = true
	t.send(StatusMsg{Snap: s})
}
