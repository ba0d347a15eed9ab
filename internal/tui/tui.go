// Package tui provides a Bubble Tea terminal user interface for score2flac.
package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/score2flac/internal/config"
	"github.com/handiism/score2flac/internal/convert"
	"github.com/handiism/score2flac/internal/exec"
	"github.com/handiism/score2flac/internal/logging"
	"github.com/handiism/score2flac/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	artifactStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateConverting
	StateComplete
	StateError
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	runner    exec.Runner
	logWriter io.Writer
	logs      []convert.ProgressEvent
	artifacts []string
	failed    int
	err       error

	// Conversion context
	ctx    context.Context
	cancel context.CancelFunc

	manager *convert.Manager
	kind    model.Kind

	doneStages  int32
	totalStages int32

	// Options
	lenient     bool
	renderScore bool
	verbose     bool

	width  int
	height int
}

// NewModel creates a new TUI model.
//
// A nil runner issues the commands on the local machine. Log records are
// written to logWriter, or dropped when it is nil.
func NewModel(settings *config.Settings, runner exec.Runner, logWriter io.Writer) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logWriter == nil {
		logWriter = io.Discard
	}

	ti := textinput.New()
	ti.Placeholder = "songs/test.abc"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:       StateInput,
		textInput:   ti,
		spinner:     sp,
		progress:    prog,
		settings:    settings,
		runner:      runner,
		logWriter:   logWriter,
		ctx:         ctx,
		cancel:      cancel,
		lenient:     settings.Lenient,
		renderScore: settings.RenderScore,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when the input has been validated and planned.
	InitDoneMsg struct {
		Kind    model.Kind
		Manager *convert.Manager
		Err     error
	}

	// ConvertDoneMsg is sent when the conversion finishes.
	ConvertDoneMsg struct {
		Failed int
		Err    error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateConverting || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializeConversion(), m.spinner.Tick)
			}

		// Option toggles use control keys so they never collide with a typed path.
		case "ctrl+l":
			if m.state == StateInput {
				m.lenient = !m.lenient
			}
			return m, nil

		case "ctrl+s":
			if m.state == StateInput {
				m.renderScore = !m.renderScore
			}
			return m, nil

		case "ctrl+o":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new conversion
				m.state = StateInput
				m.logs = nil
				m.artifacts = nil
				m.failed = 0
				m.err = nil
				m.doneStages = 0
				m.totalStages = 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		if m.state != StateInitializing {
			// Cancelled while the plan was being built.
			return m, nil
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.kind = msg.Kind
			m.manager = msg.Manager
			m.artifacts = msg.Manager.Artifacts()
			m.doneStages, m.totalStages = msg.Manager.GetProgress()
			m.state = StateConverting
			// Start the conversion and tick for progress updates
			cmds = append(cmds, m.startConversion(), m.tickProgress())
		}

	case ConvertDoneMsg:
		m.syncProgress()
		m.failed = msg.Failed
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Update progress from manager
		if m.manager != nil && m.state == StateConverting {
			m.syncProgress()

			var percent float64
			if m.totalStages > 0 {
				percent = float64(m.doneStages) / float64(m.totalStages)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// syncProgress copies counters and recent events from the manager.
func (m *Model) syncProgress() {
	if m.manager == nil {
		return
	}
	m.doneStages, m.totalStages = m.manager.GetProgress()

	var logs []convert.ProgressEvent
	for _, ev := range m.manager.Events() {
		// Filter verbose messages if not in verbose mode
		if ev.Level == convert.LevelVerbose && !m.verbose {
			continue
		}
		logs = append(logs, ev)
	}
	m.logs = logs
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ score2flac"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Convert ABC scores and MIDI files to FLAC"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateConverting:
		b.WriteString(m.viewConverting())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a .abc or .mid file:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Keep going when a tool fails (ctrl+l)\n", checkbox(m.lenient)))
	b.WriteString(fmt.Sprintf("  %s Render PDF score for .abc input (ctrl+s)\n", checkbox(m.renderScore)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+o)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("SoundFont: %s", m.settings.SoundFontPath)))
	b.WriteString("\n")

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Checking input..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewConverting() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Converting %s (%s)", filepath.Base(m.textInput.Value()), m.kind)))
	b.WriteString("\n\n")

	// Progress bar
	var percent float64
	if m.totalStages > 0 {
		percent = float64(m.doneStages) / float64(m.totalStages)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Stages: %d/%d", m.doneStages, m.totalStages)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	title := "✨ Conversion complete!"
	if m.failed > 0 {
		title = fmt.Sprintf("Finished with %d failed stage(s)", m.failed)
	}

	var files strings.Builder
	for _, path := range m.artifacts {
		files.WriteString("\n")
		files.WriteString(artifactStyle.Render("  ♪ " + path))
	}

	b.WriteString(boxStyle.Render(fmt.Sprintf("%s\n\nStages: %d/%d\nFiles:%s", title, m.doneStages, m.totalStages, files.String())))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case convert.LevelError:
			style = errorStyle
			prefix = "✗"
		case convert.LevelWarning:
			style = warningStyle
			prefix = "!"
		case convert.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case convert.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+l: lenient • ctrl+s: score • ctrl+o: verbose • esc: quit"
	case StateInitializing, StateConverting:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new conversion • q: quit"
	}
	return ""
}

// initializeConversion validates the entered path and plans the conversion.
func (m Model) initializeConversion() tea.Cmd {
	input := strings.TrimSpace(m.textInput.Value())
	settings := *m.settings
	settings.Lenient = m.lenient
	settings.RenderScore = m.renderScore
	ctx := logging.WithLogger(m.ctx, logging.New(settings.LogLevel, settings.LogFormat, m.logWriter))
	runner := m.runner

	return func() tea.Msg {
		kind, ok := model.KindForPath(input)
		if !ok {
			return InitDoneMsg{Err: &model.ValidationError{Kind: kind, Args: []string{input}, Err: model.ErrExtension}}
		}

		// Events are collected by the manager; the TUI polls them via TickMsg.
		manager := convert.NewManager(&settings, runner, nil)
		if err := manager.Initialize(ctx, kind, input); err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{Kind: kind, Manager: manager}
	}
}

// startConversion runs the conversion in background.
func (m Model) startConversion() tea.Cmd {
	manager := m.manager
	ctx := logging.WithLogger(m.ctx, logging.New(m.settings.LogLevel, m.settings.LogFormat, m.logWriter))

	return func() tea.Msg {
		if manager == nil {
			return ConvertDoneMsg{Err: fmt.Errorf("no converter")}
		}

		report, err := manager.Convert(ctx)
		var failed int
		if report != nil {
			failed = len(report.Failed())
		}
		return ConvertDoneMsg{Failed: failed, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logWriter io.Writer) error {
	p := tea.NewProgram(NewModel(settings, nil, logWriter), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
