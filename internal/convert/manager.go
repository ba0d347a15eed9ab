package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/score2flac/internal/config"
	"github.com/handiism/score2flac/internal/exec"
	"github.com/handiism/score2flac/internal/logging"
	"github.com/handiism/score2flac/internal/model"
	"github.com/handiism/score2flac/internal/pipeline"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents a conversion progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// Stage is the pipeline stage the event belongs to, empty for job-level events.
	Stage string

	// Done and Total count finished and planned stages.
	Done  int
	Total int
}

// maxEvents is the number of recent events kept for Events.
const maxEvents = 10

// ErrNotInitialized is returned by Convert when Initialize has not succeeded.
var ErrNotInitialized = errors.New("converter not initialized")

// Manager coordinates the conversion of one input file.
type Manager struct {
	settings *config.Settings
	runner   exec.Runner

	job  *model.Job
	plan *pipeline.Plan

	totalStages int32
	doneStages  int32

	events     []ProgressEvent
	onProgress func(ProgressEvent)
	mu         sync.RWMutex
}

// NewManager creates a new conversion Manager issuing commands through runner.
func NewManager(settings *config.Settings, runner exec.Runner, onProgress func(ProgressEvent)) *Manager {
	if runner == nil {
		runner = exec.NewLocalRunner()
	}
	return &Manager{
		settings:   settings,
		runner:     runner,
		onProgress: onProgress,
	}
}

// Initialize validates the input name for kind and builds the stage plan.
//
// Returns a *model.ValidationError if the name is not acceptable for kind.
func (m *Manager) Initialize(ctx context.Context, kind model.Kind, input string) error {
	job, err := model.NewJob(kind, input)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Rejected %s: %v", input, err), Level: LevelError})
		return err
	}

	plan := pipeline.BuildPlan(job, m.settings.ToPlanConfig())

	m.mu.Lock()
	m.job = job
	m.plan = plan
	m.mu.Unlock()

	atomic.StoreInt32(&m.totalStages, int32(len(plan.Stages)))
	atomic.StoreInt32(&m.doneStages, 0)

	logging.FromContext(ctx).Debug("Plan built.", "input", input, "kind", kind.String(), "stages", len(plan.Stages))
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Converting %s (%d stages)", filepath.Base(input), len(plan.Stages)),
		Level:   LevelInfo,
		Total:   len(plan.Stages),
	})

	return nil
}

// Convert runs the plan built by Initialize.
//
// In strict mode the tools and the soundfont are checked first, unless
// preflight is disabled in the settings, and the first failing stage aborts
// the conversion with a *pipeline.StageError. In lenient mode every stage is
// attempted and failures are only reported as warnings.
func (m *Manager) Convert(ctx context.Context) (*pipeline.Report, error) {
	m.mu.RLock()
	plan := m.plan
	m.mu.RUnlock()
	if plan == nil {
		return nil, ErrNotInitialized
	}
	atomic.StoreInt32(&m.doneStages, 0)

	opts := m.settings.ToRunnerOptions()
	opts.OnStage = m.onStage
	runner := pipeline.NewRunner(m.runner, opts)

	if !opts.Lenient && m.settings.Preflight {
		m.progress(ProgressEvent{Message: "Checking tools and soundfont", Level: LevelVerbose, Total: len(plan.Stages)})
		if err := runner.Preflight(ctx, plan); err != nil {
			m.progress(ProgressEvent{Message: err.Error(), Level: LevelError, Stage: pipeline.StagePreflight, Total: len(plan.Stages)})
			return nil, err
		}
	}

	report, err := runner.Run(ctx, plan)
	if err != nil {
		if ctx.Err() != nil {
			m.progress(ProgressEvent{Message: "Conversion interrupted", Level: LevelWarning, Total: len(plan.Stages)})
		}
		return report, err
	}

	if failed := report.Failed(); len(failed) > 0 {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Finished %s, %d of %d stages failed", filepath.Base(plan.Job.Input), len(failed), len(report.Results)),
			Level:   LevelWarning,
			Done:    len(report.Results),
			Total:   len(plan.Stages),
		})
		return report, nil
	}

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Successfully converted %s", filepath.Base(plan.Job.Input)),
		Level:   LevelSuccess,
		Done:    len(plan.Stages),
		Total:   len(plan.Stages),
	})
	return report, nil
}

// GetProgress returns the number of finished and planned stages.
func (m *Manager) GetProgress() (done, total int32) {
	return atomic.LoadInt32(&m.doneStages), atomic.LoadInt32(&m.totalStages)
}

// Events returns the most recent progress events, oldest first.
func (m *Manager) Events() []ProgressEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProgressEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Artifacts returns the paths of the files the plan keeps.
func (m *Manager) Artifacts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.plan == nil {
		return nil
	}
	return m.plan.Outputs()
}

// Job returns the job built by Initialize, or nil.
func (m *Manager) Job() *model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.job
}

func (m *Manager) onStage(ev pipeline.StageEvent) {
	switch ev.Kind {
	case pipeline.EventStarted:
		m.progress(ProgressEvent{
			Message: describe(ev.Stage),
			Level:   LevelVerbose,
			Stage:   ev.Stage.Name,
			Done:    ev.Index,
			Total:   ev.Total,
		})
	case pipeline.EventCompleted:
		done := atomic.AddInt32(&m.doneStages, 1)
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Finished %s in %s", ev.Stage.Name, ev.Duration.Round(time.Millisecond)),
			Level:   LevelInfo,
			Stage:   ev.Stage.Name,
			Done:    int(done),
			Total:   ev.Total,
		})
	case pipeline.EventFailed:
		done := atomic.AddInt32(&m.doneStages, 1)
		level := LevelError
		if m.settings.Lenient {
			level = LevelWarning
		}
		m.progress(ProgressEvent{
			Message: ev.Err.Error(),
			Level:   level,
			Stage:   ev.Stage.Name,
			Done:    int(done),
			Total:   ev.Total,
		})
	}
}

func describe(s pipeline.Stage) string {
	if s.Command == nil {
		return fmt.Sprintf("Removing %s", s.Remove)
	}
	return fmt.Sprintf("Running %s", s.Command)
}

func (m *Manager) progress(event ProgressEvent) {
	m.mu.Lock()
	m.events = append(m.events, event)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	m.mu.Unlock()

	if m.onProgress != nil {
		m.onProgress(event)
	}
}
