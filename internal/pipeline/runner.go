package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/handiism/score2flac/internal/exec"
	ioutils "github.com/handiism/score2flac/internal/io"
	"github.com/handiism/score2flac/internal/logging"
)

// EventKind tells what happened to a stage.
type EventKind int

const (
	EventStarted EventKind = iota
	EventCompleted
	EventFailed
)

// StageEvent is reported to Options.OnStage around every stage.
type StageEvent struct {
	Kind     EventKind
	Index    int
	Total    int
	Stage    Stage
	Err      error
	Duration time.Duration
}

// Options controls failure propagation.
type Options struct {
	// Lenient keeps going after a failed stage and skips output checks.
	Lenient bool

	// StageTimeout bounds each command. Zero means no limit.
	StageTimeout time.Duration

	// OnStage is called synchronously for every stage event. May be nil.
	OnStage func(StageEvent)
}

// StageResult records the outcome of one executed stage.
type StageResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Report lists the stages that ran.
type Report struct {
	Results []StageResult
}

// Failed returns the results of the stages that did not succeed.
func (r *Report) Failed() []StageResult {
	var failed []StageResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Runner executes plans stage by stage.
type Runner struct {
	exec exec.Runner
	opts Options
}

// NewRunner creates a Runner issuing commands through r.
func NewRunner(r exec.Runner, opts Options) *Runner {
	return &Runner{exec: r, opts: opts}
}

// Preflight checks, before anything is started, that the input exists, every
// tool of the plan is installed and the soundfont is a SoundFont 2 bank.
func (r *Runner) Preflight(ctx context.Context, plan *Plan) error {
	logger := logging.FromContext(ctx)

	if !ioutils.FileExists(plan.Job.Input) {
		return &StageError{
			Stage: StagePreflight,
			Cause: fmt.Errorf("%w: %s", ErrInputMissing, plan.Job.Input),
		}
	}

	for _, tool := range plan.Tools() {
		path, err := r.exec.LookPath(tool)
		if err != nil {
			return &StageError{
				Stage: StagePreflight,
				Tool:  tool,
				Cause: fmt.Errorf("%w: %w", ErrToolNotFound, err),
			}
		}
		logger.Debug("Tool found.", "tool", tool, "path", path)
	}

	if err := ioutils.CheckSoundFont(plan.SoundFont); err != nil {
		return &StageError{
			Stage: StagePreflight,
			Cause: fmt.Errorf("%w: %w", ErrSoundFont, err),
		}
	}

	return nil
}

// Run executes the stages of plan in order.
//
// In strict mode the first failure stops the run: transient artifacts are
// removed and the *StageError is returned. In lenient mode failures are
// logged and the next stage runs anyway; the returned error is then nil
// unless ctx was cancelled. The report lists every stage that ran.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Report, error) {
	logger := logging.FromContext(ctx)
	report := &Report{}
	total := len(plan.Stages)

	for i, stage := range plan.Stages {
		if err := ctx.Err(); err != nil {
			r.cleanup(ctx, plan)
			return report, err
		}

		r.notify(StageEvent{Kind: EventStarted, Index: i, Total: total, Stage: stage})
		logger.Debug("Stage started.", "stage", stage.Name, "index", i+1, "total", total)

		start := time.Now()
		err := r.runStage(ctx, stage)
		elapsed := time.Since(start)
		report.Results = append(report.Results, StageResult{Name: stage.Name, Err: err, Duration: elapsed})

		if err == nil {
			logger.Info("Stage completed.", "stage", stage.Name, "duration", elapsed)
			r.notify(StageEvent{Kind: EventCompleted, Index: i, Total: total, Stage: stage, Duration: elapsed})
			continue
		}

		r.notify(StageEvent{Kind: EventFailed, Index: i, Total: total, Stage: stage, Err: err, Duration: elapsed})

		if ctx.Err() != nil {
			r.cleanup(ctx, plan)
			return report, err
		}
		if r.opts.Lenient {
			logger.Warn("Stage failed, continuing.", "stage", stage.Name, "error", err)
			continue
		}

		logger.Error("Stage failed, aborting.", "stage", stage.Name, "error", err)
		r.cleanup(ctx, plan)
		return report, err
	}

	return report, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	if stage.Command == nil {
		if err := ioutils.RemoveFile(stage.Remove); err != nil {
			return &StageError{Stage: stage.Name, Cause: err}
		}
		return nil
	}

	if r.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.StageTimeout)
		defer cancel()
	}

	res, err := r.exec.Run(ctx, *stage.Command)
	if err != nil {
		se := &StageError{Stage: stage.Name, Tool: stage.Tool(), Cause: err}
		if res != nil {
			se.ExitCode = res.ExitCode
			se.Stderr = res.StderrTail(5)
		}
		if errors.Is(err, exec.ErrNotFound) {
			se.Cause = fmt.Errorf("%w: %w", ErrToolNotFound, err)
		}
		return se
	}

	if r.opts.Lenient {
		return nil
	}
	for _, out := range stage.Produces {
		if !ioutils.FileExists(out) {
			return &StageError{
				Stage: stage.Name,
				Tool:  stage.Tool(),
				Cause: fmt.Errorf("%w: %s", ErrMissingOutput, out),
			}
		}
	}

	return nil
}

// cleanup removes transient artifacts left behind by an aborted run.
func (r *Runner) cleanup(ctx context.Context, plan *Plan) {
	logger := logging.FromContext(ctx)
	for _, path := range plan.TransientArtifacts() {
		if err := ioutils.RemoveFile(path); err != nil {
			logger.Warn("Could not remove intermediate file.", "path", path, "error", err)
		}
	}
}

func (r *Runner) notify(ev StageEvent) {
	if r.opts.OnStage != nil {
		r.opts.OnStage(ev)
	}
}
