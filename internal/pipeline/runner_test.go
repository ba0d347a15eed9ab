package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/score2flac/internal/exec/exectest"
	ioutils "github.com/handiism/score2flac/internal/io"
	"github.com/handiism/score2flac/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup creates the input file and a soundfont in a temporary directory and
// returns the plan for it.
func setup(t *testing.T, kind model.Kind, name string) *Plan {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(input, []byte("X:1\nK:C\nCDEF|\n"), 0644))

	sf := filepath.Join(dir, "bank.sf2")
	require.NoError(t, os.WriteFile(sf, []byte("RIFF\x04\x00\x00\x00sfbk"), 0644))

	cfg := DefaultPlanConfig()
	cfg.Synth.SoundFont = sf

	job, err := model.NewJob(kind, input)
	require.NoError(t, err)
	return BuildPlan(job, cfg)
}

func TestRunner_NotationSucceeds(t *testing.T) {
	plan := setup(t, model.KindNotation, "test.abc")
	fake := exectest.NewFake()

	var events []StageEvent
	r := NewRunner(fake, Options{OnStage: func(ev StageEvent) { events = append(events, ev) }})

	report, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())
	assert.Len(t, report.Results, 5)

	assert.Equal(t, []string{"abcm2ps", "ps2pdf", "abc2midi", "fluidsynth"}, fake.Tools())

	job := plan.Job
	assert.True(t, ioutils.FileExists(job.Artifact("pdf")))
	assert.True(t, ioutils.FileExists(job.Artifact("mid")))
	assert.True(t, ioutils.FileExists(job.Artifact("flac")))
	assert.False(t, ioutils.FileExists(job.Artifact("ps")), "PostScript should be removed")

	// One started and one completed event per stage.
	require.Len(t, events, 10)
	assert.Equal(t, EventStarted, events[0].Kind)
	assert.Equal(t, EventCompleted, events[9].Kind)
	assert.Equal(t, 5, events[9].Total)
}

func TestRunner_Idempotent(t *testing.T) {
	plan := setup(t, model.KindNotation, "test.abc")
	r := NewRunner(exectest.NewFake(), Options{})

	for i := 0; i < 2; i++ {
		_, err := r.Run(context.Background(), plan)
		require.NoError(t, err)
		assert.False(t, ioutils.FileExists(plan.Job.Artifact("ps")), "run %d left the PostScript behind", i+1)
		assert.True(t, ioutils.FileExists(plan.Job.Artifact("flac")))
	}
}

func TestRunner_StrictStopsAtFailure(t *testing.T) {
	plan := setup(t, model.KindNotation, "test.abc")
	fake := exectest.NewFake()
	fake.ExitCodes["ps2pdf"] = 1

	r := NewRunner(fake, Options{})
	report, err := r.Run(context.Background(), plan)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConvertPDF, stageErr.Stage)
	assert.Equal(t, "ps2pdf", stageErr.Tool)
	assert.Equal(t, 1, stageErr.ExitCode)
	assert.Contains(t, stageErr.Stderr, "simulated failure")

	assert.Equal(t, []string{"abcm2ps", "ps2pdf"}, fake.Tools(), "later stages must not run")
	assert.Len(t, report.Results, 2)
	assert.False(t, ioutils.FileExists(plan.Job.Artifact("ps")), "aborted run should clean up the PostScript")
	assert.False(t, ioutils.FileExists(plan.Job.Artifact("flac")))
}

func TestRunner_StrictDetectsMissingOutput(t *testing.T) {
	plan := setup(t, model.KindMIDI, "track.mid")
	fake := exectest.NewFake()
	fake.NoOutput["fluidsynth"] = true

	_, err := NewRunner(fake, Options{}).Run(context.Background(), plan)
	assert.True(t, errors.Is(err, ErrMissingOutput), "got %v", err)
}

func TestRunner_ToolNotFound(t *testing.T) {
	plan := setup(t, model.KindMIDI, "track.mid")
	fake := exectest.NewFake()
	fake.Missing["fluidsynth"] = true

	_, err := NewRunner(fake, Options{}).Run(context.Background(), plan)
	assert.True(t, errors.Is(err, ErrToolNotFound), "got %v", err)
}

func TestRunner_LenientContinues(t *testing.T) {
	plan := setup(t, model.KindNotation, "test.abc")
	fake := exectest.NewFake()
	fake.ExitCodes["abcm2ps"] = 2
	fake.ExitCodes["abc2midi"] = 1

	report, err := NewRunner(fake, Options{Lenient: true}).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, []string{"abcm2ps", "ps2pdf", "abc2midi", "fluidsynth"}, fake.Tools())
	assert.Len(t, report.Results, 5)

	var failed []string
	for _, res := range report.Failed() {
		failed = append(failed, res.Name)
	}
	assert.Equal(t, []string{StageRenderScore, StageConvertMIDI}, failed)
}

func TestRunner_Cancelled(t *testing.T) {
	plan := setup(t, model.KindNotation, "test.abc")
	fake := exectest.NewFake()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(fake, Options{Lenient: true}).Run(ctx, plan)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Empty(t, fake.Calls())
}

func TestRunner_StageTimeoutIsApplied(t *testing.T) {
	plan := setup(t, model.KindMIDI, "track.mid")
	r := NewRunner(exectest.NewFake(), Options{StageTimeout: time.Minute})

	_, err := r.Run(context.Background(), plan)
	assert.NoError(t, err)
}

func TestRunner_Preflight(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		plan := setup(t, model.KindNotation, "test.abc")
		assert.NoError(t, NewRunner(exectest.NewFake(), Options{}).Preflight(context.Background(), plan))
	})

	t.Run("missing tool", func(t *testing.T) {
		plan := setup(t, model.KindNotation, "test.abc")
		fake := exectest.NewFake()
		fake.Missing["abc2midi"] = true

		err := NewRunner(fake, Options{}).Preflight(context.Background(), plan)
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, StagePreflight, stageErr.Stage)
		assert.Equal(t, "abc2midi", stageErr.Tool)
		assert.True(t, errors.Is(err, ErrToolNotFound))
		assert.Empty(t, fake.Calls(), "preflight must not start anything")
	})

	t.Run("bad soundfont", func(t *testing.T) {
		plan := setup(t, model.KindMIDI, "track.mid")
		require.NoError(t, os.WriteFile(plan.SoundFont, []byte("not a bank"), 0644))

		err := NewRunner(exectest.NewFake(), Options{}).Preflight(context.Background(), plan)
		assert.True(t, errors.Is(err, ErrSoundFont), "got %v", err)
		assert.True(t, errors.Is(err, ioutils.ErrNotSoundFont), "got %v", err)
	})

	t.Run("missing input", func(t *testing.T) {
		plan := setup(t, model.KindMIDI, "track.mid")
		require.NoError(t, os.Remove(plan.Job.Input))

		err := NewRunner(exectest.NewFake(), Options{}).Preflight(context.Background(), plan)
		assert.True(t, errors.Is(err, ErrInputMissing), "got %v", err)
	})
}

func TestStageError_Message(t *testing.T) {
	err := &StageError{Stage: StageSynthesize, Tool: "fluidsynth", ExitCode: 1, Stderr: "bad bank", Cause: errors.New("exit status 1")}
	assert.Equal(t, "fluidsynth failed at synthesize (exit 1): exit status 1\nstderr: bad bank", err.Error())

	pre := &StageError{Stage: StagePreflight, Cause: ErrSoundFont}
	assert.Equal(t, "stage preflight failed: soundfont unusable", pre.Error())
}
