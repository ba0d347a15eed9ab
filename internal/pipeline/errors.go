package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for stage failures that carry no exit status.
var (
	ErrToolNotFound  = errors.New("required tool not installed")
	ErrMissingOutput = errors.New("stage output missing")
	ErrSoundFont     = errors.New("soundfont unusable")
	ErrInputMissing  = errors.New("input file not found")
)

// StageError represents the failure of one pipeline stage.
type StageError struct {
	Stage    string // "render-score", "synthesize", "preflight", ...
	Tool     string // "abcm2ps", "fluidsynth", ...
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s failed", e.Stage)
	if e.Tool != "" {
		msg = fmt.Sprintf("%s failed at %s", e.Tool, e.Stage)
	}
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
