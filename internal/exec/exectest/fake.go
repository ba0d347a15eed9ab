// Package exectest provides a scripted exec.Runner for tests.
package exectest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/handiism/score2flac/internal/exec"
)

// Call records one invocation seen by Fake.
type Call struct {
	Name string
	Args []string
}

// Fake is an exec.Runner that never starts a process.
//
// Successful invocations write a small placeholder file at every output path
// the real tool would produce, so plans can be exercised end to end on a
// temporary directory.
type Fake struct {
	// ExitCodes maps a tool name to the exit status it should report.
	ExitCodes map[string]int

	// Missing lists tools that are not installed.
	Missing map[string]bool

	// NoOutput lists tools that exit 0 without writing anything.
	NoOutput map[string]bool

	mu    sync.Mutex
	calls []Call
}

// NewFake creates a Fake where every tool is installed and succeeds.
func NewFake() *Fake {
	return &Fake{
		ExitCodes: map[string]int{},
		Missing:   map[string]bool{},
		NoOutput:  map[string]bool{},
	}
}

// Calls returns the invocations recorded so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Tools returns the tool names of the recorded invocations, in order.
func (f *Fake) Tools() []string {
	var names []string
	for _, c := range f.Calls() {
		names = append(names, c.Name)
	}
	return names
}

// LookPath implements exec.Runner.
func (f *Fake) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: %w", name, exec.ErrNotFound)
	}
	return filepath.Join("/usr/bin", name), nil
}

// Run implements exec.Runner.
func (f *Fake) Run(ctx context.Context, cmd exec.Command) (*exec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: cmd.Name, Args: append([]string(nil), cmd.Args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &exec.Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	if f.Missing[cmd.Name] {
		return &exec.Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.Name, exec.ErrNotFound)
	}
	if code := f.ExitCodes[cmd.Name]; code != 0 {
		res := &exec.Result{ExitCode: code, Stderr: cmd.Name + ": simulated failure\n"}
		return res, fmt.Errorf("%s: exit status %d", cmd.Name, code)
	}

	if !f.NoOutput[cmd.Name] {
		for _, out := range Outputs(cmd) {
			if err := os.WriteFile(out, []byte(cmd.String()), 0644); err != nil {
				return &exec.Result{ExitCode: 1}, fmt.Errorf("%s: %w", cmd.Name, err)
			}
		}
	}

	return &exec.Result{}, nil
}

// Outputs returns the files the real tool would write for cmd.
func Outputs(cmd exec.Command) []string {
	switch filepath.Base(cmd.Name) {
	case "abcm2ps":
		return argAfter(cmd.Args, "-O")
	case "abc2midi", "flac":
		return argAfter(cmd.Args, "-o")
	case "fluidsynth":
		return argAfter(cmd.Args, "-F")
	case "ps2pdf":
		if len(cmd.Args) >= 2 {
			return []string{cmd.Args[1]}
		}
	}
	return nil
}

func argAfter(args []string, flag string) []string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return []string{args[i+1]}
		}
	}
	return nil
}
