// Package exec runs the external tools the converters delegate to.
package exec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/handiism/score2flac/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a command's executable cannot be located.
var ErrNotFound = exec.ErrNotFound

// maxLineSize bounds a single line of tool output.
const maxLineSize = 1024 * 1024

// Command is one external invocation.
type Command struct {
	Name string
	Args []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			fmt.Fprintf(&b, "%q", arg)
			continue
		}
		b.WriteString(arg)
	}
	return b.String()
}

// Result holds command execution output.
type Result struct {
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// StderrTail returns at most the last n non-empty lines of stderr.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(r.Stderr), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Runner executes external commands.
type Runner interface {
	// Run starts cmd and waits for it to exit. A non-zero exit status is
	// reported as an error together with a populated Result.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// LookPath resolves an executable name the way Run would.
	LookPath(name string) (string, error)
}

// LocalRunner runs commands as child processes of the current process.
type LocalRunner struct{}

// NewLocalRunner creates a new LocalRunner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// LookPath searches for an executable in the directories named by PATH.
func (r *LocalRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes cmd and captures its output.
//
// Both output streams are drained concurrently while the child runs; each
// line is forwarded to the context logger at debug level and stderr is kept
// in the Result. The child runs in its own process group and the whole group
// is killed if ctx is cancelled.
func (r *LocalRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	logger := logging.FromContext(ctx).With("tool", cmd.Name)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	setProcessGroup(c)

	stdoutPipe, err := c.StdoutPipe()
	if err != nil {
		return &Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	stderrPipe, err := c.StderrPipe()
	if err != nil {
		return &Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.Name, err)
	}

	logger.Debug("Starting command.", "command", cmd.String())
	start := time.Now()
	if err := c.Start(); err != nil {
		return &Result{ExitCode: -1}, fmt.Errorf("%s: %w", cmd.Name, err)
	}

	var stderr lockedBuffer
	var g errgroup.Group
	g.Go(func() error {
		return drain(stdoutPipe, func(line string) {
			logger.Debug("Command output.", "stream", "stdout", "line", line)
		})
	})
	g.Go(func() error {
		return drain(stderrPipe, func(line string) {
			stderr.WriteLine(line)
			logger.Debug("Command output.", "stream", "stderr", "line", line)
		})
	})

	// Wait closes the pipes, so every read must finish first.
	readErr := g.Wait()
	waitErr := c.Wait()

	result := &Result{
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", cmd.Name, ctxErr)
		}
		return result, fmt.Errorf("%s: %w", cmd.Name, waitErr)
	}
	if readErr != nil {
		return result, fmt.Errorf("%s: reading output: %w", cmd.Name, readErr)
	}

	logger.Debug("Command finished.", "duration", result.Duration)
	return result, nil
}

// drain reads r line by line, calling onLine for each line.
//
// A line longer than maxLineSize ends line splitting; the rest of the stream
// is read and discarded so the child never blocks on a full pipe.
func drain(r io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	err := scanner.Err()
	if err == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, r)
	if errors.Is(err, bufio.ErrTooLong) {
		onLine(fmt.Sprintf("[line longer than %d bytes, rest of output discarded]", maxLineSize))
		return nil
	}
	return err
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *lockedBuffer) WriteLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.WriteString(line)
	b.b.WriteByte('\n')
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}
