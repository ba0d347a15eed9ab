package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/score2flac/internal/exec/exectest"
	ioutils "github.com/handiism/score2flac/internal/io"
	"github.com/handiism/score2flac/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	dir    string
	sf     string
	config string
	fake   *exectest.Fake
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:    dir,
		sf:     filepath.Join(dir, "bank.sf2"),
		config: filepath.Join(dir, "missing-config.json"),
		fake:   exectest.NewFake(),
	}
	require.NoError(t, os.WriteFile(e.sf, []byte("RIFF\x04\x00\x00\x00sfbk"), 0644))
	return e
}

func (e *env) input(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("X:1\nK:C\nCDEF|\n"), 0644))
	return path
}

func (e *env) run(kind model.Kind, args ...string) int {
	return e.runContext(context.Background(), kind, args...)
}

func (e *env) runContext(ctx context.Context, kind model.Kind, args ...string) int {
	args = append([]string{"--config", e.config, "--soundfont", e.sf}, args...)
	return Execute(ctx, kind, args, Options{Stdout: &e.stdout, Stderr: &e.stderr, Runner: e.fake})
}

func TestExecute_Arity(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"none", nil},
		{"two", []string{"a.abc", "b.abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			code := e.run(model.KindNotation, tt.args...)

			assert.Equal(t, ExitUsage, code)
			assert.True(t, strings.HasPrefix(e.stderr.String(), "Error: wrong argument number.\n"), e.stderr.String())
			assert.Contains(t, e.stderr.String(), "Usage:")
			assert.Empty(t, e.fake.Calls())
		})
	}
}

func TestExecute_Extension(t *testing.T) {
	tests := []struct {
		kind model.Kind
		arg  string
	}{
		{model.KindNotation, "song.mid"},
		{model.KindNotation, ".abc"},
		{model.KindNotation, "abc"},
		{model.KindMIDI, "track.abc"},
		{model.KindMIDI, "track.midi"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.Program()+" "+tt.arg, func(t *testing.T) {
			e := newEnv(t)
			code := e.run(tt.kind, tt.arg)

			assert.Equal(t, ExitUsage, code)
			assert.True(t, strings.HasPrefix(e.stderr.String(), "Error: wrong file extension.\n"), e.stderr.String())
			assert.Empty(t, e.fake.Calls())
		})
	}
}

func TestExecute_Notation(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")

	code := e.run(model.KindNotation, input)
	require.Equal(t, ExitOK, code, e.stderr.String())

	base := strings.TrimSuffix(input, "abc")
	assert.True(t, ioutils.FileExists(base+"pdf"))
	assert.True(t, ioutils.FileExists(base+"mid"))
	assert.True(t, ioutils.FileExists(base+"flac"))
	assert.False(t, ioutils.FileExists(base+"ps"))

	assert.Contains(t, e.stdout.String(), "✓ Successfully converted test.abc")
	assert.Contains(t, e.stdout.String(), base+"flac")
	assert.NotContains(t, e.stdout.String(), "Running ", "verbose events are hidden by default")
}

func TestExecute_MIDIUsesSoundFont(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "track.mid")

	code := e.run(model.KindMIDI, "--verbose", input)
	require.Equal(t, ExitOK, code, e.stderr.String())

	calls := e.fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "fluidsynth", calls[0].Name)
	assert.Contains(t, calls[0].Args, e.sf)
	assert.Contains(t, e.stdout.String(), "Running fluidsynth")
}

func TestExecute_StageFailure(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")
	e.fake.ExitCodes["abcm2ps"] = 1

	code := e.run(model.KindNotation, input)
	assert.Equal(t, ExitStage, code)
	assert.Contains(t, e.stderr.String(), "abcm2ps failed at render-score")
	assert.Equal(t, []string{"abcm2ps"}, e.fake.Tools())
}

func TestExecute_Lenient(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")
	e.fake.ExitCodes["abcm2ps"] = 1

	code := e.run(model.KindNotation, "--lenient", input)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, []string{"abcm2ps", "ps2pdf", "abc2midi", "fluidsynth"}, e.fake.Tools())
}

func TestExecute_NoScoreAndWAV(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")

	code := e.run(model.KindNotation, "--no-score", "--synth-mode", "wav", input)
	require.Equal(t, ExitOK, code, e.stderr.String())
	assert.Equal(t, []string{"abc2midi", "fluidsynth", "flac"}, e.fake.Tools())
	assert.False(t, ioutils.FileExists(strings.TrimSuffix(input, "abc")+"wav"))
}

func TestExecute_ConfigFile(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")
	e.config = filepath.Join(e.dir, "config.hcl")
	require.NoError(t, os.WriteFile(e.config, []byte("render_score = false\n"), 0644))

	code := e.run(model.KindNotation, input)
	require.Equal(t, ExitOK, code, e.stderr.String())
	assert.Equal(t, []string{"abc2midi", "fluidsynth"}, e.fake.Tools())
}

func TestExecute_InvalidSettings(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "test.abc")

	code := e.run(model.KindNotation, "--synth-mode", "mp3", input)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, e.stderr.String(), "invalid synth mode")
	assert.Empty(t, e.fake.Calls())
}

func TestExecute_MissingTool(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "track.mid")
	e.fake.Missing["fluidsynth"] = true

	code := e.run(model.KindMIDI, input)
	assert.Equal(t, ExitStage, code)
	assert.Contains(t, e.stderr.String(), "required tool not installed")
	assert.Empty(t, e.fake.Calls(), "preflight stops before any command")
}

func TestExecute_Interrupted(t *testing.T) {
	e := newEnv(t)
	input := e.input(t, "track.mid")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := e.runContext(ctx, model.KindMIDI, input)
	assert.Equal(t, ExitInterrupted, code)
}

func TestExecute_UnknownFlag(t *testing.T) {
	e := newEnv(t)
	code := e.run(model.KindMIDI, "--no-score", "track.mid")
	assert.Equal(t, ExitUsage, code, "abc2flac-only flags are rejected by mid2flac")
	assert.Contains(t, e.stderr.String(), "unknown flag")
}

func TestExecute_DashPrefixedName(t *testing.T) {
	e := newEnv(t)
	e.input(t, "-x.abc")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(e.dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	code := e.run(model.KindNotation, "--", "-x.abc")
	require.Equal(t, ExitOK, code, e.stderr.String())
	assert.True(t, ioutils.FileExists(filepath.Join(e.dir, "-x.flac")))

	e.stderr.Reset()
	code = e.run(model.KindNotation, "-x.abc")
	assert.Equal(t, ExitUsage, code, "without -- the name is parsed as flags")
	assert.Contains(t, e.stderr.String(), "[--] FILE.abc")
}

func TestExecute_Help(t *testing.T) {
	e := newEnv(t)

	code := e.run(model.KindMIDI, "--help")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, e.stdout.String(), "mid2flac [flags] [--] FILE.mid")
	assert.Empty(t, e.fake.Calls())
}
