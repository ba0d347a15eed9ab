package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/score2flac/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, "/usr/share/soundfonts/FluidR3_GM.sf2", s.SoundFontPath)
	assert.Equal(t, "s24", s.SampleFormat)
	assert.True(t, s.RenderScore)
	assert.False(t, s.Lenient)
	assert.True(t, s.Preflight)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_JSONKeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{"soundfont_path": "/banks/gm.sf2", "lenient": true}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/banks/gm.sf2", s.SoundFontPath)
	assert.True(t, s.Lenient)
	assert.Equal(t, "fluidsynth", s.FluidsynthPath)
	assert.True(t, s.RenderScore)
}

func TestLoad_HCL(t *testing.T) {
	path := writeFile(t, "config.hcl", `
soundfont_path = "/banks/gm.sf2"
synth_mode     = "wav"
sample_rate    = 48000
gain           = 0.4
render_score   = false
stage_timeout  = 90
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/banks/gm.sf2", s.SoundFontPath)
	assert.Equal(t, "wav", s.SynthMode)
	assert.Equal(t, 48000, s.SampleRate)
	assert.InDelta(t, 0.4, s.Gain, 1e-9)
	assert.False(t, s.RenderScore)
	assert.Equal(t, "s24", s.SampleFormat, "unset keys keep defaults")

	opts := s.ToRunnerOptions()
	assert.Equal(t, 90*time.Second, opts.StageTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad json", "c.json", `{"lenient": `},
		{"bad hcl", "c.hcl", `soundfont_path = `},
		{"unknown hcl key", "c.hcl", `colour = "red"`},
		{"bad synth mode", "c.json", `{"synth_mode": "mp3"}`},
		{"bad sample format", "c.json", `{"sample_format": "float"}`},
		{"bad log level", "c.json", `{"log_level": "loud"}`},
		{"negative timeout", "c.json", `{"stage_timeout": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	s := DefaultSettings()
	s.SoundFontPath = "/banks/other.sf2"
	s.SynthMode = string(audio.ModeWAV)
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSettings_ToPlanConfig(t *testing.T) {
	s := DefaultSettings()
	s.Abc2midiPath = "/opt/abc/abc2midi"
	s.SynthMode = "WAV"

	cfg := s.ToPlanConfig()
	assert.Equal(t, "/opt/abc/abc2midi", cfg.Abc2midi)
	assert.Equal(t, audio.ModeWAV, cfg.Synth.Mode)
	assert.Equal(t, "flac", cfg.Synth.EncoderCommand)
	assert.Equal(t, s.SoundFontPath, cfg.Synth.SoundFont)
}
