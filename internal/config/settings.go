package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/handiism/score2flac/internal/audio"
	ioutils "github.com/handiism/score2flac/internal/io"
	"github.com/handiism/score2flac/internal/pipeline"
)

// Settings holds all configuration options.
type Settings struct {
	// Synthesis settings
	SoundFontPath string  `json:"soundfont_path" hcl:"soundfont_path,optional"`
	SampleFormat  string  `json:"sample_format" hcl:"sample_format,optional"` // s8, s16, s24
	SampleRate    int     `json:"sample_rate" hcl:"sample_rate,optional"`
	Gain          float64 `json:"gain" hcl:"gain,optional"`
	SynthMode     string  `json:"synth_mode" hcl:"synth_mode,optional"` // direct, wav

	// Score settings
	RenderScore bool `json:"render_score" hcl:"render_score,optional"`

	// Tool locations
	Abcm2psPath    string `json:"abcm2ps_path" hcl:"abcm2ps_path,optional"`
	Ps2pdfPath     string `json:"ps2pdf_path" hcl:"ps2pdf_path,optional"`
	Abc2midiPath   string `json:"abc2midi_path" hcl:"abc2midi_path,optional"`
	FluidsynthPath string `json:"fluidsynth_path" hcl:"fluidsynth_path,optional"`
	FlacPath       string `json:"flac_path" hcl:"flac_path,optional"`

	// Failure handling
	Lenient      bool    `json:"lenient" hcl:"lenient,optional"`
	Preflight    bool    `json:"preflight" hcl:"preflight,optional"`
	StageTimeout float64 `json:"stage_timeout" hcl:"stage_timeout,optional"` // seconds, 0 = none

	// Logging
	LogLevel  string `json:"log_level" hcl:"log_level,optional"`   // debug, info, warn, error
	LogFormat string `json:"log_format" hcl:"log_format,optional"` // text, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		SoundFontPath: audio.DefaultSoundFont,
		SampleFormat:  "s24",
		SynthMode:     string(audio.ModeDirect),

		RenderScore: true,

		Abcm2psPath:    "abcm2ps",
		Ps2pdfPath:     "ps2pdf",
		Abc2midiPath:   "abc2midi",
		FluidsynthPath: "fluidsynth",
		FlacPath:       "flac",

		Lenient:   false,
		Preflight: true,

		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// DefaultPath returns the per-user settings file location,
// e.g. ~/.config/score2flac/config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "score2flac.json"
	}
	return filepath.Join(dir, "score2flac", "config.json")
}

// Load reads settings from a JSON or HCL file.
//
// Files ending in .hcl are decoded as HCL, anything else as JSON. Keys absent
// from the file keep their default values. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		if err := decodeHCL(path, data, settings); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return settings, nil
}

func decodeHCL(path string, data []byte, settings *Settings) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	diags = gohcl.DecodeBody(file.Body, nil, settings)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated and numeric fields.
func (s *Settings) Validate() error {
	if err := s.ToSynthConfig().Validate(); err != nil {
		return err
	}

	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", s.LogLevel)
	}

	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", s.LogFormat)
	}

	if s.StageTimeout < 0 {
		return fmt.Errorf("invalid stage timeout %g", s.StageTimeout)
	}

	return nil
}

// ToSynthConfig converts settings to SynthConfig.
func (s *Settings) ToSynthConfig() *audio.SynthConfig {
	return &audio.SynthConfig{
		Command:        s.FluidsynthPath,
		EncoderCommand: s.FlacPath,
		SoundFont:      s.SoundFontPath,
		SampleFormat:   s.SampleFormat,
		SampleRate:     s.SampleRate,
		Gain:           s.Gain,
		Mode:           audio.Mode(strings.ToLower(s.SynthMode)),
	}
}

// ToPlanConfig converts settings to PlanConfig.
func (s *Settings) ToPlanConfig() *pipeline.PlanConfig {
	return &pipeline.PlanConfig{
		Abcm2ps:     s.Abcm2psPath,
		Ps2pdf:      s.Ps2pdfPath,
		Abc2midi:    s.Abc2midiPath,
		RenderScore: s.RenderScore,
		Synth:       s.ToSynthConfig(),
	}
}

// ToRunnerOptions converts the failure handling settings to pipeline options.
func (s *Settings) ToRunnerOptions() pipeline.Options {
	return pipeline.Options{
		Lenient:      s.Lenient,
		StageTimeout: time.Duration(s.StageTimeout * float64(time.Second)),
	}
}
