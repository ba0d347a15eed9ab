package audio

import (
	"fmt"
	"strconv"
)

// Mode selects how MIDI is turned into FLAC.
type Mode string

const (
	// ModeDirect lets fluidsynth write FLAC itself through libsndfile.
	ModeDirect Mode = "direct"

	// ModeWAV renders a WAV file with fluidsynth and encodes it with the
	// reference flac encoder afterwards.
	ModeWAV Mode = "wav"
)

// DefaultSoundFont is the bank used when no other is configured.
const DefaultSoundFont = "/usr/share/soundfonts/FluidR3_GM.sf2"

// SampleFormats lists the fluidsynth sample formats FLAC can store.
var SampleFormats = []string{"s8", "s16", "s24"}

// SynthConfig holds the synthesizer and encoder invocation settings.
//
// Example:
//
//	cfg := DefaultSynthConfig()
//	cfg.SoundFont = "/opt/banks/GeneralUser.sf2"
//	args := cfg.DirectArgs("song.mid", "song.flac")
//	// fluidsynth -F song.flac -T flac -O s24 /opt/banks/GeneralUser.sf2 song.mid
type SynthConfig struct {
	// Command is the fluidsynth executable.
	Command string

	// EncoderCommand is the flac executable, used by ModeWAV only.
	EncoderCommand string

	// SoundFont is the instrument bank passed to fluidsynth.
	SoundFont string

	// SampleFormat is the fluidsynth -O value. 24-bit by default.
	SampleFormat string

	// SampleRate is the fluidsynth -r value in Hz. Zero keeps the synthesizer default.
	SampleRate int

	// Gain is the fluidsynth -g value. Zero keeps the synthesizer default.
	Gain float64

	// Mode selects direct FLAC output or the WAV + encoder route.
	Mode Mode
}

// DefaultSynthConfig returns the standard synthesis settings:
// direct FLAC output, 24-bit samples, FluidR3 General MIDI bank.
func DefaultSynthConfig() *SynthConfig {
	return &SynthConfig{
		Command:        "fluidsynth",
		EncoderCommand: "flac",
		SoundFont:      DefaultSoundFont,
		SampleFormat:   "s24",
		Mode:           ModeDirect,
	}
}

// Validate checks the enumerated fields.
func (c *SynthConfig) Validate() error {
	switch c.Mode {
	case ModeDirect, ModeWAV:
	default:
		return fmt.Errorf("invalid synth mode %q: must be %q or %q", c.Mode, ModeDirect, ModeWAV)
	}

	valid := false
	for _, f := range SampleFormats {
		if c.SampleFormat == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid sample format %q: must be one of %v", c.SampleFormat, SampleFormats)
	}

	if c.SampleRate < 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Gain < 0 {
		return fmt.Errorf("invalid gain %g", c.Gain)
	}
	if c.SoundFont == "" {
		return fmt.Errorf("soundfont path is empty")
	}

	return nil
}

// DirectArgs returns the fluidsynth arguments rendering midi straight into a
// FLAC file at out.
func (c *SynthConfig) DirectArgs(midi, out string) []string {
	return c.renderArgs(midi, out, "flac")
}

// RenderArgs returns the fluidsynth arguments rendering midi into a WAV file.
func (c *SynthConfig) RenderArgs(midi, wav string) []string {
	return c.renderArgs(midi, wav, "wav")
}

// EncodeArgs returns the flac arguments encoding wav into out, overwriting
// any existing file.
func (c *SynthConfig) EncodeArgs(wav, out string) []string {
	return []string{"-f", "-o", out, wav}
}

func (c *SynthConfig) renderArgs(midi, out, fileType string) []string {
	args := []string{"-F", out, "-T", fileType, "-O", c.SampleFormat}
	if c.SampleRate > 0 {
		args = append(args, "-r", strconv.Itoa(c.SampleRate))
	}
	if c.Gain > 0 {
		args = append(args, "-g", strconv.FormatFloat(c.Gain, 'f', -1, 64))
	}
	return append(args, c.SoundFont, midi)
}
