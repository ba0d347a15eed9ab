// Package audio describes how MIDI is synthesized and encoded to FLAC.
//
// The package does not produce audio itself. It builds the argument vectors
// for the external synthesizer (fluidsynth) and encoder (flac).
//
// # Direct synthesis
//
//	cfg := audio.DefaultSynthConfig()
//	args := cfg.DirectArgs("song.mid", "song.flac")
//	// -F song.flac -T flac -O s24 /usr/share/soundfonts/FluidR3_GM.sf2 song.mid
//
// # WAV + encoder
//
// With Mode set to ModeWAV, fluidsynth renders a WAV file that flac then
// encodes:
//
//	cfg.Mode = audio.ModeWAV
//	render := cfg.RenderArgs("song.mid", "song.wav")
//	encode := cfg.EncodeArgs("song.wav", "song.flac") // -f -o song.flac song.wav
//
// Supported sample formats are s8, s16 and s24 (the default).
package audio
