// Package ioutils provides file system utilities used around the external
// tool pipeline.
//
// # Artifacts
//
//	// Check a stage output
//	ok := ioutils.FileExists("/music/song.pdf")
//
//	// Remove a transient artifact (missing files are not an error)
//	err := ioutils.RemoveFile("/music/song.ps")
//
// # SoundFonts
//
// CheckSoundFont inspects the RIFF header of a bank before fluidsynth is
// started, so a wrong path fails fast instead of producing an empty file:
//
//	err := ioutils.CheckSoundFont("/usr/share/soundfonts/FluidR3_GM.sf2")
//	if errors.Is(err, ioutils.ErrNotSoundFont) {
//	    // the file exists but is not an .sf2 bank
//	}
package ioutils
