// Package config provides configuration management for score2flac.
//
// This package handles:
//   - Loading settings from JSON or HCL files
//   - Default configuration values
//   - Conversion to the audio and pipeline configuration types
//
// # Default Settings
//
// Use DefaultSettings() to get the standard conversion settings, with
// failures reported instead of ignored:
//
//	settings := config.DefaultSettings()
//	// SoundFont: /usr/share/soundfonts/FluidR3_GM.sf2
//	// 24-bit FLAC written directly by fluidsynth
//	// PDF score rendered for notation input
//	// strict failure handling with preflight checks
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // invalid file; a missing file yields the defaults
//	}
//
// The same keys are accepted in HCL:
//
//	soundfont_path = "/opt/banks/GeneralUser.sf2"
//	synth_mode     = "wav"
//	lenient        = true
//
// # Saving Settings
//
//	settings.SoundFontPath = "/opt/banks/GeneralUser.sf2"
//	err := settings.Save(config.DefaultPath())
package config
