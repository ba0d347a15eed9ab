// Package ioutils provides file system utilities for score2flac.
//
// This package contains functions for:
//   - Checking that stage artifacts exist
//   - Removing transient artifacts
//   - Recognizing SoundFont 2 banks
//   - Directory creation
package ioutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrNotSoundFont is returned by CheckSoundFont for files that are not
// SoundFont 2 banks.
var ErrNotSoundFont = errors.New("not a SoundFont 2 file")

// FileExists reports whether path names an existing regular file.
//
// Example:
//
//	if !FileExists("/music/song.flac") {
//	    // synthesis produced nothing
//	}
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// RemoveFile deletes a file, treating an already missing file as success.
//
// This makes removing transient artifacts idempotent: a second run, or a
// cleanup after a stage that never produced its output, does not fail.
//
// Example:
//
//	err := RemoveFile("/music/song.ps")
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// CheckSoundFont verifies that path is a readable SoundFont 2 bank.
//
// Only the RIFF header is inspected: the first twelve bytes must read
// "RIFF", a 4-byte chunk size, then "sfbk". The instrument data is not
// parsed.
//
// Returns an error if:
//   - The file cannot be opened
//   - The file is shorter than the header
//   - The header does not identify a SoundFont (wraps ErrNotSoundFont)
func CheckSoundFont(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%s: %w", path, ErrNotSoundFont)
	}

	if !bytes.Equal(header[0:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("sfbk")) {
		return fmt.Errorf("%s: %w", path, ErrNotSoundFont)
	}

	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
