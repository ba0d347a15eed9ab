// Package cli builds the abc2flac and mid2flac commands, validates their
// arguments, and maps conversion outcomes to process exit codes.
package cli
