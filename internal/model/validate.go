package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for invalid invocations.
var (
	// ErrArity is returned when the number of positional arguments is not one.
	ErrArity = errors.New("wrong argument number")

	// ErrExtension is returned when the file name lacks the required extension
	// or is too short to hold a non-empty base name.
	ErrExtension = errors.New("wrong file extension")
)

// ValidationError reports a rejected invocation.
//
// Use errors.Is with ErrArity or ErrExtension to tell the two cases apart.
type ValidationError struct {
	Kind Kind
	Args []string
	Err  error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrArity):
		return fmt.Sprintf("%s: %s expects exactly one FILE.%s, got %d arguments",
			e.Err, e.Kind.Program(), e.Kind.Extension(), len(e.Args))
	case len(e.Args) == 1:
		return fmt.Sprintf("%s: %q is not a FILE.%s", e.Err, e.Args[0], e.Kind.Extension())
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateArgs checks the positional arguments of a converter invocation and
// returns the single input file name.
//
// The invocation is accepted only if exactly one argument is supplied and it
// passes ValidateName.
func ValidateArgs(kind Kind, args []string) (string, error) {
	if len(args) != 1 {
		return "", &ValidationError{Kind: kind, Args: args, Err: ErrArity}
	}
	if err := ValidateName(kind, args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}

// ValidateName checks that name ends with the extension of kind.
//
// The following rules apply:
//   - the name must be longer than the extension plus its dot
//   - the extension must match, ignoring letter case
//   - the file name without directory and extension must not be empty
//
// Example:
//
//	ValidateName(KindNotation, "song.abc")   // nil
//	ValidateName(KindNotation, "song.ABC")   // nil
//	ValidateName(KindNotation, ".abc")       // ErrExtension (too short)
//	ValidateName(KindNotation, "dir/.abc")   // ErrExtension (empty stem)
//	ValidateName(KindMIDI, "song.abc")       // ErrExtension
func ValidateName(kind Kind, name string) error {
	fail := &ValidationError{Kind: kind, Args: []string{name}, Err: ErrExtension}

	if len(name) <= len(kind.Extension())+1 {
		return fail
	}
	if !hasExtension(name, kind.Extension()) {
		return fail
	}

	base := filepath.Base(name)
	if strings.TrimSuffix(base, filepath.Ext(base)) == "" {
		return fail
	}

	return nil
}

func hasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), "."+ext)
}
