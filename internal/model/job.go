package model

import "path/filepath"

// Kind identifies which converter a job belongs to.
//
// The kind decides the required input extension and which plan is built:
//   - KindNotation: FILE.abc is rendered to a score, converted to MIDI and synthesized
//   - KindMIDI: FILE.mid is synthesized directly
type Kind int

const (
	// KindNotation is an ABC notation input handled by abc2flac.
	KindNotation Kind = iota

	// KindMIDI is a Standard MIDI File input handled by mid2flac.
	KindMIDI
)

// Extension returns the required input extension for the kind, without the dot.
//
// Returns:
//   - "abc" for KindNotation
//   - "mid" for KindMIDI
func (k Kind) Extension() string {
	switch k {
	case KindMIDI:
		return "mid"
	default:
		return "abc"
	}
}

// Program returns the command name of the converter for the kind.
func (k Kind) Program() string {
	switch k {
	case KindMIDI:
		return "mid2flac"
	default:
		return "abc2flac"
	}
}

func (k Kind) String() string {
	switch k {
	case KindMIDI:
		return "midi"
	default:
		return "notation"
	}
}

// KindForPath guesses the kind of a file from its extension.
//
// The comparison is case-insensitive. The second return value is false when
// the extension matches neither kind.
func KindForPath(path string) (Kind, bool) {
	for _, k := range []Kind{KindNotation, KindMIDI} {
		if hasExtension(path, k.Extension()) {
			return k, true
		}
	}
	return KindNotation, false
}

// Job describes a single conversion of one input file.
//
// Job carries the validated input path and the derived base name that every
// artifact path is computed from:
//
//	job, err := NewJob(KindNotation, "songs/test.abc")
//	// job.Base             = "songs/test."
//	// job.Artifact("pdf")  = "songs/test.pdf"
//	// job.Artifact("flac") = "songs/test.flac"
type Job struct {
	// Kind selects the converter.
	Kind Kind

	// Input is the path exactly as it was supplied on the command line.
	Input string

	// Base is Input with its extension letters removed; the dot is kept.
	Base string
}

// NewJob validates the input name for the given kind and derives its base name.
//
// Returns a *ValidationError wrapping ErrExtension if the name does not carry
// the required extension or has an empty stem.
func NewJob(kind Kind, input string) (*Job, error) {
	if err := ValidateName(kind, input); err != nil {
		return nil, err
	}
	return &Job{
		Kind:  kind,
		Input: input,
		Base:  DeriveBase(input),
	}, nil
}

// Artifact returns the path of the artifact with the given extension (no dot).
func (j *Job) Artifact(ext string) string {
	return j.Base + ext
}

// DeriveBase removes the extension letters from a file name, keeping the dot.
//
// No other normalization is performed: the directory part, whitespace and
// letter case are preserved.
//
// Example:
//
//	DeriveBase("song.abc")      // Returns "song."
//	DeriveBase("dir/x.y.mid")   // Returns "dir/x.y."
//	DeriveBase("noext")         // Returns "noext"
func DeriveBase(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	return name[:len(name)-len(ext)+1]
}
