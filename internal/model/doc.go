// Package model defines the core data structures shared by the converters.
//
// # Kind
//
// Kind selects the converter and its required input extension:
//
//	model.KindNotation.Extension() // "abc"
//	model.KindMIDI.Extension()     // "mid"
//
// # Job
//
// Job holds a validated input file and the base name used to derive every
// artifact path:
//
//	job, err := model.NewJob(model.KindNotation, "test.abc")
//	fmt.Println(job.Base)             // "test."
//	fmt.Println(job.Artifact("flac")) // "test.flac"
//
// # Validation
//
// ValidateArgs and ValidateName implement the argument contract of both
// programs. Rejections are reported as *ValidationError wrapping ErrArity or
// ErrExtension.
package model
