// Package pipeline builds and runs the ordered external tool invocations of
// a conversion.
package pipeline

import (
	"github.com/handiism/score2flac/internal/audio"
	"github.com/handiism/score2flac/internal/exec"
	"github.com/handiism/score2flac/internal/model"
)

// Stage names.
const (
	StageRenderScore = "render-score"
	StageConvertPDF  = "convert-pdf"
	StageRemoveScore = "remove-score"
	StageConvertMIDI = "convert-midi"
	StageSynthesize  = "synthesize"
	StageRenderWAV   = "render-wav"
	StageEncodeFLAC  = "encode-flac"
	StageRemoveWAV   = "remove-wav"
	StagePreflight   = "preflight"
)

// Stage is one step of a plan: either an external command or the removal of
// an intermediate artifact.
type Stage struct {
	Name string

	// Command is nil for removal stages.
	Command *exec.Command

	// Remove is the artifact deleted by a removal stage.
	Remove string

	// Consumes lists the files the stage reads.
	Consumes []string

	// Produces lists the files the stage must leave behind on success.
	Produces []string

	// Transient marks produced files that a later stage deletes.
	Transient bool
}

// Tool returns the executable of the stage, or "" for removal stages.
func (s Stage) Tool() string {
	if s.Command == nil {
		return ""
	}
	return s.Command.Name
}

// Plan is the ordered list of stages for one job.
type Plan struct {
	Job    *model.Job
	Stages []Stage

	// SoundFont is the bank the synthesis stages read.
	SoundFont string
}

// PlanConfig holds the tool names and switches used to build plans.
type PlanConfig struct {
	Abcm2ps  string
	Ps2pdf   string
	Abc2midi string

	// RenderScore enables the PostScript and PDF stages of notation plans.
	RenderScore bool

	Synth *audio.SynthConfig
}

// DefaultPlanConfig returns the tool names found on a typical Linux install.
func DefaultPlanConfig() *PlanConfig {
	return &PlanConfig{
		Abcm2ps:     "abcm2ps",
		Ps2pdf:      "ps2pdf",
		Abc2midi:    "abc2midi",
		RenderScore: true,
		Synth:       audio.DefaultSynthConfig(),
	}
}

// BuildPlan returns the stages converting job.
//
// For a notation job:
//  1. abcm2ps FILE.abc -O FILE.ps
//  2. ps2pdf FILE.ps FILE.pdf
//  3. remove FILE.ps
//  4. abc2midi FILE.abc -o FILE.mid
//  5. fluidsynth -F FILE.flac -T flac -O s24 SOUNDFONT FILE.mid
//
// Steps 1-3 are omitted when RenderScore is false. A MIDI job only has
// step 5. In ModeWAV step 5 becomes render-wav, encode-flac and remove-wav.
func BuildPlan(job *model.Job, cfg *PlanConfig) *Plan {
	p := &Plan{Job: job, SoundFont: cfg.Synth.SoundFont}

	midi := job.Input
	if job.Kind == model.KindNotation {
		if cfg.RenderScore {
			ps, pdf := job.Artifact("ps"), job.Artifact("pdf")
			p.add(Stage{
				Name:      StageRenderScore,
				Command:   &exec.Command{Name: cfg.Abcm2ps, Args: []string{job.Input, "-O", ps}},
				Consumes:  []string{job.Input},
				Produces:  []string{ps},
				Transient: true,
			})
			p.add(Stage{
				Name:     StageConvertPDF,
				Command:  &exec.Command{Name: cfg.Ps2pdf, Args: []string{ps, pdf}},
				Consumes: []string{ps},
				Produces: []string{pdf},
			})
			p.add(Stage{Name: StageRemoveScore, Remove: ps})
		}

		midi = job.Artifact("mid")
		p.add(Stage{
			Name:     StageConvertMIDI,
			Command:  &exec.Command{Name: cfg.Abc2midi, Args: []string{job.Input, "-o", midi}},
			Consumes: []string{job.Input},
			Produces: []string{midi},
		})
	}

	p.addSynthesis(midi, job.Artifact("flac"), cfg.Synth)
	return p
}

func (p *Plan) addSynthesis(midi, flac string, synth *audio.SynthConfig) {
	if synth.Mode != audio.ModeWAV {
		p.add(Stage{
			Name:     StageSynthesize,
			Command:  &exec.Command{Name: synth.Command, Args: synth.DirectArgs(midi, flac)},
			Consumes: []string{midi, synth.SoundFont},
			Produces: []string{flac},
		})
		return
	}

	wav := p.Job.Artifact("wav")
	p.add(Stage{
		Name:      StageRenderWAV,
		Command:   &exec.Command{Name: synth.Command, Args: synth.RenderArgs(midi, wav)},
		Consumes:  []string{midi, synth.SoundFont},
		Produces:  []string{wav},
		Transient: true,
	})
	p.add(Stage{
		Name:     StageEncodeFLAC,
		Command:  &exec.Command{Name: synth.EncoderCommand, Args: synth.EncodeArgs(wav, flac)},
		Consumes: []string{wav},
		Produces: []string{flac},
	})
	p.add(Stage{Name: StageRemoveWAV, Remove: wav})
}

func (p *Plan) add(s Stage) {
	p.Stages = append(p.Stages, s)
}

// Tools returns the distinct executables the plan invokes, in order.
func (p *Plan) Tools() []string {
	seen := make(map[string]bool)
	var tools []string
	for _, s := range p.Stages {
		if t := s.Tool(); t != "" && !seen[t] {
			seen[t] = true
			tools = append(tools, t)
		}
	}
	return tools
}

// Outputs returns the files that persist after a successful run.
func (p *Plan) Outputs() []string {
	var outs []string
	for _, s := range p.Stages {
		if !s.Transient {
			outs = append(outs, s.Produces...)
		}
	}
	return outs
}

// TransientArtifacts returns the intermediate files removed by the plan.
func (p *Plan) TransientArtifacts() []string {
	var outs []string
	for _, s := range p.Stages {
		if s.Transient {
			outs = append(outs, s.Produces...)
		}
	}
	return outs
}
