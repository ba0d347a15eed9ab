package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/handiism/score2flac/internal/config"
	"github.com/handiism/score2flac/internal/convert"
	"github.com/handiism/score2flac/internal/exec"
	"github.com/handiism/score2flac/internal/logging"
	"github.com/handiism/score2flac/internal/model"
)

// Exit statuses of the converters.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitStage       = 2
	ExitInterrupted = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options wires a command to its environment.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer

	// Runner issues the external commands. Nil means the local machine.
	Runner exec.Runner
}

type flags struct {
	configPath  string
	soundFont   string
	lenient     bool
	noPreflight bool
	logLevel    string
	logFormat   string
	verbose     bool

	// abc2flac only
	noScore   bool
	synthMode string
}

// NewCommand builds the root command of the converter for kind.
func NewCommand(kind model.Kind, opts Options) *cobra.Command {
	opts = withDefaults(opts)
	f := &flags{}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [flags] [--] FILE.%s", kind.Program(), kind.Extension()),
		Short: short(kind),
		Long:  long(kind),
		Args: func(cmd *cobra.Command, args []string) error {
			_, err := model.ValidateArgs(kind, args)
			return err
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, kind, args[0], f, opts)
		},
	}
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Path to config file (.json or .hcl)")
	fs.StringVar(&f.soundFont, "soundfont", "", "SoundFont bank used for synthesis")
	fs.BoolVar(&f.lenient, "lenient", false, "Keep going when a stage fails")
	fs.BoolVar(&f.noPreflight, "no-preflight", false, "Skip the tool and soundfont checks")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Show verbose output")

	if kind == model.KindNotation {
		fs.BoolVar(&f.noScore, "no-score", false, "Do not render the PDF score")
		fs.StringVar(&f.synthMode, "synth-mode", "", "Synthesis route: direct or wav")
	}

	return cmd
}

// Execute runs the converter for kind with args and returns the exit status.
func Execute(ctx context.Context, kind model.Kind, args []string, opts Options) int {
	opts = withDefaults(opts)
	cmd := NewCommand(kind, opts)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var validationErr *model.ValidationError
	var exitErr *ExitError
	switch {
	case errors.As(err, &validationErr):
		fmt.Fprintf(opts.Stderr, "Error: %s.\n", validationErr.Err)
		fmt.Fprint(opts.Stderr, cmd.UsageString())
		return ExitUsage
	case errors.As(err, &exitErr):
		fmt.Fprintln(opts.Stderr, exitErr.Message)
		return exitErr.Code
	default:
		// Flag parsing errors from cobra.
		fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		fmt.Fprint(opts.Stderr, cmd.UsageString())
		return ExitUsage
	}
}

func run(cmd *cobra.Command, kind model.Kind, input string, f *flags, opts Options) error {
	settings, err := loadSettings(cmd, f)
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("Error: %v", err)}
	}

	logger := logging.New(settings.LogLevel, settings.LogFormat, opts.Stderr)
	ctx := logging.WithLogger(cmd.Context(), logger)
	logger.Debug("Settings resolved.", "soundfont", settings.SoundFontPath, "lenient", settings.Lenient, "preflight", settings.Preflight)

	manager := convert.NewManager(settings, opts.Runner, printer(opts.Stdout, f.verbose))

	if err := manager.Initialize(ctx, kind, input); err != nil {
		return err
	}

	if _, err := manager.Convert(ctx); err != nil {
		if ctx.Err() != nil {
			return &ExitError{Code: ExitInterrupted, Message: "Conversion cancelled."}
		}
		return &ExitError{Code: ExitStage, Message: fmt.Sprintf("Error: %v", err)}
	}

	for _, path := range manager.Artifacts() {
		fmt.Fprintf(opts.Stdout, "  %s\n", path)
	}
	return nil
}

// loadSettings reads the config file and applies the flags that were set
// explicitly on the command line.
func loadSettings(cmd *cobra.Command, f *flags) (*config.Settings, error) {
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("soundfont") {
		settings.SoundFontPath = f.soundFont
	}
	if fs.Changed("lenient") {
		settings.Lenient = f.lenient
	}
	if fs.Changed("no-preflight") {
		settings.Preflight = !f.noPreflight
	}
	if fs.Changed("log-level") {
		settings.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		settings.LogFormat = f.logFormat
	}
	if fs.Changed("no-score") {
		settings.RenderScore = !f.noScore
	}
	if fs.Changed("synth-mode") {
		settings.SynthMode = f.synthMode
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// printer returns a progress callback writing one line per event.
func printer(w io.Writer, verbose bool) func(convert.ProgressEvent) {
	return func(event convert.ProgressEvent) {
		if event.Level == convert.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case convert.LevelError:
			prefix = "✗ "
		case convert.LevelWarning:
			prefix = "! "
		case convert.LevelSuccess:
			prefix = "✓ "
		case convert.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		if event.Stage != "" && event.Total > 0 {
			fmt.Fprintf(w, "%s[%d/%d] %s\n", prefix, event.Done, event.Total, event.Message)
			return
		}
		fmt.Fprintln(w, prefix+event.Message)
	}
}

func withDefaults(opts Options) Options {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

func short(kind model.Kind) string {
	if kind == model.KindMIDI {
		return "Convert FILE.mid into FILE.flac"
	}
	return "Convert FILE.abc into FILE.pdf, FILE.mid and FILE.flac"
}

func long(kind model.Kind) string {
	if kind == model.KindMIDI {
		return `Synthesize a MIDI file into 24-bit FLAC with fluidsynth.

Example:
  mid2flac track.mid            # writes track.flac
  mid2flac -- -take2.mid        # "--" ends the flags before a name starting with "-"`
	}
	return `Render ABC notation into a PDF score with abcm2ps and ps2pdf, convert it
to MIDI with abc2midi and synthesize the MIDI into 24-bit FLAC with fluidsynth.

Examples:
  abc2flac test.abc             # writes test.pdf, test.mid and test.flac
  abc2flac --no-score test.abc  # skips the PDF score
  abc2flac --lenient test.abc   # keeps going when a tool fails
  abc2flac -- -draft.abc        # "--" ends the flags before a name starting with "-"`
}
