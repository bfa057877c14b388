package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/open-component-model/noctty/pkg/command"
	logutil "github.com/open-component-model/noctty/pkg/log"
	"github.com/open-component-model/noctty/pkg/sys"
)

var stdOut io.Writer = os.Stdout
var stdErr io.Writer = os.Stderr

// set with -ldflags "-X main.commit=... -X main.buildDate=..."
var (
	commit    string
	buildDate string
)

const unspecified = "(unspecified)"

const separator = "------------------------------------------------------------"

var errInvalidArguments = errors.New("invalid arguments")

type Config struct {
	// cli args
	ShowHelp bool
	Verbose  bool

	Command    string
	RunCommand bool

	// Terminal is the device to relinquish.
	Terminal string

	// calculated by program
	Logger *zap.Logger
}

func (c *Config) Validate(args []string) error {
	if len(args) > 1 {
		return errInvalidArguments
	}
	if c.Terminal == "" {
		return errors.New("terminal device must be set")
	}
	return nil
}

func newFlagSet(name string, cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	// flags may follow COMMAND, like getopt permuting argv; "--" ends them
	fs.SetInterspersed(true)
	fs.SetOutput(stdErr)
	fs.Usage = func() {}

	fs.BoolVarP(&cfg.ShowHelp, "help", "h", false, "print this help and exit")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "[OPTIONAL] print the terminal before relinquishing it and log every step to stderr")
	return fs
}

func buildInfo() (string, string) {
	rev, date := commit, buildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && rev == "":
				rev = s.Value
			case s.Key == "vcs.time" && date == "":
				date = s.Value
			}
		}
	}
	if rev == "" {
		rev = unspecified
	}
	if date == "" {
		date = unspecified
	}
	return rev, date
}

func printHelp(w io.Writer, name string, fs *pflag.FlagSet) {
	rev, date := buildInfo()
	fmt.Fprintf(w, "Usage: %s [-v] [COMMAND]\n", name)
	fmt.Fprintf(w, "Relinquish the controlling terminal. Optionally, run a command.\n")
	fmt.Fprintf(w, "(Built from %s on %s.)\n", rev, date)
	fmt.Fprintf(w, "\nPut -- before a COMMAND that starts with a dash.\n")
	fmt.Fprintf(w, "\nOptions:\n%s", fs.FlagUsages())
}

// parseArgs fills a Config from the command line. A nil Config with a nil
// error means help was printed and nothing else should happen.
func parseArgs(argv []string) (*Config, error) {
	cfg := &Config{Terminal: sys.ControllingTerminal}
	name := filepath.Base(argv[0])
	fs := newFlagSet(name, cfg)

	if err := fs.Parse(argv[1:]); err != nil {
		fmt.Fprintf(stdErr, "error: %s\n\n", err)
		printHelp(stdErr, name, fs)
		return nil, err
	}
	if cfg.ShowHelp {
		printHelp(stdOut, name, fs)
		return nil, nil
	}
	if err := cfg.Validate(fs.Args()); err != nil {
		fmt.Fprintf(stdErr, "error: %s\n\n", err)
		printHelp(stdErr, name, fs)
		return nil, err
	}
	if fs.NArg() == 1 {
		cfg.Command = fs.Arg(0)
		cfg.RunCommand = true
	}
	return cfg, nil
}

func reportTerminal(cfg *Config) error {
	if !cfg.Verbose {
		return nil
	}
	name, err := sys.TerminalName()
	if err != nil {
		return fmt.Errorf("cannot determine terminal: %w", err)
	}
	fmt.Fprintf(stdOut, "Terminal is:\n%s\n%s\n\n", name, separator)
	cfg.Logger.Debug("found terminal", zap.String(logutil.LogKeyTerminal, name))
	return nil
}

// run relinquishes the terminal and then runs the command or parks forever.
// It returns the exit code for the process.
func run(cfg *Config) (int, error) {
	if err := reportTerminal(cfg); err != nil {
		return 1, err
	}

	cfg.Logger.Debug("relinquishing controlling terminal", zap.String(logutil.LogKeyTerminal, cfg.Terminal))
	if err := sys.DetachTerminal(cfg.Terminal); err != nil {
		return 1, err
	}
	cfg.Logger.Debug("controlling terminal relinquished")

	if cfg.RunCommand {
		return command.New(cfg.Logger).Run(cfg.Command)
	}

	cfg.Logger.Debug("parking until terminated")
	err := sys.Park()
	return 1, fmt.Errorf("cannot block: %w", err)
}

func runMain(argv []string) int {
	cfg, err := parseArgs(argv)
	if err != nil {
		return 1
	}
	if cfg == nil {
		return 0
	}

	cfg.Logger, err = logutil.NewLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(stdErr, "unable to create logger: %s\n", err)
		return 1
	}
	defer func() { _ = cfg.Logger.Sync() }()

	code, err := run(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "%s\n", err)
		return 1
	}
	return code
}

func main() {
	os.Exit(runMain(os.Args))
}
