//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package main

import (
	"bytes"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/open-component-model/noctty/pkg/sys"
)

const helperArgsEnv = "NOCTTY_MAIN_ARGS"

// TestMain runs noctty itself when started by the terminal tests with its
// arguments in helperArgsEnv, separated by unit separators.
func TestMain(m *testing.M) {
	if args, ok := os.LookupEnv(helperArgsEnv); ok {
		argv := []string{"noctty"}
		if args != "" {
			argv = append(argv, strings.Split(args, "\x1f")...)
		}
		os.Exit(runMain(argv))
	}
	os.Exit(m.Run())
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdOut, stdErr
	stdOut, stdErr = &out, &errOut
	t.Cleanup(func() {
		stdOut, stdErr = oldOut, oldErr
	})
	return &out, &errOut
}

func TestHelpExitsWithoutDetaching(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		t.Run(arg, func(t *testing.T) {
			out, errOut := captureOutput(t)

			require.Equal(t, 0, runMain([]string{"/usr/local/bin/noctty", arg, "a", "b"}))
			require.Contains(t, out.String(), "Usage: noctty [-v] [COMMAND]\n")
			require.Contains(t, out.String(), "Relinquish the controlling terminal. Optionally, run a command.\n")
			require.Regexp(t, `\(Built from .+ on .+\.\)`, out.String())
			require.Contains(t, out.String(), "--verbose")
			require.Empty(t, errOut.String())
		})
	}
}

func TestHelpShowsInjectedBuild(t *testing.T) {
	oldCommit, oldDate := commit, buildDate
	commit, buildDate = "0123abc", "Oct 19 2026"
	t.Cleanup(func() { commit, buildDate = oldCommit, oldDate })
	out, _ := captureOutput(t)

	require.Equal(t, 0, runMain([]string{"noctty", "-h"}))
	require.Contains(t, out.String(), "(Built from 0123abc on Oct 19 2026.)\n")
}

func TestTooManyArguments(t *testing.T) {
	out, errOut := captureOutput(t)

	require.Equal(t, 1, runMain([]string{"noctty", "-v", "ls", "/tmp"}))
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "error: invalid arguments\n\nUsage: noctty [-v] [COMMAND]\n")
}

func TestUnknownFlag(t *testing.T) {
	out, errOut := captureOutput(t)

	require.Equal(t, 1, runMain([]string{"noctty", "-x"}))
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "unknown shorthand flag")
	require.Contains(t, errOut.String(), "Usage: noctty [-v] [COMMAND]\n")
}

func TestUnknownFlagAfterCommand(t *testing.T) {
	_, errOut := captureOutput(t)

	require.Equal(t, 1, runMain([]string{"noctty", "ls", "-l"}))
	require.Contains(t, errOut.String(), "unknown shorthand flag: 'l'")
}

func TestValidate(t *testing.T) {
	cfg := &Config{Terminal: "/dev/tty"}
	require.NoError(t, cfg.Validate(nil))
	require.NoError(t, cfg.Validate([]string{"exit 7"}))
	require.ErrorIs(t, cfg.Validate([]string{"ls", "/tmp"}), errInvalidArguments)

	cfg.Terminal = ""
	require.EqualError(t, cfg.Validate(nil), "terminal device must be set")
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name       string
		argv       []string
		verbose    bool
		runCommand bool
		command    string
	}{
		{name: "nothing", argv: []string{"noctty"}},
		{name: "verbose", argv: []string{"noctty", "-v"}, verbose: true},
		{name: "command", argv: []string{"noctty", "exit 7"}, runCommand: true, command: "exit 7"},
		{name: "verbose command", argv: []string{"noctty", "-v", "sleep 1"}, verbose: true, runCommand: true, command: "sleep 1"},
		{name: "empty command", argv: []string{"noctty", ""}, runCommand: true},
		{name: "dash dash", argv: []string{"noctty", "--", "-v"}, runCommand: true, command: "-v"},
		{name: "flag after command", argv: []string{"noctty", "make run", "-v"}, verbose: true, runCommand: true, command: "make run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t)

			cfg, err := parseArgs(tt.argv)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			require.Equal(t, tt.verbose, cfg.Verbose)
			require.Equal(t, tt.runCommand, cfg.RunCommand)
			require.Equal(t, tt.command, cfg.Command)
			require.Equal(t, "/dev/tty", cfg.Terminal)
		})
	}
}

func TestRunFailsOnMissingTerminal(t *testing.T) {
	out, _ := captureOutput(t)
	cfg := &Config{
		Terminal:   filepath.Join(t.TempDir(), "tty"),
		RunCommand: true,
		Command:    "exit 7",
		Logger:     zap.NewNop(),
	}

	code, err := run(cfg)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Equal(t, 1, code)
	require.Empty(t, out.String())
	require.False(t, signal.Ignored(syscall.SIGHUP))
}

func TestRunFailsOnNonTerminal(t *testing.T) {
	captureOutput(t)
	cfg := &Config{
		Terminal:   "/dev/null",
		RunCommand: true,
		Command:    "exit 7",
		Logger:     zap.NewNop(),
	}

	code, err := run(cfg)
	require.ErrorIs(t, err, unix.ENOTTY)
	require.Equal(t, 1, code)
	require.False(t, signal.Ignored(syscall.SIGHUP))
}

func TestVerboseRunNeedsTerminal(t *testing.T) {
	out, _ := captureOutput(t)
	devNull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devNull.Close()
	stdin := os.Stdin
	os.Stdin = devNull
	defer func() { os.Stdin = stdin }()

	cfg := &Config{
		Verbose:  true,
		Terminal: sys.ControllingTerminal,
		Logger:   zap.NewNop(),
	}

	code, err := run(cfg)
	require.ErrorIs(t, err, sys.ErrNoTerminal)
	require.Equal(t, 1, code)
	require.Empty(t, out.String())
}
