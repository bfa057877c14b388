// Package command runs a single shell command and turns the way it ended
// into an exit code for the calling process.
package command

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	logutil "github.com/open-component-model/noctty/pkg/log"
	"github.com/open-component-model/noctty/pkg/sys"
)

// DefaultShell is the command interpreter used by system(3).
const DefaultShell = "/bin/sh"

// signalExitBase is added to the number of the signal that killed a command.
const signalExitBase = 128

type Runner struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// New returns a Runner using DefaultShell and the standard streams of the
// current process.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Shell:  DefaultShell,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run executes command with "Shell -c" and waits for it. The returned code
// is the command's exit status, or 128+N if it was killed by signal N.
// An error is only returned if the shell could not be started.
//
// SIGINT and SIGQUIT are held back from this process while the command runs,
// so that an interrupt typed on the terminal only ends the command.
func (r *Runner) Run(command string) (int, error) {
	cmd := exec.Command(r.Shell, "-c", command)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	restore := sys.SuppressSignals(func(sig os.Signal) {
		r.Logger.Debug("signal left to command", zap.String(logutil.LogKeySignal, sig.String()))
	}, os.Interrupt, syscall.SIGQUIT)
	defer restore()

	r.Logger.Debug("running command", zap.String(logutil.LogKeyShell, r.Shell), zap.String(logutil.LogKeyCommand, command))
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("cannot run %q: %w", command, err)
	}
	r.Logger.Debug("command started", zap.Int(logutil.LogKeyPid, cmd.Process.Pid))

	// a non-zero exit is reported through the process state below
	if err := cmd.Wait(); err != nil && cmd.ProcessState == nil {
		return 1, fmt.Errorf("cannot wait for %q: %w", command, err)
	}

	code := ExitCode(cmd.ProcessState)
	r.Logger.Debug("command finished", zap.String(logutil.LogKeyState, cmd.ProcessState.String()), zap.Int(logutil.LogKeyExitCode, code))
	return code, nil
}

// ExitCode maps the termination of a process to an exit code: its own exit
// status if it exited, 128 plus the signal number if a signal killed it.
// It panics for any other state, such as a stopped process.
func ExitCode(state *os.ProcessState) int {
	if state == nil {
		panic("command: exit code of a process that was not waited for")
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		panic(fmt.Sprintf("command: unexpected wait status type %T", state.Sys()))
	}
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return signalExitBase + int(ws.Signal())
	default:
		panic(fmt.Sprintf("command: process neither exited nor was killed: %s", state))
	}
}
