package sys

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"
)

// ControllingTerminal is the special file that always refers to the
// controlling terminal of the calling process.
const ControllingTerminal = "/dev/tty"

// ErrNoTerminal is returned by TerminalName when standard input is not a
// terminal.
var ErrNoTerminal = errors.New("standard input is not a terminal")

// TerminalName returns the path of the terminal connected to standard input,
// as reported by tty(1).
func TerminalName() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", ErrNoTerminal
	}

	var out, errOut bytes.Buffer
	cmd := exec.Command("tty")
	cmd.Stdin = os.Stdin
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(errOut.String()); msg != "" {
			return "", fmt.Errorf("tty: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tty: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
