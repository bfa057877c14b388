//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package sys

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// DetachTerminal disassociates the session of the calling process from the
// terminal opened at path (normally ControllingTerminal) using TIOCNOTTY.
//
// SIGHUP is suppressed for the duration of the ioctl, because a session
// leader receives it when giving up its terminal. The previous disposition
// is restored before the device is closed, whatever the outcome.
func DetachTerminal(path string) (err error) {
	restore := SuppressSignals(nil, unix.SIGHUP)
	defer restore()

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		restore()
		if cerr := unix.Close(fd); cerr != nil {
			err = multierr.Append(err, &os.PathError{Op: "close", Path: path, Err: cerr})
		}
	}()

	if !term.IsTerminal(fd) {
		return &os.PathError{Op: "ioctl", Path: path, Err: unix.ENOTTY}
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCNOTTY, 0); err != nil {
		return fmt.Errorf("cannot relinquish %s: %w", path, os.NewSyscallError("ioctl TIOCNOTTY", err))
	}
	return nil
}
