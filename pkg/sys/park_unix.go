//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package sys

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Park blocks the calling goroutine forever. It reads from a pipe whose
// write end is never written to nor closed, so the read has no wakeup
// condition; the process only goes away when something outside kills it.
// The descriptors are blocking, which keeps the thread in read(2) instead of
// the runtime poller.
//
// Park only returns when the pipe cannot be set up or the read fails.
func Park() error {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return os.NewSyscallError("pipe", err)
	}
	r, w := p[0], p[1]
	defer unix.Close(r)
	defer unix.Close(w)
	unix.CloseOnExec(r)
	unix.CloseOnExec(w)

	buf := make([]byte, 1)
	for {
		n, err := unix.Read(r, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return os.NewSyscallError("read", err)
		}
		return fmt.Errorf("park: unexpected wakeup (%d bytes read)", n)
	}
}
