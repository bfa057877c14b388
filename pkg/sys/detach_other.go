//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package sys

import (
	"errors"
	"fmt"
	"runtime"
)

var errUnsupported = errors.New("controlling terminals are not supported on " + runtime.GOOS)

func DetachTerminal(path string) error {
	return fmt.Errorf("cannot relinquish %q: %w", path, errUnsupported)
}

func Park() error {
	return errUnsupported
}
