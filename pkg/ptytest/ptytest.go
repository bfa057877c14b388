//go:build linux

// Package ptytest starts processes as session leaders on a fresh
// pseudo-terminal, so that code giving up a controlling terminal can be
// tested without the terminal of the test run.
package ptytest

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Terminal is a pseudo-terminal pair. Everything written to the slave side
// is collected from the master side.
type Terminal struct {
	Name string

	master *os.File
	slave  *os.File

	mu      sync.Mutex
	out     bytes.Buffer
	drained chan struct{}
}

// Open allocates a new pseudo-terminal through /dev/ptmx.
func Open() (*Terminal, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	fd := int(master.Fd())
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, os.NewSyscallError("ioctl TIOCSPTLCK", err)
	}
	n, err := unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, os.NewSyscallError("ioctl TIOCGPTN", err)
	}
	name := fmt.Sprintf("/dev/pts/%d", n)
	slave, err := os.OpenFile(name, os.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		master.Close()
		return nil, err
	}
	return &Terminal{
		Name:    name,
		master:  master,
		slave:   slave,
		drained: make(chan struct{}),
	}, nil
}

// Start runs cmd in a new session with the slave side as its standard
// streams and controlling terminal. The slave side is closed in this process
// afterwards, so the master side sees EOF once cmd and its children are gone.
func (t *Terminal) Start(cmd *exec.Cmd) error {
	cmd.Stdin, cmd.Stdout, cmd.Stderr = t.slave, t.slave, t.slave
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true, Ctty: 0}
	err := cmd.Start()
	t.slave.Close()
	if err != nil {
		close(t.drained)
		return err
	}

	go func() {
		defer close(t.drained)
		buf := make([]byte, 1024)
		for {
			n, err := t.master.Read(buf)
			t.mu.Lock()
			t.out.Write(buf[:n])
			t.mu.Unlock()
			// a master without slaves reads EIO
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Output returns what the process wrote to the terminal, waiting up to
// timeout for the slave side to be closed.
func (t *Terminal) Output(timeout time.Duration) string {
	select {
	case <-t.drained:
	case <-time.After(timeout):
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.String()
}

func (t *Terminal) Close() error {
	return t.master.Close()
}
