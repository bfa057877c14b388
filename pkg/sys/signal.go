package sys

import (
	"os"
	"os/signal"
	"sync"
)

// SuppressSignals keeps sigs from having any effect on the process until the
// returned function is called, which puts back the disposition they had
// before. Signals arriving in between are passed to handle, if not nil, and
// otherwise dropped. The returned function may be called more than once.
//
// The signals are caught rather than ignored: signal.Reset does not undo
// signal.Ignore, and a child started meanwhile would inherit SIG_IGN.
func SuppressSignals(handle func(os.Signal), sigs ...os.Signal) (restore func()) {
	ch := make(chan os.Signal, len(sigs)+1)
	done := make(chan struct{})
	finished := make(chan struct{})
	signal.Notify(ch, sigs...)

	go func() {
		defer close(finished)
		for {
			select {
			case sig := <-ch:
				if handle != nil {
					handle(sig)
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			<-finished
		})
	}
}
