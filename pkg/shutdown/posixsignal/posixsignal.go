// Package posixsignal is a shutdown.ShutdownManager triggered by SIGINT/SIGTERM.
package posixsignal

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/brightpath-edu/iepforge/pkg/shutdown"
)

const Name = "posix-signal-manager"

type posixSignalManager struct {
	signals []os.Signal
}

// NewPosixSignalManager builds a manager listening on SIGINT/SIGTERM, or any
// signals passed explicitly.
func NewPosixSignalManager(sig ...os.Signal) shutdown.ShutdownManager {
	if len(sig) == 0 {
		sig = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &posixSignalManager{signals: sig}
}

func (p *posixSignalManager) Name() string { return Name }

func (p *posixSignalManager) Start(gs *shutdown.GracefulShutdown) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, p.signals...)
	go func() {
		<-c
		gs.StartShutdown(p)
	}()
	return nil
}
