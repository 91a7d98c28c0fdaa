//go:build !windows && !plan9

package service

import (
	"os"
	"syscall"
)

func handledSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1}
}

func isReload(sig os.Signal) bool { return sig == syscall.SIGHUP }

func isWake(sig os.Signal) bool { return sig == syscall.SIGUSR1 }
