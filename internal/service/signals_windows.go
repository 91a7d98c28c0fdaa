//go:build windows

package service

import (
	"os"
	"syscall"
)

// На Windows перезагрузка и пробуждение доступны только через HTTP API.
func handledSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

func isReload(os.Signal) bool { return false }

func isWake(os.Signal) bool { return false }
