//go:build !windows

package config

import "errors"

// ErrNoRegistry реестр есть только в Windows.
var ErrNoRegistry = errors.New("registry backend is only available on windows")

// OpenLocalMachine на этой платформе недоступен.
func OpenLocalMachine() (Key, error) {
	return nil, ErrNoRegistry
}
