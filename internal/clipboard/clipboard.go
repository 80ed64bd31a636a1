// Package clipboard adapts the host clipboard for copying calculation results.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the host has no usable clipboard utility.
var ErrUnsupported = errors.New("clipboard unsupported on this host")

// Writer copies text to a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// System writes to the operating system clipboard.
type System struct{}

// WriteAll copies text to the system clipboard.
func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Nop discards everything written to it.
type Nop struct{}

func (Nop) WriteAll(string) error { return nil }

// New returns the system clipboard when enabled, otherwise Nop.
func New(enabled bool) Writer {
	if enabled {
		return System{}
	}
	return Nop{}
}
