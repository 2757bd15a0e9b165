//go:build !windows

package main

import (
	"errors"
	"os"

	"golang.org/x/term"
)

func enterRawMode(in *os.File, legacy bool) (func() error, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, state) }, nil
}

func legacyCursorPosition() (row, col uint16, err error) {
	return 0, 0, errors.New("legacy console mode is only available on Windows")
}
