package main

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var errNotInteractive = errors.New("stdin is not a terminal")

// acknowledge holds the process open until the operator confirms, so the
// console window keeps the run output visible.
func acknowledge(in io.Reader, skip bool) error {
	if skip {
		return nil
	}
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return errNotInteractive
	}
	done := true
	return huh.NewConfirm().
		Title("Batch finished").
		Description("Press Enter to exit").
		Affirmative("Exit").
		Negative("").
		Value(&done).
		Run()
}
