package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// isTerminal reports whether stdout is attached to a terminal; formatting
// is skipped for piped output.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal() {
		pterm.Success.Println(msg)
		return
	}
	fmt.Println(msg)
}

func printInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal() {
		pterm.Info.Println(msg)
		return
	}
	fmt.Println(msg)
}

func printError(err error) {
	if isTerminal() {
		pterm.Error.Println(err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
}
