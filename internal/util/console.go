package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var Red = color.New(color.FgRed)
var RedBold = color.New(color.FgRed).Add(color.Bold)
var Cyan = color.New(color.FgCyan)
var CyanBold = color.New(color.FgCyan).Add(color.Bold)
var Green = color.New(color.FgGreen)
var GreenBold = color.New(color.FgGreen).Add(color.Bold)
var Yellow = color.New(color.FgYellow)
var Magenta = color.New(color.FgMagenta)

var stdin = bufio.NewScanner(os.Stdin)

func Scanline() string {
	if stdin.Scan() {
		return stdin.Text()
	}
	color.Red("\nInterrupted")
	os.Exit(1)
	return ""
}

// ScanlineTrim : Scans input and trims
func ScanlineTrim() string {
	return strings.TrimSpace(Scanline())
}

// ScanPassword reads a line without echo when stdin is a terminal and
// falls back to a plain read otherwise (pipes, tests).
func ScanPassword() string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ScanlineTrim()
	}
	pass, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		color.Red("\nInterrupted")
		os.Exit(1)
	}
	return strings.TrimSpace(string(pass))
}

// Confirm asks a y/n question and reports whether the answer was yes.
func Confirm(question string) bool {
	Cyan.Printf("%s (y/n): ", question)
	switch strings.ToLower(ScanlineTrim()) {
	case "y", "yes":
		return true
	}
	return false
}
