// Package ui renders colored console output for the enhancer binaries.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Version is printed in the banner.
const Version = "v1.0.0"

// PrintBanner displays the startup banner.
func PrintBanner(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	hiCyan := color.New(color.FgHiCyan)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "╔══════════════════════════════════════════════════════╗")

	art := []string{
		"█▀▀▄ █▀▀▄ ▄▀▀▄ █▄ ▄█ █▀▀▄ ▀█▀",
		"█▄▄▀ █▄▄▀ █  █ █ ▀ █ █▄▄▀  █ ",
		"█    █  █ ▀▄▄▀ █   █ █     █ ",
	}
	for _, line := range art {
		cyan.Fprint(w, "║   ")
		hiCyan.Fprint(w, line)
		magenta.Fprint(w, "  ✦ ENHANCER  ")
		cyan.Fprintln(w, "     ║")
	}

	cyan.Fprintln(w, "╠══════════════════════════════════════════════════════╣")
	cyan.Fprint(w, "║   ")
	yellow.Fprint(w, "✨ PROMPT ENHANCER")
	dim.Fprint(w, "  │  ")
	magenta.Fprint(w, "OpenAI")
	dim.Fprint(w, "  │  ")
	fmt.Fprint(w, Version)
	fmt.Fprint(w, "           ")
	cyan.Fprintln(w, "║")
	cyan.Fprintln(w, "╚══════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
}

// PrintMiniBanner displays a one-box banner for narrow terminals.
func PrintMiniBanner(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "╔══════════════════════════════╗")
	cyan.Fprint(w, "║  ")
	magenta.Fprint(w, "✨ PROMPT ENHANCER ")
	fmt.Fprint(w, Version)
	cyan.Fprintln(w, "  ║")
	cyan.Fprintln(w, "╚══════════════════════════════╝")
	fmt.Fprintln(w)
}
