package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
	neonBlue    = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// resultWidth is the wrap width of the enhanced prompt box.
const resultWidth = 72

// ══════════════════════════════════════════════════════════════════════════════
// ENHANCEMENT OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

// PrintResult renders an enhancement result: the prompt in a box, then the
// improvements as a bulleted list.
func PrintResult(w io.Writer, res domain.EnhancementResult) {
	fmt.Fprintln(w)
	successBadge.Fprint(w, " ENHANCED ")
	fmt.Fprintln(w)

	border := strings.Repeat("─", resultWidth+2)
	mutedText.Fprintln(w, "┌"+border+"┐")
	for _, line := range wrap(res.EnhancedPrompt, resultWidth) {
		mutedText.Fprint(w, "│ ")
		fmt.Fprintf(w, "%-*s", resultWidth, line)
		mutedText.Fprintln(w, " │")
	}
	mutedText.Fprintln(w, "└"+border+"┘")

	if len(res.Improvements) == 0 {
		return
	}
	fmt.Fprintln(w)
	accentText.Fprintln(w, "Improvements:")
	for _, imp := range res.Improvements {
		neonBlue.Fprint(w, "  • ")
		fmt.Fprintln(w, imp)
	}
}

// PrintFailure renders a gateway failure notice.
func PrintFailure(w io.Writer, notice string) {
	errorBadge.Fprint(w, " FAILED ")
	fmt.Fprint(w, " ")
	errorText.Fprintln(w, notice)
}

// PrintDropped reports that a call was ignored because another was running.
func PrintDropped(w io.Writer) {
	warningBadge.Fprint(w, "[BUSY]")
	warningText.Fprintln(w, " An enhancement is already in progress; request ignored.")
}

// PrintCredentials shows the stored credentials with the key masked.
func PrintCredentials(w io.Writer, creds domain.Credentials, location string) {
	infoBadge.Fprint(w, "[CONFIG]")
	fmt.Fprint(w, " Store: ")
	accentText.Fprintln(w, location)

	printField(w, "Provider", creds.Provider)
	printField(w, "Model", creds.Model)
	if creds.Configured() {
		printField(w, "API key", creds.MaskedKey())
	} else {
		mutedText.Fprintf(w, "  %-9s ", "API key")
		errorText.Fprintln(w, "not configured")
	}
}

// PrintSaved confirms a configuration change.
func PrintSaved(w io.Writer, msg string) {
	successBadge.Fprint(w, " OK ")
	fmt.Fprint(w, " ")
	successText.Fprintln(w, msg)
}

func printField(w io.Writer, name, value string) {
	mutedText.Fprintf(w, "  %-9s ", name)
	fmt.Fprintln(w, value)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints the listen address, store and routes.
func PrintStartupInfo(w io.Writer, addr, storeDriver string, providers []string) {
	fmt.Fprintln(w)
	infoBadge.Fprint(w, "[SERVER]")
	fmt.Fprint(w, " Listening on ")
	neonBlue.Fprintf(w, "http://%s\n", addr)

	infoBadge.Fprint(w, "[SERVER]")
	fmt.Fprint(w, " Credential store: ")
	accentText.Fprint(w, storeDriver)
	fmt.Fprint(w, " | Providers: ")
	if len(providers) > 0 {
		successText.Fprintln(w, strings.Join(providers, ", "))
	} else {
		errorText.Fprintln(w, "none")
	}

	fmt.Fprintln(w)
	printEndpoints(w)
}

func printEndpoints(w io.Writer) {
	routes := []struct {
		method, path, desc string
	}{
		{"POST", "/v1/messages", "Channel messages (enhance)"},
		{"GET", "/health", "Health check"},
		{"GET", "/metrics", "Prometheus metrics"},
	}

	mutedText.Fprintln(w, "  ┌──────────────────────────────────────────────────────┐")
	for _, r := range routes {
		mutedText.Fprint(w, "  │ ")
		if r.method == "POST" {
			methodPOST.Fprintf(w, " %-4s ", r.method)
		} else {
			methodGET.Fprintf(w, " %-4s ", r.method)
		}
		fmt.Fprintf(w, " %-14s ", r.path)
		mutedText.Fprintf(w, " %-27s", r.desc)
		mutedText.Fprintln(w, " │")
	}
	mutedText.Fprintln(w, "  └──────────────────────────────────────────────────────┘")
	fmt.Fprintln(w)
}

// PrintShutdown prints the shutdown notice.
func PrintShutdown(w io.Writer) {
	fmt.Fprintln(w)
	warningBadge.Fprint(w, "[SHUTDOWN]")
	warningText.Fprintln(w, " Graceful shutdown initiated...")
}

// PrintGoodbye prints the final line after shutdown.
func PrintGoodbye(w io.Writer) {
	successBadge.Fprint(w, " OK ")
	fmt.Fprint(w, " ")
	successText.Fprintln(w, "Server stopped. Goodbye!")
}

// wrap splits s into lines of at most width runes, breaking on spaces
// where possible and keeping existing line breaks.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur []rune
		for _, word := range words {
			wr := []rune(word)
			for len(wr) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(wr[:width]))
				wr = wr[width:]
			}
			switch {
			case len(cur) == 0:
				cur = wr
			case len(cur)+1+len(wr) <= width:
				cur = append(append(cur, ' '), wr...)
			default:
				lines = append(lines, string(cur))
				cur = wr
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}
