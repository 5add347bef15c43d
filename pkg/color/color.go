package color

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
)

// Foreground colors
const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

// Bright foreground colors
const (
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Palette for interaction partners. Red is left out so partner names never
// look like errors.
var partnerColors = []string{
	BrightGreen,
	BrightYellow,
	BrightBlue,
	BrightMagenta,
	BrightCyan,
	Green,
	Yellow,
	Blue,
	Magenta,
	Cyan,
}

// Enabled reports whether the terminal supports color output
func Enabled() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return true
	}

	return strings.Contains(term, "color") ||
		strings.Contains(term, "ansi") ||
		strings.Contains(term, "xterm") ||
		strings.Contains(term, "screen")
}

// Colorize applies color to text
func Colorize(text, color string) string {
	if !Enabled() {
		return text
	}
	return color + text + Reset
}

// PartnerColor returns a stable color for the given partner name
func PartnerColor(partner string) string {
	h := fnv.New32a()
	h.Write([]byte(partner))
	return partnerColors[h.Sum32()%uint32(len(partnerColors))]
}

// PartnerPrefix formats "[partner]" in the partner's color
func PartnerPrefix(partner string) string {
	return Colorize(fmt.Sprintf("[%s]", partner), PartnerColor(partner))
}

// Fprintln writes text with a colored partner prefix and newline
func Fprintln(w io.Writer, partner, text string) {
	fmt.Fprintf(w, "%s %s\n", PartnerPrefix(partner), text)
}
