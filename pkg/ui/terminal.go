package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner printed at the start of interactive commands
const Banner = `
  ┌─────────────────────────────────────────────┐
  │  behancesync · portfolio ingestion pipeline │
  └─────────────────────────────────────────────┘
`

// Color functions for terminal output
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Red    = colorize("\033[31m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
	Dim    = colorize("\033[2m%s\033[0m")
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	quiet   bool
	noColor bool
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects normal and error output
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, errOut = stdout, stderr
}

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetNoColor disables ANSI colors
func SetNoColor(n bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = n
}

func printOut(s string) {
	mu.Lock()
	defer mu.Unlock()
	if !quiet {
		fmt.Fprint(out, s)
	}
}

// PrintBanner prints the banner
func PrintBanner() {
	printOut(Cyan(Banner))
}

// PrintError prints an error message in red, with optional details
func PrintError(msg string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(errOut, "%s %s\n", Red("[ERROR]"), msg)
	for _, arg := range args {
		fmt.Fprintf(errOut, "        %v\n", arg)
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printOut(fmt.Sprintf("%s %s\n", Green("[OK]"), msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	printOut(fmt.Sprintf("%s %s\n", Cyan(label+":"), value))
}

// PrintWarning prints a warning in yellow
func PrintWarning(msg string, args ...interface{}) {
	printOut(fmt.Sprintf("%s %s\n", Yellow("[WARN]"), fmt.Sprintf(msg, args...)))
}
