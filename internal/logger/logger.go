package logger

import (
	"github.com/fatih/color" // Colored console output for the different log levels
)

// Info logs informational messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs non-fatal problems in bright magenta, e.g. a skipped migration
// or an unsupported service manager.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs failures in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Prompt prints interactive questions in bold yellow.
var Prompt = color.New(color.FgYellow, color.Bold).PrintfFunc()

// Debug logs debug messages in cyan once enabled through Init.
// Until then it is a no-op so packages can log before the CLI has parsed flags.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// DisableColor turns off ANSI colors, used for --no-color and non-TTY output.
func DisableColor() {
	color.NoColor = true
}
