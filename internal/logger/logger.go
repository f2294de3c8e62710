package logger

import (
	"fmt"           // For rendering messages before they reach the log file
	"io"            // For the pluggable console writers
	"os"            // For opening the structured log file
	"path/filepath" // For creating the log file's parent directory
	"strings"       // For trimming console decoration from file records

	"github.com/fatih/color" // Colored console output
	"github.com/rs/zerolog"  // Structured JSON log file
)

// Colorized printf functions for the different log levels, built with fatih/color.
// Each behaves like fmt.Fprintf but wraps the text in the level's color.
// Info is green, Warn is bright magenta, Error is red and Debug is cyan.
var (
	infof  = color.New(color.FgGreen).FprintfFunc()
	warnf  = color.New(color.FgHiMagenta).FprintfFunc()
	errorf = color.New(color.FgRed).FprintfFunc()
	debugf = color.New(color.FgCyan).FprintfFunc()
)

var (
	// stdout receives Info and Debug lines, stderr receives Warn and Error lines.
	// Both default to fatih/color's writers, which strip colors on non-terminals.
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error

	// file mirrors every console line as a JSON event.
	// It is a no-op logger until SetLogFile succeeds.
	file = zerolog.Nop()

	// debugEnabled gates Debug; set by Init from the --debug flag.
	debugEnabled bool
)

// Init initializes the logger package, enabling or disabling debug logging.
// Parameters:
// - enableDebug: turn debug messages on or off.
// When enabled, Debug prints cyan messages and records them in the log file.
// When disabled, Debug is a no-op both on the console and in the log file.
func Init(enableDebug bool) {
	debugEnabled = enableDebug
}

// SetOutput redirects console output, mainly so tests can capture it.
// Parameters:
// - out: writer for Info and Debug lines.
// - errOut: writer for Warn and Error lines.
// Passing nil for either keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// SetLogFile opens (or creates) path in append mode and mirrors every log line
// into it as a zerolog JSON event carrying a level and a timestamp.
// The parent directory is created when missing.
// The returned closer must be closed when the program exits.
func SetLogFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	file = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}

// Info logs informational messages in green on stdout.
// Used for progress and successful outcomes.
func Info(format string, a ...any) {
	infof(stdout, format, a...)
	record(zerolog.InfoLevel, format, a...)
}

// Warn logs warning messages in bright magenta on stderr.
// Used for skipped steps and recoverable problems.
func Warn(format string, a ...any) {
	warnf(stderr, format, a...)
	record(zerolog.WarnLevel, format, a...)
}

// Error logs error messages in red on stderr.
// Used for failed steps; the caller decides whether to continue.
func Error(format string, a ...any) {
	errorf(stderr, format, a...)
	record(zerolog.ErrorLevel, format, a...)
}

// Debug logs debug messages in cyan on stdout if enabled, otherwise is a no-op.
func Debug(format string, a ...any) {
	if !debugEnabled {
		return
	}
	debugf(stdout, format, a...)
	record(zerolog.DebugLevel, format, a...)
}

// record writes the message to the log file without the "[LEVEL] " prefix
// and trailing newline used on the console.
func record(level zerolog.Level, format string, a ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, a...))
	if strings.HasPrefix(msg, "[") {
		if i := strings.Index(msg, "] "); i > 0 {
			msg = msg[i+2:]
		}
	}
	file.WithLevel(level).Msg(msg)
}
