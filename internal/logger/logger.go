// Package logger provides a small leveled logger for the generator pipeline.
// Output goes to the standard logger so the CLI and library callers share one
// sink; quiet mode suppresses everything below warn.
package logger

import "log"

const (
	errorLabel = "[ERROR] "
	warnLabel  = "[WARN ] "
	infoLabel  = "[INFO ] "
	debugLabel = "[DEBUG] "
)

var quiet bool

// SetQuiet suppresses info and debug output when on is true.
func SetQuiet(on bool) {
	quiet = on
}

// Error prints to the standard logger, adding an error label.
// Arguments are handled in the manner of [fmt.Printf].
func Error(format string, args ...interface{}) {
	log.Printf(errorLabel+format, args...)
}

// Warn prints to the standard logger, adding a warn label.
// Arguments are handled in the manner of [fmt.Printf].
func Warn(format string, args ...interface{}) {
	log.Printf(warnLabel+format, args...)
}

// Info prints to the standard logger, adding an info label.
// Arguments are handled in the manner of [fmt.Printf].
func Info(format string, args ...interface{}) {
	if quiet {
		return
	}
	log.Printf(infoLabel+format, args...)
}

// Debug prints to the standard logger, adding a debug label.
// Arguments are handled in the manner of [fmt.Printf].
func Debug(format string, args ...interface{}) {
	if quiet {
		return
	}
	log.Printf(debugLabel+format, args...)
}
