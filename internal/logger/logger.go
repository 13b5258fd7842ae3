// Package logger is the leveled stderr logging used across memvault.
// Debug output stays off unless enabled through config or the --debug flag.
package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	debugMode bool

	debugLog = log.New(os.Stderr, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLog  = log.New(os.Stderr, "[INFO] ", log.Ldate|log.Ltime)
	warnLog  = log.New(os.Stderr, "[WARN] ", log.Ldate|log.Ltime)
	errorLog = log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
)

func SetDebugMode(enabled bool) {
	debugMode = enabled
	if enabled {
		Debug("Debug logging enabled")
	}
}

func Debug(format string, args ...interface{}) {
	if debugMode {
		_ = debugLog.Output(2, fmt.Sprintf(format, args...))
	}
}

func Info(format string, args ...interface{}) {
	infoLog.Printf(format, args...)
}

// Warn reports recoverable problems: a skipped record, a cache that failed
// to open. Unlike Debug it is always emitted.
func Warn(format string, args ...interface{}) {
	warnLog.Printf(format, args...)
}

func Error(format string, args ...interface{}) {
	_ = errorLog.Output(2, fmt.Sprintf(format, args...))
}
