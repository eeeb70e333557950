/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package logger provides the leveled logger shared by the resolvers and the CLI.
// Resolution is chatty at debug level, so the default level is warn.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "metroresolve",
	Level:  log.WarnLevel,
})

// SetOutput configures the logger output destination.
// Use io.Discard to silence all logging.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names leave the level unchanged and return false.
func SetLevel(name string) bool {
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return false
	}
	logger.SetLevel(level)
	return true
}

// DebugEnabled reports whether debug output would be written.
func DebugEnabled() bool {
	return logger.GetLevel() <= log.DebugLevel
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	logger.Infof(format, args...)
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	logger.Errorf(format, args...)
}

// DebugFields logs msg at debug level with alternating key/value pairs.
func DebugFields(msg string, keyvals ...any) {
	logger.Debug(msg, keyvals...)
}
