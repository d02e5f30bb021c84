// Package mlog defines the logging contract used across the storage core.
// Production code logs through the zap implementation in pkg/mzap; tests and
// bare callers fall back to GoLogger or NoneLogger.
package mlog

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the common interface for log implementation.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Fatalln(args ...any)

	WithFields(fields ...any) Logger

	Sync() error
}

// LogLevel represents the level of log system (fatal, error, warn, info and debug).
type LogLevel int8

const (
	// PanicLevel level, highest level of severity.
	PanicLevel LogLevel = iota
	// FatalLevel level. Logs and then exits even if the logging level is set to Panic.
	FatalLevel
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel level. General operational entries about what's going on inside the application.
	InfoLevel
	// DebugLevel level. Usually only enabled when debugging. Very verbose logging.
	DebugLevel
)

// ParseLevel takes a string level and returns a LogLevel constant.
func ParseLevel(lvl string) (LogLevel, error) {
	switch strings.ToLower(lvl) {
	case "fatal":
		return FatalLevel, nil
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}

	var l LogLevel

	return l, fmt.Errorf("not a valid LogLevel: %q", lvl)
}

// GoLogger is the Go built-in (log) implementation of Logger interface.
type GoLogger struct {
	fields []any
	Level  LogLevel
}

// IsLevelEnabled checks if the given level is enabled.
func (l *GoLogger) IsLevelEnabled(level LogLevel) bool {
	return l.Level >= level
}

func (l *GoLogger) print(level LogLevel, args ...any) {
	if l.IsLevelEnabled(level) {
		log.Print(args...)
	}
}

func (l *GoLogger) printf(level LogLevel, format string, args ...any) {
	if l.IsLevelEnabled(level) {
		log.Printf(format, args...)
	}
}

func (l *GoLogger) println(level LogLevel, args ...any) {
	if l.IsLevelEnabled(level) {
		log.Println(args...)
	}
}

// Info implements Info Logger interface function.
func (l *GoLogger) Info(args ...any) { l.print(InfoLevel, args...) }

// Infof implements Infof Logger interface function.
func (l *GoLogger) Infof(format string, args ...any) { l.printf(InfoLevel, format, args...) }

// Infoln implements Infoln Logger interface function.
func (l *GoLogger) Infoln(args ...any) { l.println(InfoLevel, args...) }

// Error implements Error Logger interface function.
func (l *GoLogger) Error(args ...any) { l.print(ErrorLevel, args...) }

// Errorf implements Errorf Logger interface function.
func (l *GoLogger) Errorf(format string, args ...any) { l.printf(ErrorLevel, format, args...) }

// Errorln implements Errorln Logger interface function.
func (l *GoLogger) Errorln(args ...any) { l.println(ErrorLevel, args...) }

// Warn implements Warn Logger interface function.
func (l *GoLogger) Warn(args ...any) { l.print(WarnLevel, args...) }

// Warnf implements Warnf Logger interface function.
func (l *GoLogger) Warnf(format string, args ...any) { l.printf(WarnLevel, format, args...) }

// Warnln implements Warnln Logger interface function.
func (l *GoLogger) Warnln(args ...any) { l.println(WarnLevel, args...) }

// Debug implements Debug Logger interface function.
func (l *GoLogger) Debug(args ...any) { l.print(DebugLevel, args...) }

// Debugf implements Debugf Logger interface function.
func (l *GoLogger) Debugf(format string, args ...any) { l.printf(DebugLevel, format, args...) }

// Debugln implements Debugln Logger interface function.
func (l *GoLogger) Debugln(args ...any) { l.println(DebugLevel, args...) }

// Fatal implements Fatal Logger interface function.
func (l *GoLogger) Fatal(args ...any) { l.print(FatalLevel, args...) }

// Fatalf implements Fatalf Logger interface function.
func (l *GoLogger) Fatalf(format string, args ...any) { l.printf(FatalLevel, format, args...) }

// Fatalln implements Fatalln Logger interface function.
func (l *GoLogger) Fatalln(args ...any) { l.println(FatalLevel, args...) }

// WithFields implements WithFields Logger interface function
//
//nolint:ireturn
func (l *GoLogger) WithFields(fields ...any) Logger {
	return &GoLogger{
		Level:  l.Level,
		fields: fields,
	}
}

// Sync implements Sync Logger interface function.
func (l *GoLogger) Sync() error { return nil }
