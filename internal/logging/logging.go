// Copyright 2026 FoodBlock Protocol
//
// Leveled, bracketed-prefix logger
// Package logging provides leveled wrappers over the standard library
// logger, gated by LOG_LEVEL, in the bracketed-component-prefix style the
// teacher codebase uses for its per-subsystem loggers.
package logging

import (
	"log"
	"os"
	"strings"
)

// Level is a log verbosity threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger wraps *log.Logger with a level gate and component prefix.
type Logger struct {
	base  *log.Logger
	level Level
}

// New creates a component logger, e.g. New("EventBus", LevelInfo).
func New(component string, level Level) *Logger {
	return &Logger{
		base:  log.New(os.Stderr, "["+component+"] ", log.LstdFlags),
		level: level,
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.level >= LevelError {
		l.base.Printf("ERROR: "+format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.level >= LevelWarn {
		l.base.Printf("WARN: "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.level >= LevelInfo {
		l.base.Printf("INFO: "+format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		l.base.Printf("DEBUG: "+format, args...)
	}
}
