//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package logger adds verbosity levels on top of the standard logger, which
// the commands redirect to their log file.
package logger

import (
	"fmt"
	"log"
	"strings"

	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// Verbosity selects which messages are logged
type Verbosity int

const (
	// Silent logs nothing
	Silent Verbosity = iota

	// Error only logs errors
	Error

	// Warn logs errors and warnings
	Warn

	// Info logs everything
	Info

	// Abort logs everything and makes every warning fatal
	Abort
)

var verbosityNames = []string{"silent", "error", "warn", "info", "abort"}

func (v Verbosity) String() string {
	if v < Silent || v > Abort {
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
	return verbosityNames[v]
}

// ParseVerbosity returns the verbosity level with the given name
func ParseVerbosity(s string) (Verbosity, error) {
	for i, name := range verbosityNames {
		if strings.EqualFold(s, name) {
			return Verbosity(i), nil
		}
	}
	return Silent, fmt.Errorf("unknown verbosity level %q (expected one of %s)", s, strings.Join(verbosityNames, ", "))
}

// UnmarshalText lets configuration files name the verbosity level
func (v *Verbosity) UnmarshalText(text []byte) error {
	parsed, err := ParseVerbosity(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText is the reverse of UnmarshalText
func (v Verbosity) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Logger logs the messages of one rank
type Logger struct {
	Verbosity Verbosity
	prefix    string
	out       *log.Logger
}

// New returns a logger writing to the standard logger. rank is added to
// every message, unless negative.
func New(v Verbosity, rank int) *Logger {
	l := &Logger{Verbosity: v}
	if rank >= 0 {
		l.prefix = fmt.Sprintf("rank %d: ", rank)
	}
	return l
}

// SetOutput makes the logger write to its own log.Logger instead of the
// standard one
func (l *Logger) SetOutput(out *log.Logger) {
	l.out = out
}

func (l *Logger) print(level string, format string, args ...interface{}) {
	msg := fmt.Sprintf("[%s] %s%s", level, l.prefix, fmt.Sprintf(format, args...))
	if l.out != nil {
		l.out.Println(msg)
		return
	}
	log.Println(msg)
}

// Errorf logs an error, unless silent
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.Verbosity >= Error {
		l.print("ERROR", format, args...)
	}
}

// Warnf logs a warning. With the Abort verbosity, the warning is returned
// as an error and must stop the conversion.
func (l *Logger) Warnf(format string, args ...interface{}) error {
	if l.Verbosity >= Warn {
		l.print("WARN", format, args...)
	}
	if l.Verbosity == Abort {
		return errors.Newf(errors.ErrFatal, "%s%s", l.prefix, fmt.Sprintf(format, args...))
	}
	return nil
}

// Infof logs an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.Verbosity >= Info {
		l.print("INFO", format, args...)
	}
}
