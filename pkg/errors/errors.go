//
// Copyright (c) 2020-2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package errors

import (
	stderrors "errors"
	"fmt"
)

// InternalError identifies a class of failure. Values are compared by
// equality, so only the exported variables below should be used.
type InternalError struct {
	msg  string // message associated to the error
	code int    // error code
}

// ConverterError is an error raised while converting a trace. It pairs the
// class of the failure with the error giving the details (rank, call,
// handles involved).
type ConverterError struct {
	internal InternalError
	details  error
}

// ErrFatal means that a fatal error occured
var ErrFatal = InternalError{"Fatal error", -3}

// ErrUnknownType means that no size is known for a datatype handle
var ErrUnknownType = InternalError{"Unknown datatype", -4}

// ErrResolution means that the communicator/group/type model is inconsistent
// with the trace (missing handle version, mismatching group, wrong rank)
var ErrResolution = InternalError{"Resolution inconsistency", -5}

// ErrUnimplemented means that the trace uses an operation the converter
// refuses to approximate
var ErrUnimplemented = InternalError{"Unimplemented operation", -6}

// ErrRequest means that a request completion cannot be matched or is not
// deterministic
var ErrRequest = InternalError{"Request inconsistency", -7}

// ErrArchiveIO means that the output archive could not be written
var ErrArchiveIO = InternalError{"Archive I/O", -8}

func (i InternalError) Error() string {
	return i.msg
}

// Code returns the numerical code of the error class
func (i InternalError) Code() int {
	return i.code
}

func New(i InternalError, err error) *ConverterError {
	e := new(ConverterError)
	e.details = err
	e.internal = i
	return e
}

// Newf is a shortcut for New(i, fmt.Errorf(format, args...))
func Newf(i InternalError, format string, args ...interface{}) *ConverterError {
	return New(i, fmt.Errorf(format, args...))
}

func (e *ConverterError) Error() string {
	if e.details == nil {
		return e.internal.msg
	}
	return fmt.Sprintf("%s: %s", e.internal.msg, e.details)
}

// Is reports whether the error belongs to a class. It accepts both an
// InternalError and another *ConverterError so that the standard
// errors.Is() can be used on wrapped errors.
func (e *ConverterError) Is(target error) bool {
	switch t := target.(type) {
	case InternalError:
		return e.internal == t
	case *ConverterError:
		return e.internal == t.internal
	}
	return false
}

// Kind returns the class of the error
func (e *ConverterError) Kind() InternalError {
	return e.internal
}

func (e *ConverterError) Unwrap() error {
	return e.details
}

// ExitCode returns the exit status of a command failing with err: the
// opposite of the code of its class, 1 for an error of no class
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *ConverterError
	if stderrors.As(err, &ce) {
		return -ce.internal.Code()
	}
	return 1
}
