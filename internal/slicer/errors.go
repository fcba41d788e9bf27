package slicer

import (
	"errors"
	"fmt"
)

// Code is the stable integer error enumeration exposed across the
// session boundary. Values are a compatibility surface and never
// renumbered.
type Code int

const (
	CodeSuccess        Code = 0
	CodeNullContext    Code = 1
	CodeNullParameter  Code = 2
	CodeModelLoad      Code = 3
	CodeConfigParse    Code = 4
	CodePresetNotFound Code = 5
	CodeNoModel        Code = 6
	CodeNoConfig       Code = 7
	CodeProcessFailed  Code = 8
	CodeExportFailed   Code = 9
	CodeIO             Code = 10
	CodeInternal       Code = 99
)

// String returns the code's label.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "SUCCESS"
	case CodeNullContext:
		return "NULL_CONTEXT"
	case CodeNullParameter:
		return "NULL_PARAMETER"
	case CodeModelLoad:
		return "MODEL_LOAD"
	case CodeConfigParse:
		return "CONFIG_PARSE"
	case CodePresetNotFound:
		return "PRESET_NOT_FOUND"
	case CodeNoModel:
		return "NO_MODEL"
	case CodeNoConfig:
		return "NO_CONFIG"
	case CodeProcessFailed:
		return "PROCESS_FAILED"
	case CodeExportFailed:
		return "EXPORT_FAILED"
	case CodeIO:
		return "IO"
	case CodeInternal:
		return "INTERNAL"
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

// Error is a session failure: a stable code, the operation that failed,
// and a message. Collaborator failures keep their message verbatim.
type Error struct {
	Code    Code
	Op      string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the stable code from an error. Nil maps to Success;
// an error without a code maps to Internal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// IsPresetNotFound reports whether the error carries CodePresetNotFound.
func IsPresetNotFound(err error) bool {
	return CodeOf(err) == CodePresetNotFound
}

// IsProcessFailed reports whether the error carries CodeProcessFailed.
func IsProcessFailed(err error) bool {
	return CodeOf(err) == CodeProcessFailed
}

func newError(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}
