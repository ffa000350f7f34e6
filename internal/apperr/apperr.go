// Package apperr defines the machine-readable error codes used across nodekit.
//
// Every error message produced by nodekit starts with its code, e.g.
// "REG_FETCH: could not download Node index from https://...". Typed errors in
// other packages expose their code through the [Coder] interface so that the
// CLI can map failures to exit codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeVersionParse    Code = "VER_PARSE"
	CodeVersionNotFound Code = "RES_VERSION_NOT_FOUND"
	CodeRegistryFetch   Code = "REG_FETCH"
	CodeRegistryParse   Code = "REG_PARSE"
	CodeCacheWrite      Code = "CACHE_WRITE"
	CodeCreateDir       Code = "FS_CREATE_DIR"
	CodeHookResolve     Code = "HOOK_RESOLVE"
	CodeInstallWrite    Code = "INS_WRITE"
	CodeInstallChecksum Code = "INS_CHECKSUM"
	CodeNoGlobalInstall Code = "RUN_NO_GLOBAL_INSTALLS"
	CodeNoPlatform      Code = "RUN_NO_PLATFORM"
	CodeExec            Code = "RUN_EXEC"
	CodeUnknownTool     Code = "RUN_UNKNOWN_TOOL"
	CodeConfig          Code = "DOC_CONFIG"
	CodeState           Code = "DOC_STATE"
)

// Coder is implemented by errors that carry a [Code].
type Coder interface {
	Code() Code
}

// Error is a coded error with an optional cause.
type Error struct {
	code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Code() Code { return e.code }

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf walks the error chain and returns the first code found, or "".
func CodeOf(err error) Code {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		if c, ok := err.(Coder); ok && c.Code() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
