// Package errs holds the sentinel error kinds shared by every internal
// package. It exists so internal/objects, internal/dm, internal/ctrldev
// and internal/dispatch can all raise and compare the same error kinds
// (spec §7) without importing the root package's richer *rina.Error,
// which would create an import cycle (the root package imports them).
package errs

import "errors"

// Kind is a high-level error category (spec §7: "errors are reported
// through a small fixed vocabulary of kinds, not raw errno values").
type Kind string

const (
	KindInvalidArg  Kind = "invalid_arg"
	KindNotFound    Kind = "not_found"
	KindBusy        Kind = "busy"
	KindNoSpace     Kind = "no_space"
	KindNoMem       Kind = "no_mem"
	KindNotImpl     Kind = "not_impl"
	KindPermission  Kind = "permission"
	KindInterrupted Kind = "interrupted"
	KindBadFd       Kind = "bad_fd"
)

// Sentinels internal packages raise directly; the root package's
// WrapError (see the top-level errors.go) recognizes each one through
// KindOf and attaches its Kind.
var (
	InvalidArg  = errors.New("rina: invalid argument")
	NotFound    = errors.New("rina: not found")
	Busy        = errors.New("rina: busy")
	NoSpace     = errors.New("rina: no space")
	NoMem       = errors.New("rina: out of memory")
	NotImpl     = errors.New("rina: not implemented")
	Permission  = errors.New("rina: permission denied")
	Interrupted = errors.New("rina: interrupted")
	BadFd       = errors.New("rina: bad descriptor")
)

// KindOf maps a sentinel to its Kind, used by the root package when it
// wraps an internal error into a structured *rina.Error.
func KindOf(err error) (Kind, bool) {
	switch err {
	case InvalidArg:
		return KindInvalidArg, true
	case NotFound:
		return KindNotFound, true
	case Busy:
		return KindBusy, true
	case NoSpace:
		return KindNoSpace, true
	case NoMem:
		return KindNoMem, true
	case NotImpl:
		return KindNotImpl, true
	case Permission:
		return KindPermission, true
	case Interrupted:
		return KindInterrupted, true
	case BadFd:
		return KindBadFd, true
	default:
		return "", false
	}
}
