package rina

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/rinacore/rinacore/internal/errs"
)

// Error is a structured core error: the failing operation, the object
// it was against, a Kind drawn from the control-interface error
// taxonomy (spec §7), and whatever error it wraps.
type Error struct {
	Op     string // operation that failed, e.g. "ipcp-create", "fa-req"
	IpcpID uint16 // 0 if not applicable
	PortID uint32 // 0 if not applicable
	Code   Kind
	Errno  unix.Errno // 0 if not applicable
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.IpcpID != 0 {
		parts = append(parts, fmt.Sprintf("ipcp=%d", e.IpcpID))
	}
	if e.PortID != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", e.PortID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("rina: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("rina: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is lets errors.Is match against both a Kind-carrying *Error and the
// plain Kind sentinel directly.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if k, ok := target.(Kind); ok {
		return e.Code == k
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// Kind is the control-interface error taxonomy (spec §7): every
// request handler and plug-in operation fails with one of these, never
// a raw errno or driver-specific code.
type Kind string

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string { return string(k) }

const (
	KindInvalidArg  Kind = "invalid argument"
	KindNotFound    Kind = "not found"
	KindBusy        Kind = "busy"
	KindNoSpace     Kind = "no space"
	KindNoMem       Kind = "out of memory"
	KindNotImpl     Kind = "not implemented"
	KindPermission  Kind = "permission denied"
	KindInterrupted Kind = "interrupted"
	KindBadFd       Kind = "bad descriptor"
)

// NewError constructs a bare structured error.
func NewError(op string, code Kind, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno constructs a structured error carrying the kernel
// errno that triggered it.
func NewErrorWithErrno(op string, code Kind, errno unix.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// NewIpcpError constructs a structured error against a specific IPCP.
func NewIpcpError(op string, ipcpID uint16, code Kind, msg string) *Error {
	return &Error{Op: op, IpcpID: ipcpID, Code: code, Msg: msg}
}

// NewFlowError constructs a structured error against a specific flow,
// identified by its local port-id.
func NewFlowError(op string, ipcpID uint16, portID uint32, code Kind, msg string) *Error {
	return &Error{Op: op, IpcpID: ipcpID, PortID: portID, Code: code, Msg: msg}
}

// WrapError wraps an arbitrary error with operation context, mapping
// internal/errs sentinels (and raw errno values) onto a Kind.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if re, ok := inner.(*Error); ok {
		return &Error{
			Op: op, IpcpID: re.IpcpID, PortID: re.PortID,
			Code: re.Code, Errno: re.Errno, Msg: re.Msg, Inner: re.Inner,
		}
	}

	if errno, ok := inner.(unix.Errno); ok {
		code := mapErrnoToKind(errno)
		return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error(), Inner: inner}
	}

	if k, ok := errs.KindOf(inner); ok {
		return &Error{Op: op, Code: mapInternalKind(k), Msg: inner.Error(), Inner: inner}
	}

	return &Error{Op: op, Code: KindNotImpl, Msg: inner.Error(), Inner: inner}
}

// mapInternalKind translates internal/errs.Kind (used by every
// internal package) onto the public Kind taxonomy.
func mapInternalKind(k errs.Kind) Kind {
	switch k {
	case errs.KindInvalidArg:
		return KindInvalidArg
	case errs.KindNotFound:
		return KindNotFound
	case errs.KindBusy:
		return KindBusy
	case errs.KindNoSpace:
		return KindNoSpace
	case errs.KindNoMem:
		return KindNoMem
	case errs.KindNotImpl:
		return KindNotImpl
	case errs.KindPermission:
		return KindPermission
	case errs.KindInterrupted:
		return KindInterrupted
	case errs.KindBadFd:
		return KindBadFd
	default:
		return KindNotImpl
	}
}

func mapErrnoToKind(errno unix.Errno) Kind {
	switch errno {
	case unix.ENOENT:
		return KindNotFound
	case unix.EBUSY:
		return KindBusy
	case unix.EINVAL, unix.E2BIG:
		return KindInvalidArg
	case unix.ENOSYS, unix.EOPNOTSUPP:
		return KindNotImpl
	case unix.EPERM, unix.EACCES:
		return KindPermission
	case unix.ENOMEM:
		return KindNoMem
	case unix.ENOSPC:
		return KindNoSpace
	case unix.EINTR:
		return KindInterrupted
	case unix.EBADF:
		return KindBadFd
	default:
		return KindNotImpl
	}
}

// IsCode reports whether err's Kind matches code.
func IsCode(err error, code Kind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsErrno reports whether err carries errno.
func IsErrno(err error, errno unix.Errno) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Errno == errno
	}
	return false
}
