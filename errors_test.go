package rina

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/rinacore/rinacore/internal/errs"
)

func TestStructuredError(t *testing.T) {
	err := NewError("ipcp-create", KindInvalidArg, "invalid dif type")

	if err.Op != "ipcp-create" {
		t.Errorf("Expected Op=ipcp-create, got %s", err.Op)
	}
	if err.Code != KindInvalidArg {
		t.Errorf("Expected Code=KindInvalidArg, got %s", err.Code)
	}

	expected := "rina: invalid dif type (op=ipcp-create)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestErrorWithErrno(t *testing.T) {
	err := NewErrorWithErrno("ipcp-create", KindPermission, unix.EPERM)

	if err.Errno != unix.EPERM {
		t.Errorf("Expected Errno=EPERM, got %v", err.Errno)
	}
	if err.Code != KindPermission {
		t.Errorf("Expected Code=KindPermission, got %s", err.Code)
	}
}

func TestIpcpError(t *testing.T) {
	err := NewIpcpError("ipcp-config", 7, KindBusy, "config key locked")

	if err.IpcpID != 7 {
		t.Errorf("Expected IpcpID=7, got %d", err.IpcpID)
	}

	expected := "rina: config key locked (op=ipcp-config)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestFlowError(t *testing.T) {
	err := NewFlowError("flow-dealloc", 3, 42, KindNotFound, "no such flow")

	if err.IpcpID != 3 {
		t.Errorf("Expected IpcpID=3, got %d", err.IpcpID)
	}
	if err.PortID != 42 {
		t.Errorf("Expected PortID=42, got %d", err.PortID)
	}
}

func TestWrapErrorFromInternalSentinel(t *testing.T) {
	err := WrapError("flow-fetch", errs.NotFound)

	if err.Code != KindNotFound {
		t.Errorf("Expected Code=KindNotFound, got %s", err.Code)
	}
	if !errors.Is(err, errs.NotFound) {
		t.Error("Expected wrapped error to satisfy errors.Is for errs.NotFound")
	}
}

func TestWrapErrorFromErrno(t *testing.T) {
	err := WrapError("ctrldev-write", unix.ENOENT)

	if err.Code != KindNotFound {
		t.Errorf("Expected Code=KindNotFound, got %s", err.Code)
	}
	if err.Errno != unix.ENOENT {
		t.Errorf("Expected Errno=ENOENT, got %v", err.Errno)
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := &Error{Code: KindBusy}
	if !errors.Is(err, KindBusy) {
		t.Error("Expected structured error to satisfy errors.Is against its own Kind")
	}
	if errors.Is(err, KindNotFound) {
		t.Error("Expected structured error not to match a different Kind")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("test", KindInterrupted, "operation interrupted")

	if !IsCode(err, KindInterrupted) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, KindBadFd) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, KindInterrupted) {
		t.Error("IsCode should return false for nil error")
	}
}

func TestIsErrno(t *testing.T) {
	err := NewErrorWithErrno("test", KindNoMem, unix.ENOMEM)

	if !IsErrno(err, unix.ENOMEM) {
		t.Error("IsErrno should return true for matching errno")
	}
	if IsErrno(err, unix.EPERM) {
		t.Error("IsErrno should return false for non-matching errno")
	}
	if IsErrno(nil, unix.ENOMEM) {
		t.Error("IsErrno should return false for nil error")
	}
}

func TestErrnoMapping(t *testing.T) {
	testCases := []struct {
		errno    unix.Errno
		expected Kind
	}{
		{unix.ENOENT, KindNotFound},
		{unix.EBUSY, KindBusy},
		{unix.EINVAL, KindInvalidArg},
		{unix.EPERM, KindPermission},
		{unix.ENOMEM, KindNoMem},
		{unix.ENOSPC, KindNoSpace},
		{unix.ENOSYS, KindNotImpl},
		{unix.EINTR, KindInterrupted},
	}

	for _, tc := range testCases {
		code := mapErrnoToKind(tc.errno)
		if code != tc.expected {
			t.Errorf("mapErrnoToKind(%v) = %s, want %s", tc.errno, code, tc.expected)
		}
	}
}
