package magikaerr

import (
	"errors"
	"io"
	"io/fs"

	"golang.org/x/sys/unix"
)

// IOCondition is a coarse category for I/O failures
type IOCondition int

const (
	IOOther IOCondition = iota
	IONotFound
	IOPermissionDenied
	IOIsDirectory
	IOUnexpectedEOF
	IOInterrupted
	IOTooManyOpenFiles
)

var ioConditionMessages = map[IOCondition]string{
	IOOther:            "other",
	IONotFound:         "not found",
	IOPermissionDenied: "permission denied",
	IOIsDirectory:      "is a directory",
	IOUnexpectedEOF:    "unexpected end of file",
	IOInterrupted:      "interrupted",
	IOTooManyOpenFiles: "too many open files",
}

// String returns the human-readable condition
func (c IOCondition) String() string {
	if msg, ok := ioConditionMessages[c]; ok {
		return msg
	}
	return "other"
}

func isErrno(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno)
}

// ErrnoToCondition converts a Linux errno to an I/O condition
func ErrnoToCondition(errno unix.Errno) IOCondition {
	switch errno {
	case unix.ENOENT, unix.ENOTDIR:
		return IONotFound
	case unix.EACCES, unix.EPERM:
		return IOPermissionDenied
	case unix.EISDIR:
		return IOIsDirectory
	case unix.EINTR, unix.EAGAIN:
		return IOInterrupted
	case unix.EMFILE, unix.ENFILE:
		return IOTooManyOpenFiles
	default:
		return IOOther
	}
}

// ConditionOf categorises an arbitrary I/O failure
func ConditionOf(err error) IOCondition {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return ErrnoToCondition(errno)
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return IONotFound
	case errors.Is(err, fs.ErrPermission):
		return IOPermissionDenied
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return IOUnexpectedEOF
	}
	return IOOther
}

// IOCondition returns the I/O category of an IO-kind error, or IOOther
func (e *Error) IOCondition() IOCondition {
	if e.Kind != KindIO || e.Err == nil {
		return IOOther
	}
	return ConditionOf(e.Err)
}

// Temporary reports whether retrying the failed operation may succeed
func (e *Error) Temporary() bool {
	switch e.IOCondition() {
	case IOInterrupted, IOTooManyOpenFiles:
		return true
	}
	return false
}
