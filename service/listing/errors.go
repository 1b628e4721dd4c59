package listing

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"syscall"

	"dirserve/service/fs"
)

// Error kinds returned by the resolver, the enumerator and the translation
// loader. Callers test them with errors.Is.
var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid")
)

// Kind names returned by ErrorKind, used as metric labels.
const (
	KindForbidden = "forbidden"
	KindNotFound  = "not_found"
	KindInvalid   = "invalid"
	KindInternal  = "internal"
)

// ErrorKind classifies err as returned by the resolver, the enumerator or
// a backend. Anything unrecognized is KindInternal.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrForbidden), errors.Is(err, iofs.ErrPermission):
		return KindForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, iofs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	}
	return KindInternal
}

// kindOf maps a filesystem error onto an error kind, or returns it unchanged.
func kindOf(err error, rel string) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist), errors.Is(err, syscall.ENOTDIR), errors.Is(err, fs.ErrTooManyLinks):
		return fmt.Errorf("%w: %s", ErrNotFound, display(rel))
	case errors.Is(err, iofs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrForbidden, display(rel))
	}
	return fmt.Errorf("%s: %w", display(rel), err)
}

func display(rel string) string {
	if rel == "" {
		return "/"
	}
	return rel
}
