// Package storeerr defines the store's error taxonomy (spec.md §7): a
// small set of discriminated kinds, each wrapping a sentinel error that
// callers can match with errors.Is, plus enough context (hash, path,
// name) to be actionable without re-deriving it from the call site.
package storeerr

import (
	"errors"
	"fmt"
)

// Kind discriminates the store's error domain.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindIO
	KindCorrupted
	KindInvalidHash
	KindNotFound
	KindInvalidStore
	KindInvalidRef
	KindPathExists
	KindInvalidEntry
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindCorrupted:
		return "CorruptedObject"
	case KindInvalidHash:
		return "InvalidHash"
	case KindNotFound:
		return "ObjectNotFound"
	case KindInvalidStore:
		return "InvalidStore"
	case KindInvalidRef:
		return "InvalidRef"
	case KindPathExists:
		return "PathExists"
	case KindInvalidEntry:
		return "InvalidEntry"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one per Kind, for errors.Is matching.
var (
	ErrIO           = errors.New("io error")
	ErrCorrupted    = errors.New("corrupted object")
	ErrInvalidHash  = errors.New("invalid hash")
	ErrNotFound     = errors.New("object not found")
	ErrInvalidStore = errors.New("invalid store")
	ErrInvalidRef   = errors.New("invalid ref")
	ErrPathExists   = errors.New("path exists")
	ErrInvalidEntry = errors.New("invalid tree entry")
)

func sentinel(k Kind) error {
	switch k {
	case KindIO:
		return ErrIO
	case KindCorrupted:
		return ErrCorrupted
	case KindInvalidHash:
		return ErrInvalidHash
	case KindNotFound:
		return ErrNotFound
	case KindInvalidStore:
		return ErrInvalidStore
	case KindInvalidRef:
		return ErrInvalidRef
	case KindPathExists:
		return ErrPathExists
	case KindInvalidEntry:
		return ErrInvalidEntry
	default:
		return errors.New("unknown error")
	}
}

// Error is the concrete error type returned by every fallible store
// operation. It carries the discriminated Kind plus whatever context
// (Hash/Path/Name) is relevant to that operation.
type Error struct {
	Kind Kind
	Op   string
	Hash string
	Path string
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Hash != "" {
		msg = fmt.Sprintf("%s hash=%s", msg, e.Hash)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s path=%s", msg, e.Path)
	}
	if e.Name != "" {
		msg = fmt.Sprintf("%s name=%s", msg, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped sentinel for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given Kind for operation op, wrapping
// cause (which may be nil). The returned error always matches
// errors.Is against the Kind's sentinel.
func New(kind Kind, op string, cause error) *Error {
	wrapped := sentinel(kind)
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", wrapped, cause)
	}
	return &Error{Kind: kind, Op: op, Err: wrapped}
}

// WithHash returns e with Hash set, for chaining at the construction site.
func (e *Error) WithHash(h string) *Error { e.Hash = h; return e }

// WithPath returns e with Path set.
func (e *Error) WithPath(p string) *Error { e.Path = p; return e }

// WithName returns e with Name set.
func (e *Error) WithName(n string) *Error { e.Name = n; return e }

// Is reports whether target is the Kind's sentinel or matches the
// wrapped cause, so callers can write errors.Is(err, storeerr.ErrNotFound).
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}
