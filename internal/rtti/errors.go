package rtti

import (
	"errors"
	"fmt"
)

// CorruptKind enumerates the ways upstream metadata can be malformed.
type CorruptKind uint8

const (
	// ErrVarOutOfRange: a placeholder names an argument the context lacks.
	ErrVarOutOfRange CorruptKind = iota + 1
	// ErrEquivChainTooLong: alias collapsing did not terminate in time.
	ErrEquivChainTooLong
	// ErrArityMismatch: argument count disagrees with the constructor.
	ErrArityMismatch
	// ErrUnknownCtor: a handle does not name a registered constructor.
	ErrUnknownCtor
	// ErrReleased: a descriptor was used after its arena was released.
	ErrReleased
	// ErrNoRepresentation: a definite representation was required but the
	// tables only allow UNKNOWN.
	ErrNoRepresentation
	// ErrBadTemplate: a template slot holds something that is not a descriptor.
	ErrBadTemplate
)

func (k CorruptKind) String() string {
	switch k {
	case ErrVarOutOfRange:
		return "type variable out of range"
	case ErrEquivChainTooLong:
		return "equivalence chain too long"
	case ErrArityMismatch:
		return "arity mismatch"
	case ErrUnknownCtor:
		return "unknown type constructor"
	case ErrReleased:
		return "descriptor used after release"
	case ErrNoRepresentation:
		return "no representation"
	case ErrBadTemplate:
		return "malformed template"
	default:
		return fmt.Sprintf("CorruptKind(%d)", k)
	}
}

// CorruptError reports malformed type metadata. It is raised with panic:
// continuing past corrupted tables cannot be made safe.
type CorruptError struct {
	Kind   CorruptKind
	Module string
	Name   string
	Detail string
}

func (e *CorruptError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "corrupt type metadata: " + e.Kind.String()
	if e.Name != "" {
		msg += fmt.Sprintf(" in %s.%s", e.Module, e.Name)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func corrupt(kind CorruptKind, c *Constructor, format string, args ...any) *CorruptError {
	err := &CorruptError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
	if c != nil {
		err.Module = c.Module
		err.Name = c.Name
	}
	return err
}

// Recover turns a CorruptError panic into an error. Other panics propagate.
//
//	defer rtti.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*CorruptError); ok {
		if errp != nil {
			*errp = ce
		}
		return
	}
	panic(r)
}

var (
	// ErrFrozen is returned when a frozen registry is modified.
	ErrFrozen = errors.New("registry is frozen")
	// ErrDuplicate is returned when a constructor is declared twice.
	ErrDuplicate = errors.New("duplicate type constructor")
	// ErrUndefined is returned when a declared constructor has no tables.
	ErrUndefined = errors.New("type constructor has no tables")
	// ErrTagBits is returned for an unsupported primary tag width.
	ErrTagBits = errors.New("unsupported tag bits")
	// ErrLayoutSize is returned when a layout table has the wrong length.
	ErrLayoutSize = errors.New("layout table size mismatch")
	// ErrAlreadyInstalled is returned by Install after the first success.
	ErrAlreadyInstalled = errors.New("registry already installed")
	// ErrNotFrozen is returned when an unfrozen registry is installed.
	ErrNotFrozen = errors.New("registry is not frozen")
)
