package types

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by a Store carries exactly one of these
// as its Kind and can be matched with errors.Is.
var (
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrPersistence         = errors.New("persistence error")
	ErrInvalidBackupFormat = errors.New("invalid backup format")
	ErrRestoreFailed       = errors.New("restore failed")
	ErrNotFound            = errors.New("record not found")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrUnknownCategory     = errors.New("unknown category")
)

// Error is the typed error returned by store operations. Kind is one of the
// sentinel kinds above; Err is the underlying cause, if any.
type Error struct {
	Kind     error
	Op       string
	Category Category
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Category != "" {
			b.WriteString(" ")
			b.WriteString(string(e.Category))
		}
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if e.Kind != nil {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewError builds an *Error. A nil cause is allowed.
func NewError(kind error, op string, category Category, cause error) *Error {
	return &Error{Kind: kind, Op: op, Category: category, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
