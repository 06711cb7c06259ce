package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so callers can map it without string matching.
type ErrorKind string

const (
	KindBookNotFound              ErrorKind = "BOOK_NOT_FOUND"
	KindUserNotFound              ErrorKind = "USER_NOT_FOUND"
	KindLoanNotFound              ErrorKind = "LOAN_NOT_FOUND"
	KindNoCopiesAvailable         ErrorKind = "NO_COPIES_AVAILABLE"
	KindUserInactive              ErrorKind = "USER_INACTIVE"
	KindDuplicateActiveLoan       ErrorKind = "DUPLICATE_ACTIVE_LOAN"
	KindAlreadyReturned           ErrorKind = "ALREADY_RETURNED"
	KindAllCopiesAlreadyAvailable ErrorKind = "ALL_COPIES_ALREADY_AVAILABLE"
	KindInvalidQuantity           ErrorKind = "INVALID_QUANTITY"
	KindQuantityBelowLoanedCount  ErrorKind = "QUANTITY_BELOW_LOANED_COUNT"
	KindValidation                ErrorKind = "VALIDATION"
	KindConflict                  ErrorKind = "CONFLICT"
	KindForbidden                 ErrorKind = "FORBIDDEN"
	KindUnauthorized              ErrorKind = "UNAUTHORIZED"
)

// Error is a typed domain failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports kind equality so wrapped or re-worded errors still match the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Expected marks domain errors as business rejections for the logger.
func (e *Error) Expected() bool { return true }

// NewError builds a domain error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrBookNotFound              = &Error{Kind: KindBookNotFound, Message: "book not found"}
	ErrUserNotFound              = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrLoanNotFound              = &Error{Kind: KindLoanNotFound, Message: "loan not found"}
	ErrNoCopiesAvailable         = &Error{Kind: KindNoCopiesAvailable, Message: "no copies of this book are available"}
	ErrUserInactive              = &Error{Kind: KindUserInactive, Message: "user account is not active"}
	ErrDuplicateActiveLoan       = &Error{Kind: KindDuplicateActiveLoan, Message: "user already has an open loan for this book"}
	ErrAlreadyReturned           = &Error{Kind: KindAlreadyReturned, Message: "book was already returned"}
	ErrAllCopiesAlreadyAvailable = &Error{Kind: KindAllCopiesAlreadyAvailable, Message: "all copies are already available"}
	ErrInvalidQuantity           = &Error{Kind: KindInvalidQuantity, Message: "invalid quantity"}
	ErrQuantityBelowLoanedCount  = &Error{Kind: KindQuantityBelowLoanedCount, Message: "cannot reduce quantity below the number of copies on loan"}
	ErrValidation                = &Error{Kind: KindValidation, Message: "validation error"}
	ErrConflict                  = &Error{Kind: KindConflict, Message: "conflict"}
	ErrForbidden                 = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthorized              = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
)

// KindOf returns the kind of the first domain error in err's chain, or "" for
// infrastructure failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsDomainError reports whether err carries a domain kind.
func IsDomainError(err error) bool {
	return KindOf(err) != ""
}
