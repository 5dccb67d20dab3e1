package service

import (
	"errors"
	"fmt"
)

// Kind classifies failures so transports can pick a status without knowing every error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	default:
		return "internal"
	}
}

// Error is a classified service failure. Two Errors match under errors.Is when their
// codes are equal, so wrapped or detailed copies still match the sentinels below.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// withMessage returns a copy of e with a more specific user-facing message.
func (e *Error) withMessage(format string, args ...interface{}) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

var (
	ErrMissingURL        = &Error{Kind: KindValidation, Code: "missing_url", Message: "URL is required"}
	ErrFlaggedMalicious  = &Error{Kind: KindValidation, Code: "flagged_malicious", Message: "URL flagged as potentially malicious"}
	ErrInvalidAlias      = &Error{Kind: KindValidation, Code: "invalid_alias_format", Message: "custom alias must be alphanumeric"}
	ErrAliasTaken        = &Error{Kind: KindConflict, Code: "alias_taken", Message: "this alias is already taken, try another one"}
	ErrCodeRequired      = &Error{Kind: KindValidation, Code: "code_required", Message: "code required"}
	ErrTooManyItems      = &Error{Kind: KindValidation, Code: "too_many_items", Message: "too many items in one request"}
	ErrNoItems           = &Error{Kind: KindValidation, Code: "no_items", Message: "at least one item is required"}
	ErrInvalidExpiry     = &Error{Kind: KindValidation, Code: "invalid_expiry", Message: "expiration time cannot be in the past"}
	ErrLinkNotFound      = &Error{Kind: KindNotFound, Code: "link_not_found", Message: "link not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Code: "forbidden", Message: "not authorized"}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Code: "unauthenticated", Message: "authentication required"}
	ErrInvalidCredential = &Error{Kind: KindUnauthenticated, Code: "invalid_credentials", Message: "invalid email or password"}
	ErrEmailTaken        = &Error{Kind: KindConflict, Code: "email_taken", Message: "user with this email already exists"}
	ErrInvalidDomain     = &Error{Kind: KindValidation, Code: "invalid_domain", Message: "invalid domain format"}
	ErrDomainTaken       = &Error{Kind: KindConflict, Code: "domain_taken", Message: "domain already registered"}
	ErrDomainNotFound    = &Error{Kind: KindNotFound, Code: "domain_not_found", Message: "domain not found"}
	ErrDomainUnverified  = &Error{Kind: KindValidation, Code: "domain_unverified", Message: "TXT record not found, please ensure you have added the correct DNS record"}
	ErrCodesExhausted    = &Error{Kind: KindInternal, Code: "code_space_exhausted", Message: "failed to allocate a unique short code"}
)

// internal wraps an unexpected failure (store down, hashing failed) as KindInternal.
func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Code: "internal", Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
