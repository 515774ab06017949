package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalid            ErrorCode = "INVALID"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    ErrorCode = "ACCOUNT_INACTIVE"
	ErrCodeInternal           ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors. Messages are client-facing.
var (
	ErrIdentityNotFound   = NewError(ErrCodeNotFound, "user not found")
	ErrCredentialNotFound = NewError(ErrCodeNotFound, "credential not found")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "Invalid request body")

	ErrNotAuthenticated      = NewError(ErrCodeUnauthenticated, "Not authenticated")
	ErrInvalidAuthentication = NewError(ErrCodeUnauthenticated, "Could not validate credentials")
	ErrInvalidCredentials    = NewError(ErrCodeInvalidCredentials, "Invalid username or password")
	ErrRefreshTokenRequired  = NewError(ErrCodeUnauthenticated, "Refresh token required")
	ErrInvalidRefreshToken   = NewError(ErrCodeUnauthenticated, "Invalid refresh token")

	ErrAccountInactive   = NewError(ErrCodeAccountInactive, "User account is inactive")
	ErrAdminRequired     = NewError(ErrCodeForbidden, "Admin access required")
	ErrDealerRequired    = NewError(ErrCodeForbidden, "Dealer account required")
	ErrDealerNotApproved = NewError(ErrCodeForbidden, "Dealer account not approved")
	ErrRoleRequired      = NewError(ErrCodeForbidden, "Insufficient role")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
