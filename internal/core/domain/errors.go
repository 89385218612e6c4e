package domain

import (
	"errors"
	"fmt"
)

// AuthError is a business-rule violation the user can fix and retry: bad
// credentials, a taken email, an unknown role.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// DecodeError reports a token that cannot be used: malformed, missing claims
// or expired. It is never shown to the user.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode token: %s: %v", e.Reason, e.Err)
	}
	return "decode token: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	ErrInvalidCredentials = &AuthError{Msg: "invalid credentials"}
	ErrEmailExists        = &AuthError{Msg: "email exists"}
	ErrTermsNotAccepted   = &AuthError{Msg: "terms not accepted"}
	ErrSelfDelete         = &AuthError{Msg: "cannot delete the current user"}
	ErrInvalidRole        = &AuthError{Msg: "invalid role"}

	ErrUserNotFound = &NotFoundError{Resource: "user"}

	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
)

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
