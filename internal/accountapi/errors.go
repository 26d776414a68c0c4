package accountapi

import (
	"errors"
	"fmt"
)

// Kind classifies account API failures.
type Kind string

const (
	// KindInvalidCredentials means the token endpoint refused the credentials.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindAccountCreationFailed means the account endpoint refused the signup.
	KindAccountCreationFailed Kind = "account_creation_failed"
	// KindGenreAttachFailed means genre preferences were refused.
	KindGenreAttachFailed Kind = "genre_attach_failed"
	// KindUnreachable covers transport failures and an open circuit breaker.
	KindUnreachable Kind = "unreachable"
)

// AuthError is returned by every Client operation that fails.
type AuthError struct {
	Op     string
	Kind   Kind
	Status int
	// Detail is the "detail" message of the response body, verbatim.
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("accountapi %s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("accountapi %s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Detail)
	default:
		return fmt.Sprintf("accountapi %s: %s (status %d)", e.Op, e.Kind, e.Status)
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *AuthError of kind k.
func IsKind(err error, k Kind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == k
}

// DetailOf returns the upstream detail message carried by err, if any.
func DetailOf(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Detail
	}
	return ""
}
