package services

import "errors"

var (
	// ErrUnauthenticated means the session has no token or its account could
	// not be identified.
	ErrUnauthenticated = errors.New("not authenticated")

	ErrCredentialsRequired = errors.New("email and password required")
	ErrNotEnoughGenres     = errors.New("at least 3 genres required")
	ErrInvalidGenre        = errors.New("invalid genre selection")

	ErrPasswordsRequired = errors.New("current and new passwords required")
	ErrIncorrectPassword = errors.New("current password is incorrect")

	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrInvalidMovieID   = errors.New("invalid movie id")
)
