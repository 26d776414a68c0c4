package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/moviemania/frontend/internal/store"
	"github.com/moviemania/frontend/internal/validation"
	"github.com/moviemania/frontend/types"
	"golang.org/x/crypto/bcrypt"
)

const profileListLimit = 10

// UserRepository defines persistence operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	UpdateProfile(ctx context.Context, id int, update types.ProfileUpdate) error
	GetPasswordHash(ctx context.Context, id int) (string, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

// UserMovieLister lists the movies a user saved or rated.
type UserMovieLister interface {
	ListSaved(ctx context.Context, userID, limit int) ([]types.MovieSummary, error)
	ListRated(ctx context.Context, userID, limit int) ([]types.MovieSummary, error)
}

// RatingCounter counts a user's ratings and saved movies.
type RatingCounter interface {
	Counts(ctx context.Context, userID int) (rated, saved int, err error)
}

// ProfileService encapsulates profile use-cases.
type ProfileService struct {
	users      UserRepository
	movies     UserMovieLister
	counts     RatingCounter
	bcryptCost int
}

func NewProfileService(users UserRepository, movies UserMovieLister, counts RatingCounter) *ProfileService {
	return &ProfileService{
		users:      users,
		movies:     movies,
		counts:     counts,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID int) (types.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Summary collects what the profile page shows. A missing profile row yields
// an empty user rather than an error.
func (s *ProfileService) Summary(ctx context.Context, userID int) (types.ProfileSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.ProfileSummary{}, err
	}
	saved, err := s.movies.ListSaved(ctx, userID, profileListLimit)
	if err != nil {
		return types.ProfileSummary{}, err
	}
	rated, err := s.movies.ListRated(ctx, userID, profileListLimit)
	if err != nil {
		return types.ProfileSummary{}, err
	}
	totalRated, totalSaved, err := s.counts.Counts(ctx, userID)
	if err != nil {
		return types.ProfileSummary{}, err
	}
	return types.ProfileSummary{
		User:         user,
		SavedMovies:  saved,
		RatedMovies:  rated,
		TotalRatings: totalRated,
		TotalSaved:   totalSaved,
	}, nil
}

// ProfileInput is an update-profile request.
type ProfileInput struct {
	Nom      string `json:"nom" validate:"max=100"`
	Prenom   string `json:"prenom" validate:"max=100"`
	Birthday string `json:"birthday" validate:"date,age"`
	Sexe     string `json:"sexe" validate:"oneof='' M F O"`
}

// UpdateProfile validates and stores the editable profile fields and returns
// what was stored.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int, in ProfileInput) (types.ProfileUpdate, error) {
	if err := validation.Struct(in); err != nil {
		return types.ProfileUpdate{}, err
	}

	update := types.ProfileUpdate{Nom: in.Nom, Prenom: in.Prenom, Sexe: in.Sexe}
	if in.Birthday != "" {
		birthday, err := types.ParseDate(in.Birthday)
		if err != nil {
			return types.ProfileUpdate{}, err
		}
		update.Birthday = &birthday
	}

	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		return types.ProfileUpdate{}, fmt.Errorf("update profile: %w", err)
	}
	return update, nil
}

// PasswordChange is a change-password request. ConfirmPassword is checked
// only when present.
type PasswordChange struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePassword verifies the current password against the stored bcrypt
// hash and stores a hash of the new one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID int, in PasswordChange) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return ErrPasswordsRequired
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.NewPassword {
		return &validation.Error{Field: "confirm_password", Tag: "eqfield", Message: "Passwords do not match."}
	}
	if err := validation.Password("new_password", in.NewPassword); err != nil {
		return err
	}

	stored, err := s.users.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(in.CurrentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hashed))
}
