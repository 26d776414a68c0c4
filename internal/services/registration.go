package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/metrics"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/validation"
)

// MinGenres is the smallest genre selection accepted at signup.
const MinGenres = 3

// RegistrationState is a stage of the signup sequence. Stages only move
// forward and a failure never undoes an earlier stage.
type RegistrationState string

const (
	StateAnonymous      RegistrationState = "anonymous"
	StateAccountCreated RegistrationState = "account_created"
	StateLoggedIn       RegistrationState = "logged_in"
	StateGenresAttached RegistrationState = "genres_attached"

	// StepAwaitingGenres marks a session holding validated credentials
	// while the user picks genres.
	StepAwaitingGenres = "genres"
)

var (
	ErrAccountCreationFailed    = errors.New("user account creation failed")
	ErrLoginAfterCreationFailed = errors.New("login failed after account creation")
	ErrGenrePreferencesFailed   = errors.New("failed to save genre preferences")
)

// RegistrationError reports the transition that failed. Reached is the last
// stage completed before the failure.
type RegistrationError struct {
	Reached RegistrationState
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration stopped at %s: %v", e.Reached, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the failed transition.
func (e *RegistrationError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *RegistrationError) sentinel() error {
	switch e.Reached {
	case StateAnonymous:
		return ErrAccountCreationFailed
	case StateAccountCreated:
		return ErrLoginAfterCreationFailed
	default:
		return ErrGenrePreferencesFailed
	}
}

// Message is the user-facing description of the failure.
func (e *RegistrationError) Message() string {
	switch e.Reached {
	case StateAnonymous:
		return "User account creation failed."
	case StateAccountCreated:
		return "Login failed after account creation."
	default:
		return "Failed to save genre preferences."
	}
}

// RegisterInput is a signup request. Email and Password may be left empty
// when the session already holds credentials waiting for the genre step.
type RegisterInput struct {
	Email    string
	Password string
	GenreIDs []int
}

type credentials struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,pwbytes,password"`
}

// Register creates the account, logs in and attaches genre preferences, in
// that order. Guard failures make no account API call.
func (s *AuthService) Register(ctx context.Context, sess Session, in RegisterInput) error {
	email, password := normalizeEmail(in.Email), in.Password
	if email == "" && password == "" {
		if data := sess.Data(); data.RegistrationStep == StepAwaitingGenres {
			email, password = data.TempEmail, data.TempPassword
		}
	}

	if email == "" || password == "" {
		metrics.RegistrationOutcomes.WithLabelValues("validation", "failure").Inc()
		return ErrCredentialsRequired
	}
	if err := validation.Struct(credentials{Email: email, Password: password}); err != nil {
		metrics.RegistrationOutcomes.WithLabelValues("validation", "failure").Inc()
		return err
	}
	genres, err := distinctGenres(in.GenreIDs)
	if err != nil {
		metrics.RegistrationOutcomes.WithLabelValues("validation", "failure").Inc()
		return err
	}
	if len(genres) < MinGenres {
		metrics.RegistrationOutcomes.WithLabelValues("validation", "failure").Inc()
		if err := sess.Update(ctx, func(d *session.Data) {
			d.TempEmail = email
			d.TempPassword = password
			d.RegistrationStep = StepAwaitingGenres
		}); err != nil {
			return err
		}
		return ErrNotEnoughGenres
	}

	log := logging.Ctx(ctx).With().Str("email", email).Logger()
	fail := func(reached RegistrationState, err error) error {
		metrics.RegistrationOutcomes.WithLabelValues(string(reached), "failure").Inc()
		log.Warn().Err(err).Str("reached", string(reached)).Msg("registration failed")
		// Once the account exists the saved credentials are never replayed.
		if reached != StateAnonymous {
			if werr := sess.Update(ctx, func(d *session.Data) {
				d.TempEmail = ""
				d.TempPassword = ""
			}); werr != nil {
				log.Error().Err(werr).Msg("dropping signup credentials failed")
			}
		}
		return &RegistrationError{Reached: reached, Err: err}
	}

	if err := s.api.CreateAccount(ctx, email, password); err != nil {
		return fail(StateAnonymous, err)
	}
	if err := sess.Update(ctx, func(d *session.Data) {
		d.RegistrationStep = string(StateAccountCreated)
	}); err != nil {
		return err
	}

	token, err := s.api.Authenticate(ctx, email, password)
	if err != nil {
		return fail(StateAccountCreated, err)
	}
	if err := sess.Rotate(ctx); err != nil {
		return err
	}
	if err := sess.Update(ctx, func(d *session.Data) {
		d.AccessToken = token.AccessToken
		d.UserID = token.UserID
		d.Username = email
		d.RegistrationStep = string(StateLoggedIn)
	}); err != nil {
		return err
	}

	if err := s.api.AttachGenres(ctx, token.AccessToken, genres); err != nil {
		return fail(StateLoggedIn, err)
	}

	userID := token.UserID
	var identity *accountapi.Identity
	if userID == 0 {
		identity, err = s.api.ResolveIdentity(ctx, token.AccessToken)
		if err != nil {
			log.Warn().Err(err).Msg("identity lookup after registration failed")
		}
		if identity != nil {
			userID = identity.ID
		}
	}

	if err := sess.Update(ctx, func(d *session.Data) {
		d.UserID = userID
		if identity != nil {
			d.Prenom = identity.Prenom
			d.Nom = identity.Nom
		}
		d.ClearRegistration()
	}); err != nil {
		return err
	}

	metrics.RegistrationOutcomes.WithLabelValues(string(StateGenresAttached), "success").Inc()
	log.Info().Int("user_id", userID).Ints("genres", genres).Msg("registration completed")
	return nil
}

// distinctGenres drops duplicates, keeping first-seen order.
func distinctGenres(ids []int) ([]int, error) {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, ErrInvalidGenre
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
