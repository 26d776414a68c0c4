package services

import (
	"context"
	"strings"

	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/metrics"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/validation"
)

// AccountAPI is the account service used by AuthService.
type AccountAPI interface {
	Authenticate(ctx context.Context, email, password string) (accountapi.Token, error)
	CreateAccount(ctx context.Context, email, password string) error
	ResolveIdentity(ctx context.Context, token string) (*accountapi.Identity, error)
	AttachGenres(ctx context.Context, token string, genreIDs []int) error
}

// Session is the per-browser state AuthService reads and writes.
type Session interface {
	Data() session.Data
	Update(ctx context.Context, fn func(*session.Data)) error
	Rotate(ctx context.Context) error
	Clear(ctx context.Context) error
}

// AuthService runs login, logout, registration and identity resolution
// against the account API, keeping the result in the caller's session.
type AuthService struct {
	api AccountAPI
}

func NewAuthService(api AccountAPI) *AuthService {
	return &AuthService{api: api}
}

// LoginResult is what a successful login leaves in the session.
type LoginResult struct {
	AccessToken string
	UserID      int
	Username    string
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login authenticates, moves the browser to a fresh session id and
// populates the session. When the identity lookup
// fails the login still succeeds with the email as username and no user id.
func (s *AuthService) Login(ctx context.Context, sess Session, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if err := validation.Struct(loginInput{Email: email, Password: password}); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return LoginResult{}, err
	}

	token, err := s.api.Authenticate(ctx, email, password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return LoginResult{}, err
	}

	if err := sess.Rotate(ctx); err != nil {
		return LoginResult{}, err
	}
	if err := sess.Update(ctx, func(d *session.Data) {
		d.AccessToken = token.AccessToken
		d.UserID = token.UserID
		d.Username = email
		d.Prenom = ""
		d.Nom = ""
	}); err != nil {
		return LoginResult{}, err
	}

	identity, err := s.api.ResolveIdentity(ctx, token.AccessToken)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("identity lookup after login failed")
	}
	if identity != nil {
		if err := sess.Update(ctx, func(d *session.Data) {
			d.UserID = identity.ID
			if identity.Email != "" {
				d.Username = identity.Email
			}
			d.Prenom = identity.Prenom
			d.Nom = identity.Nom
		}); err != nil {
			return LoginResult{}, err
		}
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	data := sess.Data()
	logging.Ctx(ctx).Info().Str("email", email).Int("user_id", data.UserID).Msg("login succeeded")
	return LoginResult{AccessToken: data.AccessToken, UserID: data.UserID, Username: data.Username}, nil
}

// Logout removes every session key.
func (s *AuthService) Logout(ctx context.Context, sess Session) error {
	return sess.Clear(ctx)
}

// ResolveUserID returns the session's account id, asking the account API at
// most once per session when only a token is known. Any failure is reported
// as ErrUnauthenticated.
func (s *AuthService) ResolveUserID(ctx context.Context, sess Session) (int, error) {
	data := sess.Data()
	if !data.Authenticated() {
		return 0, ErrUnauthenticated
	}
	if data.UserID > 0 {
		return data.UserID, nil
	}

	identity, err := s.api.ResolveIdentity(ctx, data.AccessToken)
	if err != nil {
		metrics.IdentityLookups.WithLabelValues("unavailable").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("identity lookup failed")
		return 0, ErrUnauthenticated
	}
	if identity == nil {
		metrics.IdentityLookups.WithLabelValues("unresolved").Inc()
		return 0, ErrUnauthenticated
	}

	if err := sess.Update(ctx, func(d *session.Data) {
		d.UserID = identity.ID
	}); err != nil {
		return 0, err
	}
	metrics.IdentityLookups.WithLabelValues("resolved").Inc()
	return identity.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
