package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/accountapi/accountapitest"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignup() RegisterInput {
	return RegisterInput{Email: "new@example.com", Password: "s3cretpass", GenreIDs: []int{28, 12, 16}}
}

func TestRegisterCompletes(t *testing.T) {
	client, api := newAccountAPI(t)
	svc := NewAuthService(client)
	sess := &memSession{}

	require.NoError(t, svc.Register(context.Background(), sess, validSignup()))

	acc, ok := api.Account("new@example.com")
	require.True(t, ok)
	assert.Equal(t, []int{28, 12, 16}, acc.Genres)

	data := sess.Data()
	assert.True(t, data.Authenticated())
	assert.Equal(t, acc.ID, data.UserID)
	assert.Equal(t, "new@example.com", data.Username)
	assert.Empty(t, data.TempEmail)
	assert.Empty(t, data.TempPassword)
	assert.Empty(t, data.RegistrationStep)

	assert.Equal(t, 1, api.Calls(accountapitest.EndpointCreate))
	assert.Equal(t, 1, api.Calls(accountapitest.EndpointToken))
	assert.Equal(t, 1, api.Calls(accountapitest.EndpointGenres))
	assert.Equal(t, 1, api.Calls(accountapitest.EndpointMe))
}

func TestRegisterUsesTokenUserIDWithoutLookup(t *testing.T) {
	client, api := newAccountAPI(t)
	api.IncludeUserIDInToken = true
	svc := NewAuthService(client)
	sess := &memSession{}

	require.NoError(t, svc.Register(context.Background(), sess, validSignup()))
	assert.NotZero(t, sess.Data().UserID)
	assert.Zero(t, api.Calls(accountapitest.EndpointMe))
}

func TestRegisterWithTwoGenresMakesNoCalls(t *testing.T) {
	client, api := newAccountAPI(t)
	svc := NewAuthService(client)
	sess := &memSession{}

	in := validSignup()
	in.GenreIDs = []int{28, 12}
	err := svc.Register(context.Background(), sess, in)

	require.ErrorIs(t, err, ErrNotEnoughGenres)
	assert.Zero(t, api.Calls(accountapitest.EndpointCreate))
	assert.Zero(t, api.Calls(accountapitest.EndpointToken))
	assert.False(t, sess.Data().Authenticated())
	assert.Equal(t, StepAwaitingGenres, sess.Data().RegistrationStep)
	assert.Equal(t, "new@example.com", sess.Data().TempEmail)
}

func TestRegisterDuplicateGenresDoNotCount(t *testing.T) {
	client, api := newAccountAPI(t)
	svc := NewAuthService(client)

	in := validSignup()
	in.GenreIDs = []int{28, 28, 12}
	err := svc.Register(context.Background(), &memSession{}, in)
	require.ErrorIs(t, err, ErrNotEnoughGenres)
	assert.Zero(t, api.Calls(accountapitest.EndpointCreate))
}

func TestRegisterResumesGenreStep(t *testing.T) {
	client, api := newAccountAPI(t)
	svc := NewAuthService(client)
	sess := &memSession{}

	in := validSignup()
	in.GenreIDs = nil
	require.ErrorIs(t, svc.Register(context.Background(), sess, in), ErrNotEnoughGenres)

	require.NoError(t, svc.Register(context.Background(), sess, RegisterInput{GenreIDs: []int{1, 2, 3}}))
	_, ok := api.Account("new@example.com")
	assert.True(t, ok)
	assert.Empty(t, sess.Data().TempPassword)
	assert.True(t, sess.Data().Authenticated())
}

func TestRegisterGuards(t *testing.T) {
	client, api := newAccountAPI(t)
	svc := NewAuthService(client)

	err := svc.Register(context.Background(), &memSession{}, RegisterInput{Email: "a@b.co", GenreIDs: []int{1, 2, 3}})
	assert.ErrorIs(t, err, ErrCredentialsRequired)

	err = svc.Register(context.Background(), &memSession{}, RegisterInput{Email: "a@b.co", Password: "password", GenreIDs: []int{1, 2, 3}})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	err = svc.Register(context.Background(), &memSession{}, RegisterInput{Email: "a@b.co", Password: strings.Repeat("p", 72) + "1", GenreIDs: []int{1, 2, 3}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pwbytes", verr.Tag)

	err = svc.Register(context.Background(), &memSession{}, RegisterInput{Email: "a@b.co", Password: "s3cretpass", GenreIDs: []int{1, -2, 3}})
	assert.ErrorIs(t, err, ErrInvalidGenre)

	assert.Zero(t, api.Calls(accountapitest.EndpointCreate))
}

func TestRegisterAccountCreationFailure(t *testing.T) {
	client, api := newAccountAPI(t)
	api.AddAccount("new@example.com", "other1234", "", "")
	svc := NewAuthService(client)
	sess := &memSession{}

	err := svc.Register(context.Background(), sess, validSignup())

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, StateAnonymous, regErr.Reached)
	assert.ErrorIs(t, err, ErrAccountCreationFailed)
	assert.Equal(t, "The user with this email already exists in the system", accountapi.DetailOf(err))
	assert.Zero(t, sess.writes)
	assert.Zero(t, api.Calls(accountapitest.EndpointToken))
}

func TestRegisterLoginFailureKeepsAccount(t *testing.T) {
	client, api := newAccountAPI(t)
	api.Fail(accountapitest.EndpointToken, http.StatusServiceUnavailable)
	svc := NewAuthService(client)
	sess := &memSession{}

	err := svc.Register(context.Background(), sess, validSignup())

	assert.ErrorIs(t, err, ErrLoginAfterCreationFailed)
	_, created := api.Account("new@example.com")
	assert.True(t, created)
	assert.False(t, sess.Data().Authenticated())
	assert.Equal(t, string(StateAccountCreated), sess.Data().RegistrationStep)
	assert.Zero(t, api.Calls(accountapitest.EndpointGenres))
}

func TestRegisterFailureDropsSavedCredentials(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		reached  RegistrationState
	}{
		{"login after creation", accountapitest.EndpointToken, StateAccountCreated},
		{"genre attachment", accountapitest.EndpointGenres, StateLoggedIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api := newAccountAPI(t)
			api.Fail(tt.endpoint, http.StatusServiceUnavailable)
			svc := NewAuthService(client)
			sess := &memSession{}

			in := validSignup()
			in.GenreIDs = nil
			require.ErrorIs(t, svc.Register(context.Background(), sess, in), ErrNotEnoughGenres)
			require.Equal(t, "s3cretpass", sess.Data().TempPassword)

			err := svc.Register(context.Background(), sess, RegisterInput{GenreIDs: []int{1, 2, 3}})
			var regErr *RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.reached, regErr.Reached)

			data := sess.Data()
			assert.Empty(t, data.TempEmail)
			assert.Empty(t, data.TempPassword)
			assert.Equal(t, string(tt.reached), data.RegistrationStep)

			// Nothing is left to resume from.
			err = svc.Register(context.Background(), sess, RegisterInput{GenreIDs: []int{1, 2, 3}})
			assert.ErrorIs(t, err, ErrCredentialsRequired)
			assert.Equal(t, 1, api.Calls(accountapitest.EndpointCreate))
		})
	}
}

func TestRegisterGenreFailureLeavesUserLoggedIn(t *testing.T) {
	client, api := newAccountAPI(t)
	api.Fail(accountapitest.EndpointGenres, http.StatusInternalServerError)
	svc := NewAuthService(client)
	sess := &memSession{}

	err := svc.Register(context.Background(), sess, validSignup())

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, StateLoggedIn, regErr.Reached)
	assert.Equal(t, "Failed to save genre preferences.", regErr.Message())
	assert.True(t, sess.Data().Authenticated())
	assert.Equal(t, "new@example.com", sess.Data().Username)
	assert.Equal(t, 1, sess.rotated)
}

func TestRegisterUnreachable(t *testing.T) {
	api := accountapitest.NewServer()
	cfg := api.Config()
	api.Close()
	svc := NewAuthService(accountapi.NewClient(cfg))

	err := svc.Register(context.Background(), &memSession{}, validSignup())
	assert.ErrorIs(t, err, ErrAccountCreationFailed)
	assert.True(t, accountapi.IsKind(err, accountapi.KindUnreachable))
}

func TestRegisterSessionWriteFailure(t *testing.T) {
	client, _ := newAccountAPI(t)
	svc := NewAuthService(client)
	sess := &memSession{failAt: 2}

	err := svc.Register(context.Background(), sess, validSignup())
	require.Error(t, err)
	var regErr *RegistrationError
	assert.False(t, errors.As(err, &regErr))
	assert.Equal(t, session.Data{RegistrationStep: string(StateAccountCreated)}, sess.Data())
}
