// Package accountapi is the HTTP client of the external user-account service:
// credential verification, account creation, identity lookup and genre
// preference attachment.
package accountapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/metrics"
	"github.com/sony/gobreaker/v2"
)

const (
	opAuthenticate    = "authenticate"
	opCreateAccount   = "create_account"
	opResolveIdentity = "resolve_identity"
	opAttachGenres    = "attach_genres"

	breakerName     = "account-api"
	maxResponseBody = 1 << 20
)

// Config locates the account API endpoints.
type Config struct {
	UsersURL      string
	LoginURL      string
	GenreUsersURL string
	// HTTPClient defaults to a client without its own timeout; calls are
	// bounded by the request context.
	HTTPClient *http.Client
}

// Client calls the account API. Failures are never retried.
type Client struct {
	usersURL      string
	loginURL      string
	genreUsersURL string
	http          *http.Client
	cb            *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{
		usersURL:      strings.TrimRight(cfg.UsersURL, "/"),
		loginURL:      strings.TrimRight(cfg.LoginURL, "/"),
		genreUsersURL: strings.TrimRight(cfg.GenreUsersURL, "/"),
		http:          httpClient,
		cb:            cb,
	}
}

// Authenticate exchanges credentials for an access token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL+"/access-token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := c.do(opAuthenticate, req)
	if err != nil {
		return Token{}, err
	}
	if !success(status) {
		return Token{}, c.reject(opAuthenticate, KindInvalidCredentials, status, body)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		metrics.AccountAPIRequests.WithLabelValues(opAuthenticate, "rejected").Inc()
		return Token{}, &AuthError{Op: opAuthenticate, Kind: KindInvalidCredentials, Status: status, Err: errors.New("malformed token response")}
	}
	metrics.AccountAPIRequests.WithLabelValues(opAuthenticate, "success").Inc()
	return token, nil
}

// CreateAccount registers a new account with an empty genre list.
func (c *Client) CreateAccount(ctx context.Context, email, password string) error {
	req, err := newJSONRequest(ctx, http.MethodPost, c.usersURL+"/open", createAccountRequest{
		Email:    email,
		Password: password,
		Genres:   []int{},
	})
	if err != nil {
		return err
	}

	status, body, err := c.do(opCreateAccount, req)
	if err != nil {
		return err
	}
	if !success(status) {
		return c.reject(opCreateAccount, KindAccountCreationFailed, status, body)
	}
	metrics.AccountAPIRequests.WithLabelValues(opCreateAccount, "success").Inc()
	return nil
}

// ResolveIdentity returns the account behind token. A nil identity with a nil
// error means the API did not recognise the token.
func (c *Client) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersURL+"/me", nil)
	if err != nil {
		return nil, err
	}
	setBearer(req, token)

	status, body, err := c.do(opResolveIdentity, req)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		metrics.AccountAPIRequests.WithLabelValues(opResolveIdentity, "rejected").Inc()
		logging.Debug().Int("status", status).Msg("identity not resolvable")
		return nil, nil
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil || identity.ID == 0 {
		metrics.AccountAPIRequests.WithLabelValues(opResolveIdentity, "rejected").Inc()
		return nil, nil
	}
	metrics.AccountAPIRequests.WithLabelValues(opResolveIdentity, "success").Inc()
	return &identity, nil
}

// AttachGenres records genre preferences for the account behind token.
func (c *Client) AttachGenres(ctx context.Context, token string, genreIDs []int) error {
	req, err := newJSONRequest(ctx, http.MethodPost, c.genreUsersURL+"/", attachGenresRequest{GenreIDs: genreIDs})
	if err != nil {
		return err
	}
	setBearer(req, token)

	status, body, err := c.do(opAttachGenres, req)
	if err != nil {
		return err
	}
	if !success(status) {
		return c.reject(opAttachGenres, KindGenreAttachFailed, status, body)
	}
	metrics.AccountAPIRequests.WithLabelValues(opAttachGenres, "success").Inc()
	return nil
}

// do sends req through the circuit breaker and reads the response body.
// Transport failures are returned as KindUnreachable.
func (c *Client) do(op string, req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.cb.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	metrics.AccountAPIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AccountAPIRequests.WithLabelValues(op, "unavailable").Inc()
		logging.Ctx(req.Context()).Warn().Err(err).Str("operation", op).Msg("account API unreachable")
		return 0, nil, &AuthError{Op: op, Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		metrics.AccountAPIRequests.WithLabelValues(op, "unavailable").Inc()
		return 0, nil, &AuthError{Op: op, Kind: KindUnreachable, Err: fmt.Errorf("read response: %w", err)}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) reject(op string, kind Kind, status int, body []byte) error {
	metrics.AccountAPIRequests.WithLabelValues(op, "rejected").Inc()
	return &AuthError{Op: op, Kind: kind, Status: status, Detail: parseDetail(body)}
}

func newJSONRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func setBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
