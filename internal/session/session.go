// Package session keeps per-browser state between requests. A session is
// identified by an opaque cookie value and its data lives in a Store with an
// idle lifetime that slides on every request.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned when no session is attached to a request context.
var ErrNoSession = errors.New("session: no session in context")

// Data is everything stored for one browser session.
type Data struct {
	AccessToken string `json:"access_token,omitempty"`
	UserID      int    `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Prenom      string `json:"user_prenom,omitempty"`
	Nom         string `json:"user_nom,omitempty"`

	// Registration fields live only while a signup waits for its genre step.
	TempEmail        string `json:"temp_email,omitempty"`
	TempPassword     string `json:"temp_password,omitempty"`
	RegistrationStep string `json:"registration_step,omitempty"`
}

// Authenticated reports whether an access token is present.
func (d Data) Authenticated() bool {
	return d.AccessToken != ""
}

// ClearRegistration drops the transient signup fields.
func (d *Data) ClearRegistration() {
	d.TempEmail = ""
	d.TempPassword = ""
	d.RegistrationStep = ""
}

// Store persists session data by id with an idle TTL.
type Store interface {
	// Load returns found=false when the id is unknown or expired.
	Load(ctx context.Context, id string) (data Data, found bool, err error)
	Save(ctx context.Context, id string, data Data, ttl time.Duration) error
	// Touch extends the TTL of an existing entry. Unknown ids are ignored.
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Session is the state of one browser session for the duration of a request.
// Every mutation is written to the store before it returns.
type Session struct {
	mu      sync.Mutex
	id      string
	data    Data
	manager *Manager
	// rotate is called by Clear and Rotate to hand a fresh id to the client.
	rotate func(id string)
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Data returns a snapshot of the session data.
func (s *Session) Data() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Update applies fn to the session data and persists the result.
// The in-memory data is left unchanged if the store write fails.
func (s *Session) Update(ctx context.Context, fn func(*Data)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data
	fn(&next)
	if err := s.manager.store.Save(ctx, s.id, next, s.manager.ttl); err != nil {
		return err
	}
	s.data = next
	return nil
}

// Rotate moves the current data to a new session id and deletes the old
// entry. Called when the session changes privilege.
func (s *Session) Rotate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := GenerateID()
	if err != nil {
		return err
	}
	if err := s.manager.store.Save(ctx, id, s.data, s.manager.ttl); err != nil {
		return err
	}
	if err := s.manager.store.Delete(ctx, s.id); err != nil {
		return err
	}
	s.id = id
	if s.rotate != nil {
		s.rotate(id)
	}
	return nil
}

// Clear removes every key, deletes the stored entry and moves the browser to
// a new, empty session id.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.manager.store.Delete(ctx, s.id); err != nil {
		return err
	}
	id, err := GenerateID()
	if err != nil {
		return err
	}
	s.id = id
	s.data = Data{}
	if s.rotate != nil {
		s.rotate(id)
	}
	return nil
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Manager.Middleware.
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
