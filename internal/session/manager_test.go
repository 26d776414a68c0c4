package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *MemoryStore }

func (failingStore) Load(context.Context, string) (Data, bool, error) {
	return Data{}, false, errors.New("backend down")
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	var last *http.Cookie
	for _, c := range cookies {
		if c.Name == CookieName {
			last = c
		}
	}
	require.NotNil(t, last, "session cookie not set")
	return last
}

func serve(t *testing.T, m *Manager, cookie *http.Cookie, fn func(*Session)) *httptest.ResponseRecorder {
	t.Helper()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := FromContext(r.Context())
		require.NoError(t, err)
		fn(s)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareStartsAndResumesSession(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, CookieOptions{})

	rec := serve(t, m, nil, func(s *Session) {
		assert.False(t, s.Data().Authenticated())
		require.NoError(t, s.Update(context.Background(), func(d *Data) {
			d.AccessToken = "tok"
			d.Username = "ada@example.com"
		}))
	})
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, 1, store.Len())

	serve(t, m, cookie, func(s *Session) {
		assert.Equal(t, cookie.Value, s.ID())
		assert.Equal(t, "tok", s.Data().AccessToken)
		assert.Equal(t, "ada@example.com", s.Data().Username)
	})
}

func TestMiddlewareIgnoresForgedCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, CookieOptions{})
	forged := &http.Cookie{Name: CookieName, Value: "../../etc/passwd"}

	rec := serve(t, m, forged, func(s *Session) {
		assert.NotEqual(t, forged.Value, s.ID())
	})
	assert.NotEqual(t, forged.Value, sessionCookie(t, rec).Value)
}

func TestClearRemovesEverythingAndRotatesID(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, CookieOptions{})

	rec := serve(t, m, nil, func(s *Session) {
		require.NoError(t, s.Update(context.Background(), func(d *Data) {
			d.AccessToken = "tok"
			d.UserID = 7
		}))
	})
	first := sessionCookie(t, rec)

	rec = serve(t, m, first, func(s *Session) {
		require.NoError(t, s.Clear(context.Background()))
		assert.Equal(t, Data{}, s.Data())
	})
	second := sessionCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 0, store.Len())

	serve(t, m, first, func(s *Session) {
		assert.False(t, s.Data().Authenticated())
	})
}

func TestRotateKeepsDataUnderNewID(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, CookieOptions{})

	first := sessionCookie(t, serve(t, m, nil, func(s *Session) {
		require.NoError(t, s.Update(context.Background(), func(d *Data) {
			d.Username = "ada@example.com"
		}))
	}))

	var rotated string
	rec := serve(t, m, first, func(s *Session) {
		require.NoError(t, s.Update(context.Background(), func(d *Data) {
			d.AccessToken = "tok"
		}))
		require.NoError(t, s.Rotate(context.Background()))
		rotated = s.ID()
		assert.Equal(t, "tok", s.Data().AccessToken)
	})
	second := sessionCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, rotated, second.Value)
	assert.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, 1, store.Len())

	serve(t, m, first, func(s *Session) {
		assert.False(t, s.Data().Authenticated())
	})
	serve(t, m, second, func(s *Session) {
		assert.Equal(t, "tok", s.Data().AccessToken)
		assert.Equal(t, "ada@example.com", s.Data().Username)
	})
}

func TestMiddlewareBackendFailure(t *testing.T) {
	m := NewManager(&failingStore{MemoryStore: NewMemoryStore()}, time.Hour, CookieOptions{})
	id, err := GenerateID()
	require.NoError(t, err)

	called := false
	handler := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
}

func TestFromContextWithoutSession(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
