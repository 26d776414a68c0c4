package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moviemania/frontend/internal/logging"
)

const DefaultTTL = time.Hour

// Manager binds a Store to HTTP requests.
type Manager struct {
	store  Store
	ttl    time.Duration
	cookie CookieOptions
}

// NewManager constructs a Manager. ttl is the idle lifetime of a session.
func NewManager(store Store, ttl time.Duration, cookie CookieOptions) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, cookie: cookie}
}

// Middleware loads the session named by the request cookie, or starts a new
// one, slides its expiry, and attaches it to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			id    string
			data  Data
			found bool
		)
		if c, err := r.Cookie(CookieName); err == nil && validID(c.Value) {
			id = c.Value
			loaded, ok, err := m.store.Load(ctx, id)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("session load failed")
				writeServerError(w)
				return
			}
			data, found = loaded, ok
		}

		if found {
			if err := m.store.Touch(ctx, id, m.ttl); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("session touch failed")
				writeServerError(w)
				return
			}
		} else {
			newID, err := GenerateID()
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("session id generation failed")
				writeServerError(w)
				return
			}
			id = newID
		}

		SetCookie(w, id, m.ttl, m.cookie)

		s := &Session{
			id:      id,
			data:    data,
			manager: m,
			rotate: func(newID string) {
				w.Header().Del("Set-Cookie")
				SetCookie(w, newID, m.ttl, m.cookie)
			},
		}
		next.ServeHTTP(w, r.WithContext(NewContext(ctx, s)))
	})
}

func writeServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Server error"})
}
