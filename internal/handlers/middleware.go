package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
)

// requireMethod answers any other method with a JSON 405 before the
// authentication checks run.
func requireMethod(method string) func(http.Handler) http.Handler {
	message := method + " method required"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				w.Header().Set("Allow", method)
				writeError(w, http.StatusMethodNotAllowed, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSession rejects requests whose session holds no access token.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromContext(r.Context())
		if err != nil {
			writeServerError(w, r, err)
			return
		}
		if !sess.Data().Authenticated() {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity resolves the account id of the session, asking the
// account API when only a token is known, and injects it into the request
// context. Unresolvable sessions get a 401 carrying message.
func RequireIdentity(auth *services.AuthService, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := session.FromContext(r.Context())
			if err != nil {
				writeServerError(w, r, err)
				return
			}

			userID, err := auth.ResolveUserID(r.Context(), sess)
			if errors.Is(err, services.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, message)
				return
			}
			if err != nil {
				writeServerError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirectIfAuthenticated sends signed-in visitors to the home page.
func redirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, err := session.FromContext(r.Context()); err == nil && sess.Data().Authenticated() {
			http.Redirect(w, r, "/home/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectIfAnonymous sends visitors without a token to the login page.
func redirectIfAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromContext(r.Context())
		if err != nil || !sess.Data().Authenticated() {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
