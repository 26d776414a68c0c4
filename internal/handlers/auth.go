package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/validation"
	"github.com/moviemania/frontend/internal/web"
	"github.com/moviemania/frontend/types"
)

const homePath = "/home/"

// LoginRequest is the login form, sent as JSON or form-encoded.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login or registration.
type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Redirect    string `json:"redirect"`
	AccessToken string `json:"access_token"`
}

// RegisterRequest is the signup form. Genres may be numbers or numeric
// strings.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Genres   []any  `json:"genres"`
}

// AuthHandler serves login, logout and registration.
type AuthHandler struct {
	authService  *services.AuthService
	movieService *services.MovieService
	renderer     *web.Renderer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, movieService *services.MovieService, renderer *web.Renderer) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		movieService: movieService,
		renderer:     renderer,
	}
}

// AuthRouter registers auth routes on the given router. authLimiter guards
// the credential-accepting POST routes and may be nil.
func AuthRouter(
	r chi.Router,
	authService *services.AuthService,
	movieService *services.MovieService,
	renderer *web.Renderer,
	authLimiter func(http.Handler) http.Handler,
) {
	handler := NewAuthHandler(authService, movieService, renderer)
	limited := r
	if authLimiter != nil {
		limited = r.With(authLimiter)
	}

	r.With(redirectIfAuthenticated).Get("/", handler.LoginPage)
	r.With(redirectIfAuthenticated).Get("/login", handler.LoginPage)
	limited.Post("/login", handler.Login)

	r.Get("/logout", handler.LogoutPage)
	r.Post("/logout", handler.Logout)

	r.With(redirectIfAuthenticated).Get("/register", handler.RegisterPage)
	limited.With(redirectIfAuthenticated).Post("/register", handler.Register)
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, web.PageLogin, struct{ Username string }{})
}

// Login verifies credentials with the account API and signs the session in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	var req LoginRequest
	if isJSONRequest(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeFailure(w, "Email and password required.")
		return
	}

	result, err := h.authService.Login(r.Context(), sess, req.Email, req.Password)
	if err != nil {
		var validationErr *validation.Error
		switch {
		case errors.As(err, &validationErr):
			writeFailure(w, validationErr.Message)
		case accountapi.IsKind(err, accountapi.KindUnreachable):
			logging.Ctx(r.Context()).Error().Err(err).Msg("authentication failed")
			writeFailure(w, "Connection error.")
		case accountapi.IsKind(err, accountapi.KindInvalidCredentials):
			writeFailure(w, detailOr(err, "Invalid email or password."))
		default:
			writeServerError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		Message:     "Login successful!",
		Redirect:    homePath,
		AccessToken: result.AccessToken,
	})
}

// Logout removes every session key.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.clearSession(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

// LogoutPage clears the session and returns to the login page.
func (h *AuthHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	if !h.clearSession(w, r) {
		return
	}
	http.Redirect(w, r, "/login/", http.StatusFound)
}

func (h *AuthHandler) clearSession(w http.ResponseWriter, r *http.Request) bool {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return false
	}
	if err := h.authService.Logout(r.Context(), sess); err != nil {
		writeServerError(w, r, err)
		return false
	}
	return true
}

type registerPage struct {
	Username       string
	Genres         []types.Genre
	MinGenres      int
	AwaitingGenres bool
	PendingEmail   string
}

// RegisterPage renders the signup form with the genre catalogue.
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	genres, err := h.movieService.Genres(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("list genres failed")
		genres = nil
	}

	data := sess.Data()
	h.render(w, r, web.PageRegister, registerPage{
		Genres:         genres,
		MinGenres:      services.MinGenres,
		AwaitingGenres: data.RegistrationStep == services.StepAwaitingGenres,
		PendingEmail:   data.TempEmail,
	})
}

// Register runs the signup sequence: create the account, log in, then attach
// the selected genres.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	var in services.RegisterInput
	if isJSONRequest(r) {
		var req RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		in.Email, in.Password = req.Email, req.Password
		in.GenreIDs = parseGenreIDs(req.Genres)
	} else {
		in.Email, in.Password = r.PostFormValue("email"), r.PostFormValue("password")
		raw := make([]any, 0, len(r.PostForm["genres"]))
		for _, g := range r.PostForm["genres"] {
			raw = append(raw, g)
		}
		in.GenreIDs = parseGenreIDs(raw)
	}

	if err := h.authService.Register(r.Context(), sess, in); err != nil {
		h.writeRegisterError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		Message:     "Account created successfully!",
		Redirect:    homePath,
		AccessToken: sess.Data().AccessToken,
	})
}

func (h *AuthHandler) writeRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *validation.Error
		regErr        *services.RegistrationError
	)
	switch {
	case errors.Is(err, services.ErrCredentialsRequired):
		writeFailure(w, "Email and password required.")
	case errors.Is(err, services.ErrNotEnoughGenres):
		writeFailure(w, "Please select at least 3 genres.")
	case errors.Is(err, services.ErrInvalidGenre):
		writeFailure(w, "Invalid genre selection.")
	case errors.As(err, &validationErr):
		writeFailure(w, validationErr.Message)
	case errors.As(err, &regErr):
		if accountapi.IsKind(err, accountapi.KindUnreachable) {
			writeFailure(w, "Connection error.")
			return
		}
		message := regErr.Message()
		if regErr.Reached == services.StateAnonymous {
			message = detailOr(err, message)
		}
		writeFailure(w, message)
	default:
		writeServerError(w, r, err)
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	if err := h.renderer.Render(w, http.StatusOK, page, data); err != nil {
		writeServerError(w, r, err)
	}
}

// parseGenreIDs converts submitted genre values. Unparseable entries become
// 0, which the registration guard rejects.
func parseGenreIDs(raw []any) []int {
	ids := make([]int, 0, len(raw))
	for _, value := range raw {
		id, _, err := intValue(value)
		if err != nil {
			id = 0
		}
		ids = append(ids, id)
	}
	return ids
}

// detailOr returns the account API's detail message carried by err, or
// fallback when there is none.
func detailOr(err error, fallback string) string {
	if detail := accountapi.DetailOf(err); detail != "" {
		return detail
	}
	return fallback
}
