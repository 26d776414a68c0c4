package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/store"
	"github.com/moviemania/frontend/internal/validation"
	"github.com/moviemania/frontend/internal/web"
	"github.com/moviemania/frontend/types"
)

// ChangePasswordRequest is the change-password body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ProfileHandler serves the profile page and its JSON endpoints.
type ProfileHandler struct {
	profileService *services.ProfileService
	authService    *services.AuthService
	renderer       *web.Renderer
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService, authService *services.AuthService, renderer *web.Renderer) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
		renderer:       renderer,
	}
}

// ProfileRouter registers profile routes on the given router.
func ProfileRouter(r chi.Router, profileService *services.ProfileService, authService *services.AuthService, renderer *web.Renderer) {
	handler := NewProfileHandler(profileService, authService, renderer)
	identity := RequireIdentity(authService, "User not found")

	r.With(redirectIfAnonymous).Get("/profile", handler.ProfilePage)
	r.With(requireMethod(http.MethodGet), requireSession, identity).
		HandleFunc("/profile-data", handler.GetProfileData)
	r.With(requireMethod(http.MethodPost), requireSession, identity).
		HandleFunc("/update-profile", handler.UpdateProfile)
	r.With(requireMethod(http.MethodPost), requireSession, identity).
		HandleFunc("/change-password", handler.ChangePassword)
}

type profilePage struct {
	types.ProfileSummary
	Username    string
	DisplayName string
}

// ProfilePage renders the caller's profile. A data-store failure renders
// the page without data.
func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	userID, err := h.authService.ResolveUserID(r.Context(), sess)
	if errors.Is(err, services.ErrUnauthenticated) {
		logging.Ctx(r.Context()).Warn().Msg("profile requested without a resolvable user")
		http.Redirect(w, r, "/login/", http.StatusFound)
		return
	}
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	summary, err := h.profileService.Summary(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int("user_id", userID).Msg("profile summary failed")
		summary = types.ProfileSummary{}
	}

	username := sess.Data().Username
	if username == "" {
		username = "User"
	}
	page := profilePage{
		ProfileSummary: summary,
		Username:       username,
		DisplayName:    summary.User.DisplayName(username),
	}
	if err := h.renderer.Render(w, http.StatusOK, web.PageProfile, page); err != nil {
		writeServerError(w, r, err)
	}
}

// GetProfileData returns the caller's profile record.
func (h *ProfileHandler) GetProfileData(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeDatabaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile stores the editable profile fields and refreshes the
// display name kept in the session.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	var req services.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	update, err := h.profileService.UpdateProfile(r.Context(), userID, req)
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}
	if err != nil {
		writeDatabaseError(w, r, err)
		return
	}

	if err := sess.Update(r.Context(), func(d *session.Data) {
		d.Prenom = update.Prenom
		d.Nom = update.Nom
	}); err != nil {
		writeServerError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Int("user_id", userID).Msg("profile updated")
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Profile updated successfully"})
}

// ChangePassword replaces the caller's password after verifying the
// current one.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err = h.profileService.ChangePassword(r.Context(), userID, services.PasswordChange{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	var validationErr *validation.Error
	switch {
	case err == nil:
		logging.Ctx(r.Context()).Info().Int("user_id", userID).Msg("password changed")
		writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Password changed successfully"})
	case errors.Is(err, services.ErrPasswordsRequired):
		writeError(w, http.StatusBadRequest, "Current and new passwords required")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrIncorrectPassword):
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
	default:
		writeDatabaseError(w, r, err)
	}
}
