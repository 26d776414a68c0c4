package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/web"
)

// APIConfigResponse tells page scripts where the recommendations API lives.
type APIConfigResponse struct {
	RecommendationsAPIURL string `json:"recommendations_api_url"`
}

// PageHandler serves the home page and client configuration.
type PageHandler struct {
	renderer           *web.Renderer
	recommendationsURL string
}

// NewPageHandler constructs a PageHandler.
func NewPageHandler(renderer *web.Renderer, recommendationsURL string) *PageHandler {
	return &PageHandler{renderer: renderer, recommendationsURL: recommendationsURL}
}

// PageRouter registers page routes on the given router.
func PageRouter(r chi.Router, renderer *web.Renderer, recommendationsURL string) {
	handler := NewPageHandler(renderer, recommendationsURL)

	r.With(redirectIfAnonymous).Get("/home", handler.Home)
	r.Get("/api-config", handler.APIConfig)
}

type homePage struct {
	Username              string
	UserID                int
	RecommendationsAPIURL string
}

// Home renders the signed-in landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	data := sess.Data()
	page := homePage{
		Username:              data.Username,
		UserID:                data.UserID,
		RecommendationsAPIURL: h.recommendationsURL,
	}
	if err := h.renderer.Render(w, http.StatusOK, web.PageHome, page); err != nil {
		writeServerError(w, r, err)
	}
}

// APIConfig returns the client configuration.
func (h *PageHandler) APIConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIConfigResponse{RecommendationsAPIURL: h.recommendationsURL})
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
