package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/store"
)

// MovieHandler serves movie details and ratings.
type MovieHandler struct {
	movieService *services.MovieService
	authService  *services.AuthService
}

// NewMovieHandler constructs a MovieHandler.
func NewMovieHandler(movieService *services.MovieService, authService *services.AuthService) *MovieHandler {
	return &MovieHandler{movieService: movieService, authService: authService}
}

// MovieRouter registers movie routes on the given router.
func MovieRouter(r chi.Router, movieService *services.MovieService, authService *services.AuthService) {
	handler := NewMovieHandler(movieService, authService)

	r.With(requireSession).Get("/movie/{movieID}", handler.GetMovie)
	r.With(requireMethod(http.MethodPost), requireSession).
		HandleFunc("/rate-movie", handler.RateMovie)
}

// GetMovie returns the movie with its genres, cast, crew and the caller's
// rating.
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || movieID < 1 {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}

	details, err := h.movieService.Details(r.Context(), movieID, sess.Data().UserID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		writeDatabaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// RateMovie stores the caller's 1..5 note for a movie, replacing any
// earlier note. The account id is resolved only once the body is valid.
func (h *MovieHandler) RateMovie(w http.ResponseWriter, r *http.Request) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	movieID, hasMovie, movieErr := intValue(body["movie_id"])
	rating, hasRating, ratingErr := intValue(body["rating"])
	if !hasMovie || !hasRating {
		writeError(w, http.StatusBadRequest, "movie_id and rating required")
		return
	}
	if ratingErr != nil || rating < 1 || rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	if movieErr != nil || movieID < 1 {
		writeError(w, http.StatusBadRequest, "Invalid movie_id")
		return
	}

	userID, err := h.authService.ResolveUserID(r.Context(), sess)
	if errors.Is(err, services.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "User not authenticated properly")
		return
	}
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	err = h.movieService.Rate(r.Context(), userID, movieID, rating)
	switch {
	case errors.Is(err, services.ErrRatingOutOfRange):
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
	case errors.Is(err, services.ErrInvalidMovieID):
		writeError(w, http.StatusBadRequest, "Invalid movie_id")
	case err != nil:
		writeDatabaseError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Rating saved successfully"})
	}
}
