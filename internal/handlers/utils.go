package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/moviemania/frontend/internal/logging"
)

type contextKey string

const contextUserIDKey contextKey = "user_id"

const maxBodyBytes = 1 << 20

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse reports a successful mutation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FailureResponse reports a refused login or registration. These are sent
// with status 200 so the page script can show the message.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func userIDFromContext(ctx context.Context) (int, error) {
	userID, ok := ctx.Value(contextUserIDKey).(int)
	if !ok {
		return 0, errors.New("missing user id")
	}
	if userID < 1 {
		return 0, errors.New("invalid user id")
	}
	return userID, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, FailureResponse{Error: message})
}

// writeServerError logs err and answers with the generic 500 payload.
func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Server error")
}

// writeDatabaseError logs the data-store failure and hides its detail.
func writeDatabaseError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("database error")
	writeError(w, http.StatusInternalServerError, "Database error")
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// decodeJSON reads a single JSON object, keeping numbers as json.Number.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(dst)
}

// intValue accepts a JSON number or a numeric string. ok is false for
// missing or zero values; err reports a value that is not a whole number.
func intValue(raw any) (n int, ok bool, err error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		return parseWholeNumber(v.String())
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		return parseWholeNumber(strings.TrimSpace(v))
	case bool:
		if !v {
			return 0, false, nil
		}
		return 0, true, errors.New("not a number")
	default:
		return 0, true, errors.New("not a number")
	}
}

func parseWholeNumber(s string) (int, bool, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n != 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, err
	}
	if f == 0 {
		return 0, false, nil
	}
	return 0, true, errors.New("not a whole number")
}
