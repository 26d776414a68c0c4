// Package accountapitest runs an in-process account API for tests. It issues
// HS256 access tokens on login and checks them on identity lookup and genre
// attachment, recording how often each endpoint was called.
package accountapitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/moviemania/frontend/internal/accountapi"
)

// Endpoint names used by Calls and Fail.
const (
	EndpointToken  = "token"
	EndpointCreate = "create"
	EndpointMe     = "me"
	EndpointGenres = "genres"
)

// Account is a registered account of the fake API.
type Account struct {
	ID       int
	Email    string
	Password string
	Prenom   string
	Nom      string
	Genres   []int
}

// Server is a fake account API backed by httptest.
type Server struct {
	*httptest.Server

	// IncludeUserIDInToken adds user_id to token responses.
	IncludeUserIDInToken bool

	mu       sync.Mutex
	secret   []byte
	nextID   int
	accounts map[string]*Account
	calls    map[string]int
	failures map[string]int
}

// NewServer starts a fake account API. Close it when done.
func NewServer() *Server {
	s := &Server{
		secret:   []byte("accountapitest-secret"),
		nextID:   1,
		accounts: make(map[string]*Account),
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Post("/login/access-token", s.token)
	r.Post("/users/open", s.create)
	r.Get("/users/me", s.me)
	r.Post("/genreusers/", s.attachGenres)
	s.Server = httptest.NewServer(r)
	return s
}

// Config returns a client configuration pointing at s.
func (s *Server) Config() accountapi.Config {
	return accountapi.Config{
		UsersURL:      s.URL + "/users",
		LoginURL:      s.URL + "/login",
		GenreUsersURL: s.URL + "/genreusers",
	}
}

// AddAccount registers an account directly and returns it.
func (s *Server) AddAccount(email, password, prenom, nom string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &Account{ID: s.nextID, Email: email, Password: password, Prenom: prenom, Nom: nom}
	s.nextID++
	s.accounts[strings.ToLower(email)] = acc
	return *acc
}

// Account returns the account registered under email.
func (s *Server) Account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Fail makes endpoint answer with status until reset with status 0.
func (s *Server) Fail(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, endpoint)
		return
	}
	s.failures[endpoint] = status
}

// Calls returns how many requests endpoint received.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// IssueToken signs an access token for account id.
func (s *Server) IssueToken(id int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// record counts the call and returns the injected failure status, if any.
func (s *Server) record(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[endpoint]++
	return s.failures[endpoint]
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if status := s.record(EndpointToken); status != 0 {
		writeDetail(w, status, "Token service failure")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(r.PostForm.Get("username"))]
	s.mu.Unlock()
	if !ok || acc.Password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}

	token, err := s.IssueToken(acc.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"access_token": token, "token_type": "bearer"}
	if s.IncludeUserIDInToken {
		resp["user_id"] = acc.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if status := s.record(EndpointCreate); status != 0 {
		writeDetail(w, status, "Account service failure")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Genres   []int  `json:"genres"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid account payload")
		return
	}
	if _, exists := s.Account(req.Email); exists {
		writeDetail(w, http.StatusBadRequest, "The user with this email already exists in the system")
		return
	}
	acc := s.AddAccount(req.Email, req.Password, "", "")
	writeJSON(w, http.StatusOK, map[string]any{"id": acc.ID, "email": acc.Email})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	if status := s.record(EndpointMe); status != 0 {
		writeDetail(w, status, "Identity service failure")
		return
	}
	acc, err := s.authenticate(r)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     acc.ID,
		"email":  acc.Email,
		"prenom": acc.Prenom,
		"nom":    acc.Nom,
	})
}

func (s *Server) attachGenres(w http.ResponseWriter, r *http.Request) {
	if status := s.record(EndpointGenres); status != 0 {
		writeDetail(w, status, "Genre service failure")
		return
	}
	acc, err := s.authenticate(r)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	var req struct {
		GenreIDs []int `json:"genre_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid genre payload")
		return
	}

	s.mu.Lock()
	s.accounts[strings.ToLower(acc.Email)].Genres = req.GenreIDs
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"genre_ids": req.GenreIDs})
}

func (s *Server) authenticate(r *http.Request) (Account, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Account{}, errors.New("missing bearer token")
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Account{}, errors.New("invalid token")
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return Account{}, errors.New("invalid subject")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == id {
			return *acc, nil
		}
	}
	return Account{}, errors.New("unknown account")
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
