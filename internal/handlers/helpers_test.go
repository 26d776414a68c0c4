package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/accountapi/accountapitest"
	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/store"
	"github.com/moviemania/frontend/internal/web"
	"github.com/moviemania/frontend/types"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu      sync.Mutex
	err     error
	users   map[int]types.User
	movies  map[int]types.MovieDetails
	ratings map[[2]int]types.Rating
	genres  []types.Genre
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:   make(map[int]types.User),
		movies:  make(map[int]types.MovieDetails),
		ratings: make(map[[2]int]types.Rating),
		genres: []types.Genre{
			{ID: 1, Name: "Action"},
			{ID: 2, Name: "Comedy"},
			{ID: 3, Name: "Drama"},
			{ID: 4, Name: "Horror"},
		},
	}
}

func (f *fakeDB) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeDB) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeDB) UpdateProfile(_ context.Context, id int, update types.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u := f.users[id]
	u.ID, u.Nom, u.Prenom, u.Birthday, u.Sexe = id, update.Nom, update.Prenom, update.Birthday, update.Sexe
	f.users[id] = u
	return nil
}

func (f *fakeDB) GetPasswordHash(_ context.Context, id int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.users[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return u.PasswordHash, nil
}

func (f *fakeDB) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func (f *fakeDB) ListSaved(context.Context, int, int) ([]types.MovieSummary, error) {
	return nil, nil
}

func (f *fakeDB) ListRated(_ context.Context, userID, _ int) ([]types.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.MovieSummary
	for key, rating := range f.ratings {
		if key[1] != userID {
			continue
		}
		note := rating.Note
		title := f.movies[key[0]].Movie.Title
		out = append(out, types.MovieSummary{ID: key[0], Title: title, Note: &note})
	}
	return out, nil
}

func (f *fakeDB) Counts(_ context.Context, userID int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rated := 0
	for key := range f.ratings {
		if key[1] == userID {
			rated++
		}
	}
	return rated, 0, nil
}

func (f *fakeDB) GetDetails(_ context.Context, movieID, _ int) (types.MovieDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.MovieDetails{}, f.err
	}
	m, ok := f.movies[movieID]
	if !ok {
		return types.MovieDetails{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeDB) Upsert(_ context.Context, rating types.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	key := [2]int{rating.MovieID, rating.UserID}
	if existing, ok := f.ratings[key]; ok {
		existing.Note = rating.Note
		f.ratings[key] = existing
		return nil
	}
	f.ratings[key] = rating
	return nil
}

func (f *fakeDB) List(context.Context) ([]types.Genre, error) {
	return f.genres, nil
}

func (f *fakeDB) addMovie(m types.MovieDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[m.Movie.ID] = m
}

func (f *fakeDB) addUser(u types.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeDB) user(id int) types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *fakeDB) rating(movieID, userID int) (types.Rating, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[[2]int{movieID, userID}]
	return r, ok
}

type testApp struct {
	server   *httptest.Server
	client   *http.Client
	api      *accountapitest.Server
	db       *fakeDB
	sessions *session.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	api := accountapitest.NewServer()
	t.Cleanup(api.Close)

	db := newFakeDB()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	authService := services.NewAuthService(accountapi.NewClient(api.Config()))
	movieService := services.NewMovieService(db, db, db, nil)
	profileService := services.NewProfileService(db, db, db)

	sessions := session.NewMemoryStore()
	manager := session.NewManager(sessions, session.DefaultTTL, session.CookieOptions{})

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes, manager.Middleware)
	AuthRouter(r, authService, movieService, renderer, nil)
	PageRouter(r, renderer, "http://reco.test")
	MovieRouter(r, movieService, authService)
	ProfileRouter(r, profileService, authService, renderer)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{server: srv, client: client, api: api, db: db, sessions: sessions}
}

func (a *testApp) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// login signs the test client in as a fresh account and returns its id.
func (a *testApp) login(t *testing.T) int {
	t.Helper()
	acc := a.api.AddAccount("ada@example.com", "analytic1", "Ada", "Lovelace")
	resp, body := a.do(t, http.MethodPost, "/login/", map[string]string{
		"email":    acc.Email,
		"password": acc.Password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	return acc.ID
}

// seedSession makes the client's session hold exactly data.
func (a *testApp) seedSession(t *testing.T, data session.Data) {
	t.Helper()
	resp, _ := a.do(t, http.MethodGet, "/api-config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, a.sessions.Save(t.Context(), a.sessionID(t), data, session.DefaultTTL))
}

// sessionID returns the session cookie value held by the client.
func (a *testApp) sessionID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	var id string
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			id = c.Value
		}
	}
	require.NotEmpty(t, id)
	return id
}
