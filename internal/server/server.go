package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/moviemania/frontend/config"
	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/db"
	"github.com/moviemania/frontend/internal/events"
	"github.com/moviemania/frontend/internal/handlers"
	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/services"
	"github.com/moviemania/frontend/internal/session"
	"github.com/moviemania/frontend/internal/store"
	"github.com/moviemania/frontend/internal/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const sessionCleanupInterval = time.Minute

// Server wraps the HTTP server and its backing connections.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	redis      *redis.Client
	publisher  *events.Publisher
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	AuthService    *services.AuthService
	MovieService   *services.MovieService
	ProfileService *services.ProfileService
	Sessions       *session.Manager
	Renderer       *web.Renderer

	RecommendationsAPIURL string
	// AuthRateLimit is requests per minute per client IP on the credential
	// routes. Zero disables limiting.
	AuthRateLimit int
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{db: dbConn}

	sessionStore, err := s.openSessionStore(ctx, cfg)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	publisher, err := events.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("events: %w", err)
	}
	s.publisher = publisher

	renderer, err := web.NewRenderer()
	if err != nil {
		_ = s.close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	movieRepo := store.NewMovieRepository(dbConn)
	ratingRepo := store.NewRatingRepository(dbConn)
	genreRepo := store.NewGenreRepository(dbConn)

	accountClient := accountapi.NewClient(accountapi.Config{
		UsersURL:      cfg.AccountAPI.UsersURL,
		LoginURL:      cfg.AccountAPI.LoginURL,
		GenreUsersURL: cfg.AccountAPI.GenreUsersURL,
	})

	var ratingPublisher services.RatingPublisher
	if publisher != nil {
		ratingPublisher = publisher
	}

	router := NewRouter(Deps{
		AuthService:    services.NewAuthService(accountClient),
		MovieService:   services.NewMovieService(movieRepo, ratingRepo, genreRepo, ratingPublisher),
		ProfileService: services.NewProfileService(userRepo, movieRepo, ratingRepo),
		Sessions: session.NewManager(sessionStore, cfg.Session.TTL, session.CookieOptions{
			Secure: cfg.Session.CookieSecure,
		}),
		Renderer:              renderer,
		RecommendationsAPIURL: cfg.RecommendationsAPIURL,
		AuthRateLimit:         cfg.AuthRateLimit,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		memStore := session.NewMemoryStore()
		memStore.StartCleanup(ctx, sessionCleanupInterval)
		return memStore, nil
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		s.redis = client
		return session.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// NewRouter builds the HTTP routes over deps.
func NewRouter(deps Deps) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		middleware.StripSlashes,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())

	var authLimiter func(http.Handler) http.Handler
	if deps.AuthRateLimit > 0 {
		authLimiter = httprate.LimitByIP(deps.AuthRateLimit, time.Minute)
	}

	router.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)
		handlers.AuthRouter(r, deps.AuthService, deps.MovieService, deps.Renderer, authLimiter)
		handlers.PageRouter(r, deps.Renderer, deps.RecommendationsAPIURL)
		handlers.MovieRouter(r, deps.MovieService, deps.AuthService)
		handlers.ProfileRouter(r, deps.ProfileService, deps.AuthService, deps.Renderer)
	})
	return router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// ends, then releases the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
			_ = s.httpServer.Close()
		}
	}
	if err := s.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close events: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
