package services

import (
	"context"
	"fmt"
	"time"

	"github.com/moviemania/frontend/internal/logging"
	"github.com/moviemania/frontend/internal/metrics"
	"github.com/moviemania/frontend/types"
)

// MovieRepository loads movie pages.
type MovieRepository interface {
	GetDetails(ctx context.Context, movieID, userID int) (types.MovieDetails, error)
}

// RatingRepository persists ratings.
type RatingRepository interface {
	Upsert(ctx context.Context, rating types.Rating) error
}

// GenreRepository lists genres.
type GenreRepository interface {
	List(ctx context.Context) ([]types.Genre, error)
}

// RatingPublisher announces stored ratings to other services.
type RatingPublisher interface {
	PublishRating(ctx context.Context, rating types.Rating) error
}

// MovieService encapsulates movie and rating use-cases.
type MovieService struct {
	movies    MovieRepository
	ratings   RatingRepository
	genres    GenreRepository
	publisher RatingPublisher
	now       func() time.Time
}

// NewMovieService constructs a MovieService. publisher may be nil.
func NewMovieService(movies MovieRepository, ratings RatingRepository, genres GenreRepository, publisher RatingPublisher) *MovieService {
	return &MovieService{
		movies:    movies,
		ratings:   ratings,
		genres:    genres,
		publisher: publisher,
		now:       time.Now,
	}
}

// Details returns the movie page. userID 0 skips the caller's rating.
func (s *MovieService) Details(ctx context.Context, movieID, userID int) (types.MovieDetails, error) {
	return s.movies.GetDetails(ctx, movieID, userID)
}

func (s *MovieService) Genres(ctx context.Context) ([]types.Genre, error) {
	return s.genres.List(ctx)
}

// Rate stores the user's note for a movie, replacing any earlier note.
func (s *MovieService) Rate(ctx context.Context, userID, movieID, note int) error {
	if note < types.MinRating || note > types.MaxRating {
		return ErrRatingOutOfRange
	}
	if movieID <= 0 {
		return ErrInvalidMovieID
	}

	rating := types.Rating{MovieID: movieID, UserID: userID, Note: note, RatedAt: s.now().UTC()}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	metrics.RatingsSaved.Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishRating(ctx, rating); err != nil {
			metrics.RatingEventsPublished.WithLabelValues("failure").Inc()
			logging.Ctx(ctx).Warn().Err(err).Int("movie_id", movieID).Msg("rating event not published")
		} else {
			metrics.RatingEventsPublished.WithLabelValues("success").Inc()
		}
	}
	return nil
}
