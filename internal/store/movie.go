package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/moviemania/frontend/types"
)

const (
	castLimit = 10
	crewLimit = 8
)

// MovieRepository reads movies, their credits and per-user lists.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// GetDetails loads a movie with genres, cast and crew. userID > 0 also loads
// that user's rating.
func (r *MovieRepository) GetDetails(ctx context.Context, movieID, userID int) (types.MovieDetails, error) {
	movie, err := r.get(ctx, movieID)
	if err != nil {
		return types.MovieDetails{}, err
	}

	if userID > 0 {
		const ratingQuery = `SELECT note FROM MovieUsers WHERE movie_id = $1 AND user_id = $2`
		var note sql.NullInt64
		err := r.db.QueryRowContext(ctx, ratingQuery, movieID, userID).Scan(&note)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return types.MovieDetails{}, err
		}
		if note.Valid {
			n := int(note.Int64)
			movie.UserRating = &n
		}
	}

	cast, err := r.cast(ctx, movieID)
	if err != nil {
		return types.MovieDetails{}, err
	}
	crew, err := r.crew(ctx, movieID)
	if err != nil {
		return types.MovieDetails{}, err
	}

	return types.MovieDetails{Movie: movie, Cast: cast, Crew: crew}, nil
}

func (r *MovieRepository) get(ctx context.Context, movieID int) (types.Movie, error) {
	const query = `
		SELECT m.movie_id, m.title, m.overview, m.poster_path, m.backdrop_path, m.release_date,
			m.runtime, m.vote_average, m.vote_count, m.budget, m.revenue, m.tagline,
			COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}') AS genres
		FROM Movies m
		LEFT JOIN MovieGenres mg ON m.movie_id = mg.movie_id
		LEFT JOIN Genres g ON mg.genre_id = g.genre_id
		WHERE m.movie_id = $1
		GROUP BY m.movie_id`
	var movie types.Movie
	err := r.db.QueryRowContext(ctx, query, movieID).Scan(
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.PosterPath,
		&movie.BackdropPath,
		&movie.ReleaseDate,
		&movie.Runtime,
		&movie.VoteAverage,
		&movie.VoteCount,
		&movie.Budget,
		&movie.Revenue,
		&movie.Tagline,
		pq.Array(&movie.Genres),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Movie{}, ErrNotFound
		}
		return types.Movie{}, err
	}
	if movie.Genres == nil {
		movie.Genres = []string{}
	}
	return movie, nil
}

func (r *MovieRepository) cast(ctx context.Context, movieID int) ([]types.CastMember, error) {
	const query = `
		SELECT p.name, p.photo, c.character_name, c.cast_order
		FROM Credits c
		JOIN Peoples p ON c.id_people = p.people_id
		JOIN Jobs j ON c.id_job = j.job_id
		WHERE c.id_movie = $1 AND j.title = 'Actor'
		ORDER BY c.cast_order
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, movieID, castLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cast := make([]types.CastMember, 0, castLimit)
	for rows.Next() {
		var member types.CastMember
		if err := rows.Scan(&member.Name, &member.Photo, &member.CharacterName, &member.CastOrder); err != nil {
			return nil, err
		}
		cast = append(cast, member)
	}
	return cast, rows.Err()
}

func (r *MovieRepository) crew(ctx context.Context, movieID int) ([]types.CrewMember, error) {
	const query = `
		SELECT p.name, p.photo, j.title AS job
		FROM Credits c
		JOIN Peoples p ON c.id_people = p.people_id
		JOIN Jobs j ON c.id_job = j.job_id
		WHERE c.id_movie = $1 AND j.title IN ('Director', 'Producer', 'Writer', 'Cinematography')
		ORDER BY
			CASE j.title
				WHEN 'Director' THEN 1
				WHEN 'Producer' THEN 2
				WHEN 'Writer' THEN 3
				ELSE 4
			END
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, movieID, crewLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	crew := make([]types.CrewMember, 0, crewLimit)
	for rows.Next() {
		var member types.CrewMember
		if err := rows.Scan(&member.Name, &member.Photo, &member.Job); err != nil {
			return nil, err
		}
		crew = append(crew, member)
	}
	return crew, rows.Err()
}

// ListSaved returns the user's most recent saved movies.
func (r *MovieRepository) ListSaved(ctx context.Context, userID, limit int) ([]types.MovieSummary, error) {
	const query = `
		SELECT m.movie_id, m.title, m.poster_path, mu.note
		FROM MovieUsers mu
		JOIN Movies m ON mu.movie_id = m.movie_id
		WHERE mu.user_id = $1 AND mu.saved
		ORDER BY m.movie_id DESC
		LIMIT $2`
	return r.listSummaries(ctx, query, userID, limit)
}

// ListRated returns the user's most recent rated movies.
func (r *MovieRepository) ListRated(ctx context.Context, userID, limit int) ([]types.MovieSummary, error) {
	const query = `
		SELECT m.movie_id, m.title, m.poster_path, mu.note
		FROM MovieUsers mu
		JOIN Movies m ON mu.movie_id = m.movie_id
		WHERE mu.user_id = $1 AND mu.note IS NOT NULL
		ORDER BY m.movie_id DESC
		LIMIT $2`
	return r.listSummaries(ctx, query, userID, limit)
}

func (r *MovieRepository) listSummaries(ctx context.Context, query string, userID, limit int) ([]types.MovieSummary, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]types.MovieSummary, 0, limit)
	for rows.Next() {
		var movie types.MovieSummary
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.PosterPath, &movie.Note); err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}
