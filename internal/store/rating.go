package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/moviemania/frontend/types"
)

// RatingRepository handles persistence for movie ratings.
type RatingRepository struct {
	db *sql.DB
}

func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert records the note of (movie, user). A new row starts unsaved; an
// existing row only has its note replaced.
func (r *RatingRepository) Upsert(ctx context.Context, rating types.Rating) error {
	const query = `
		INSERT INTO MovieUsers (movie_id, user_id, note, saved)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (movie_id, user_id) DO UPDATE
		SET note = EXCLUDED.note`
	_, err := r.db.ExecContext(ctx, query, rating.MovieID, rating.UserID, rating.Note)
	return err
}

// Get returns the rating of (movie, user), or ErrNotFound.
func (r *RatingRepository) Get(ctx context.Context, movieID, userID int) (types.Rating, error) {
	const query = `
		SELECT movie_id, user_id, note, saved
		FROM MovieUsers
		WHERE movie_id = $1 AND user_id = $2`
	var (
		rating types.Rating
		note   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, movieID, userID).Scan(&rating.MovieID, &rating.UserID, &note, &rating.Saved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Rating{}, ErrNotFound
		}
		return types.Rating{}, err
	}
	rating.Note = int(note.Int64)
	return rating, nil
}

// Counts returns how many movies the user rated and saved.
func (r *RatingRepository) Counts(ctx context.Context, userID int) (rated, saved int, err error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE note IS NOT NULL),
			COUNT(*) FILTER (WHERE saved)
		FROM MovieUsers
		WHERE user_id = $1`
	err = r.db.QueryRowContext(ctx, query, userID).Scan(&rated, &saved)
	return rated, saved, err
}
