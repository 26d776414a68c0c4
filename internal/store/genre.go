package store

import (
	"context"
	"database/sql"

	"github.com/moviemania/frontend/types"
)

// GenreRepository lists selectable genres.
type GenreRepository struct {
	db *sql.DB
}

func NewGenreRepository(db *sql.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) List(ctx context.Context) ([]types.Genre, error) {
	const query = `SELECT genre_id, name FROM Genres ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []types.Genre
	for rows.Next() {
		var genre types.Genre
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}
