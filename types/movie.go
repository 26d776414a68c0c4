package types

import "time"

// Movie holds the details shown on a movie page.
type Movie struct {
	ID           int      `json:"id" db:"movie_id"`
	Title        string   `json:"title" db:"title"`
	Overview     *string  `json:"overview" db:"overview"`
	PosterPath   *string  `json:"poster_path" db:"poster_path"`
	BackdropPath *string  `json:"backdrop_path" db:"backdrop_path"`
	ReleaseDate  *Date    `json:"release_date" db:"release_date"`
	Runtime      *int     `json:"runtime" db:"runtime"`
	VoteAverage  *float64 `json:"vote_average" db:"vote_average"`
	VoteCount    *int     `json:"vote_count" db:"vote_count"`
	Budget       *int64   `json:"budget" db:"budget"`
	Revenue      *int64   `json:"revenue" db:"revenue"`
	Tagline      *string  `json:"tagline" db:"tagline"`

	// Genres are genre names in alphabetical order.
	Genres []string `json:"genres"`

	// UserRating is the caller's note for this movie, if any.
	UserRating *int `json:"user_rating"`
}

// MovieSummary is a movie as listed on the profile page.
type MovieSummary struct {
	ID         int     `json:"id" db:"movie_id"`
	Title      string  `json:"title" db:"title"`
	PosterPath *string `json:"poster_path" db:"poster_path"`
	// Note is set for rated movies only.
	Note *int `json:"note,omitempty" db:"note"`
}

// CastMember is an actor credited on a movie.
type CastMember struct {
	Name          string  `json:"name" db:"name"`
	Photo         *string `json:"photo" db:"photo"`
	CharacterName *string `json:"character_name" db:"character_name"`
	CastOrder     *int    `json:"cast_order" db:"cast_order"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	Name  string  `json:"name" db:"name"`
	Photo *string `json:"photo" db:"photo"`
	Job   string  `json:"job" db:"job"`
}

// MovieDetails is the full movie page payload.
type MovieDetails struct {
	Movie Movie        `json:"movie"`
	Cast  []CastMember `json:"cast"`
	Crew  []CrewMember `json:"crew"`
}

// Genre is a selectable movie genre.
type Genre struct {
	ID   int    `json:"genre_id" db:"genre_id"`
	Name string `json:"name" db:"name"`
}

// Rating is a user's note on a movie. A later rating of the same movie by the
// same user replaces the note and leaves Saved untouched.
type Rating struct {
	MovieID int       `json:"movie_id" db:"movie_id"`
	UserID  int       `json:"user_id" db:"user_id"`
	Note    int       `json:"note" db:"note"`
	Saved   bool      `json:"saved" db:"saved"`
	RatedAt time.Time `json:"rated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
