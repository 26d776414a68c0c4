package types

// User is the profile record of an account as stored in the movie database.
// Accounts are created by the account API; this service only reads the
// profile and updates its editable fields and password.
type User struct {
	// ID is the account identifier shared with the account API.
	ID int `json:"user_id" db:"user_id"`

	// Nom is the family name.
	Nom string `json:"nom" db:"nom"`

	// Prenom is the given name.
	Prenom string `json:"prenom" db:"prenom"`

	// Email is the login email of the account.
	Email string `json:"email" db:"email"`

	// Birthday is optional.
	Birthday *Date `json:"birthday" db:"birthday"`

	// Sexe is one of "", "M", "F" or "O".
	Sexe string `json:"sexe" db:"sexe"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`
}

// DisplayName returns "prenom nom", whichever half is set, or fallback.
func (u User) DisplayName(fallback string) string {
	switch {
	case u.Prenom != "" && u.Nom != "":
		return u.Prenom + " " + u.Nom
	case u.Prenom != "":
		return u.Prenom
	case u.Nom != "":
		return u.Nom
	default:
		return fallback
	}
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Nom      string
	Prenom   string
	Birthday *Date
	Sexe     string
}

// ProfileSummary aggregates what the profile page shows.
type ProfileSummary struct {
	User         User
	SavedMovies  []MovieSummary
	RatedMovies  []MovieSummary
	TotalRatings int
	TotalSaved   int
}
