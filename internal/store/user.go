package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/moviemania/frontend/types"
)

// UserRepository reads and updates user profiles. Accounts themselves are
// created by the account API.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT user_id, nom, prenom, email, birthday, sexe
		FROM Users
		WHERE user_id = $1`
	var (
		user             types.User
		nom, prenom, sex sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&nom,
		&prenom,
		&user.Email,
		&user.Birthday,
		&sex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.Nom = nom.String
	user.Prenom = prenom.String
	user.Sexe = sex.String
	return user, nil
}

// UpdateProfile overwrites the editable profile fields. Empty strings are
// stored as NULL.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, update types.ProfileUpdate) error {
	const query = `
		UPDATE Users
		SET nom = $1,
			prenom = $2,
			birthday = $3,
			sexe = $4
		WHERE user_id = $5`
	_, err := r.db.ExecContext(
		ctx,
		query,
		nullString(update.Nom),
		nullString(update.Prenom),
		update.Birthday,
		nullString(update.Sexe),
		id,
	)
	return err
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, id int) (string, error) {
	const query = `SELECT password FROM Users WHERE user_id = $1`
	var hash string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	const query = `UPDATE Users SET password = $1 WHERE user_id = $2`
	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
