package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/modtap/card-link/internal/model"
)

// UserRepo provides read access to the 'users' table. User records are
// created by the platform's auth service; this service only consults them
// and, through LinkRepo, mutates the card binding.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID fetches a user by id. The card_id column is nullable in the
// schema, so it is scanned through sql.NullString and flattened to an
// empty string when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var card sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,first_name,last_name,card_id,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &card, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if card.Valid {
		u.CardID = card.String
	}
	return u, nil
}
