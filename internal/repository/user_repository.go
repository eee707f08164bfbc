package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

// UserRepo reads user profiles.  Account management lives elsewhere; the
// check-in flow only needs what a scanner is allowed to see.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// PublicProfile fetches the public subset of a user row.
func (r *UserRepo) PublicProfile(ctx context.Context, userID string) (model.PublicProfile, error) {
	var (
		p        model.PublicProfile
		username sql.NullString
		avatar   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,username,avatar_url FROM users WHERE id=? LIMIT 1",
		userID).Scan(&p.ID, &p.Name, &username, &avatar)
	if err != nil {
		return model.PublicProfile{}, notFound(err)
	}
	if username.Valid {
		p.Username = &username.String
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	return p, nil
}
