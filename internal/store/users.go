package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

// Users implements core.UserDirectory on sqlite. The relay only reads from
// it; profile writes belong to the surrounding application.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Lookup(ctx context.Context, id domain.UserID) (domain.User, error) {
	var (
		u         domain.User
		avatarURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, avatar_url, aura_color FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Username, &avatarURL, &u.AuraColor)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, core.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("error querying user: %w", err)
	}
	u.AvatarURL = avatarURL.String
	return u, nil
}
