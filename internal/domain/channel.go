// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxChannelNameLen = 64

var (
	ErrChannelNameEmpty   = errors.New("channel name empty")
	ErrChannelNameTooLong = errors.New("channel name too long")
)

type (
	ChannelID string
	UserID    string
)

// Channel is a voice room. Participants keep their join order; uniqueness is
// enforced by the registry, not here.
type Channel struct {
	ID           ChannelID `json:"id"`
	Name         string    `json:"name"`
	AuraColor    string    `json:"aura_color"`
	CreatorID    UserID    `json:"creator_id"`
	IsGhostMode  bool      `json:"is_ghost_mode"`
	Participants []UserID  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewChannel avoids ad-hoc struct literals in adapters. The creator is always
// the first participant.
func NewChannel(name, auraColor string, creator UserID, ghost bool) (*Channel, error) {
	if len(name) == 0 {
		return nil, ErrChannelNameEmpty
	}
	if len(name) > MaxChannelNameLen {
		return nil, ErrChannelNameTooLong
	}
	if auraColor == "" {
		auraColor = DefaultAuraColor
	}
	return &Channel{
		ID:           ChannelID(uuid.NewString()),
		Name:         name,
		AuraColor:    auraColor,
		CreatorID:    creator,
		IsGhostMode:  ghost,
		Participants: []UserID{creator},
		CreatedAt:    time.Now().UTC(),
	}, nil
}
