package core

import (
	"context"

	"github.com/aurachat/voice/internal/domain"
)

// Frame is a marshaled event ready for the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts a live client transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ChannelStore persists channel metadata durably. The registry writes through
// to it but stays authoritative for membership between writes.
type ChannelStore interface {
	Insert(ctx context.Context, ch *domain.Channel) error
	SaveParticipants(ctx context.Context, id domain.ChannelID, participants []domain.UserID) error
	SetGhostMode(ctx context.Context, id domain.ChannelID, ghost bool) error
	Delete(ctx context.Context, id domain.ChannelID) error
	Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)
	List(ctx context.Context, includeGhost bool) ([]domain.Channel, error)
}

// UserDirectory is a read-only lookup used to decorate membership events.
// It must return ErrNotFound for unknown ids; callers fall back to a guest
// summary.
type UserDirectory interface {
	Lookup(ctx context.Context, id domain.UserID) (domain.User, error)
}
