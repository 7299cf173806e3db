package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

// Channels implements core.ChannelStore on sqlite. Participants are stored as
// a JSON array to keep their join order, the way the original document store
// did.
type Channels struct {
	db *sql.DB
}

func NewChannels(db *sql.DB) *Channels {
	return &Channels{db: db}
}

func (s *Channels) Insert(ctx context.Context, ch *domain.Channel) error {
	participants, err := json.Marshal(ch.Participants)
	if err != nil {
		return fmt.Errorf("error encoding participants: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO channels (id, name, aura_color, creator_id, is_ghost_mode, participants, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ch.ID, ch.Name, ch.AuraColor, ch.CreatorID, ch.IsGhostMode, string(participants), ch.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting channel: %w", err)
	}
	return nil
}

func (s *Channels) SaveParticipants(ctx context.Context, id domain.ChannelID, participants []domain.UserID) error {
	encoded, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("error encoding participants: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE channels SET participants = ? WHERE id = ?", string(encoded), id)
	if err != nil {
		return fmt.Errorf("error updating participants: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Channels) SetGhostMode(ctx context.Context, id domain.ChannelID, ghost bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE channels SET is_ghost_mode = ? WHERE id = ?", ghost, id)
	if err != nil {
		return fmt.Errorf("error updating ghost mode: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Delete tolerates a missing row: the registry deletes idempotently and may
// race another deleter.
func (s *Channels) Delete(ctx context.Context, id domain.ChannelID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM channels WHERE id = ?", id); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func (s *Channels) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, aura_color, creator_id, is_ghost_mode, participants, created_at FROM channels WHERE id = ?", id)
	ch, err := scanChannel(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying channel: %w", err)
	}
	return ch, nil
}

func (s *Channels) List(ctx context.Context, includeGhost bool) ([]domain.Channel, error) {
	query := "SELECT id, name, aura_color, creator_id, is_ghost_mode, participants, created_at FROM channels ORDER BY created_at"
	if !includeGhost {
		query = "SELECT id, name, aura_color, creator_id, is_ghost_mode, participants, created_at FROM channels WHERE is_ghost_mode = 0 ORDER BY created_at"
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing channels: %w", err)
	}
	defer rows.Close()

	var out []domain.Channel
	for rows.Next() {
		ch, err := scanChannel(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning channel: %w", err)
		}
		out = append(out, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing channels: %w", err)
	}
	return out, nil
}

func scanChannel(scan func(...any) error) (*domain.Channel, error) {
	var (
		ch           domain.Channel
		participants string
		createdAt    string
	)
	if err := scan(&ch.ID, &ch.Name, &ch.AuraColor, &ch.CreatorID, &ch.IsGhostMode, &participants, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participants), &ch.Participants); err != nil {
		return nil, fmt.Errorf("error decoding participants: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		ch.CreatedAt = t
	}
	return &ch, nil
}
