package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "channels.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testChannel(id domain.ChannelID) *domain.Channel {
	return &domain.Channel{
		ID:           id,
		Name:         "lounge",
		AuraColor:    "#8B5CF6",
		CreatorID:    "alice",
		Participants: []domain.UserID{"alice"},
		CreatedAt:    time.Now().UTC(),
	}
}

func TestChannelRoundtrip(t *testing.T) {
	s := NewChannels(openTestDB(t))
	ctx := context.Background()

	want := testChannel("ch-1")
	if err := s.Insert(ctx, want); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Get(ctx, "ch-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != want.Name || got.CreatorID != want.CreatorID || got.AuraColor != want.AuraColor {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.Participants) != 1 || got.Participants[0] != "alice" {
		t.Errorf("participants = %v, want [alice]", got.Participants)
	}
}

func TestGetUnknownChannel(t *testing.T) {
	s := NewChannels(openTestDB(t))
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveParticipantsKeepsOrder(t *testing.T) {
	s := NewChannels(openTestDB(t))
	ctx := context.Background()

	s.Insert(ctx, testChannel("ch-1"))
	order := []domain.UserID{"alice", "bob", "carol"}
	if err := s.SaveParticipants(ctx, "ch-1", order); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := s.Get(ctx, "ch-1")
	for i, want := range order {
		if got.Participants[i] != want {
			t.Fatalf("participants = %v, want %v", got.Participants, order)
		}
	}
}

func TestSaveParticipantsUnknownChannel(t *testing.T) {
	s := NewChannels(openTestDB(t))
	err := s.SaveParticipants(context.Background(), "nope", nil)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersGhostChannels(t *testing.T) {
	s := NewChannels(openTestDB(t))
	ctx := context.Background()

	s.Insert(ctx, testChannel("visible"))
	ghost := testChannel("hidden")
	ghost.IsGhostMode = true
	s.Insert(ctx, ghost)

	public, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(public) != 1 || public[0].ID != "visible" {
		t.Fatalf("public listing = %v, want only visible", public)
	}

	all, err := s.List(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("full listing = %d channels, want 2", len(all))
	}
}

func TestDeleteToleratesMissingRow(t *testing.T) {
	s := NewChannels(openTestDB(t))
	ctx := context.Background()

	s.Insert(ctx, testChannel("ch-1"))
	if err := s.Delete(ctx, "ch-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "ch-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSetGhostMode(t *testing.T) {
	s := NewChannels(openTestDB(t))
	ctx := context.Background()

	s.Insert(ctx, testChannel("ch-1"))
	if err := s.SetGhostMode(ctx, "ch-1", true); err != nil {
		t.Fatalf("set ghost: %v", err)
	}
	got, _ := s.Get(ctx, "ch-1")
	if !got.IsGhostMode {
		t.Fatal("ghost flag not persisted")
	}

	if err := s.SetGhostMode(ctx, "nope", true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUserLookup(t *testing.T) {
	db := openTestDB(t)
	s := NewUsers(db)
	ctx := context.Background()

	if _, err := s.Lookup(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, err := db.Exec("INSERT INTO users (id, username, avatar_url, aura_color) VALUES (?, ?, ?, ?)",
		"alice", "Alice", "/api/files/alice.png", "#00FF00")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	u, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Username != "Alice" || u.AvatarURL != "/api/files/alice.png" || u.AuraColor != "#00FF00" {
		t.Errorf("user = %+v", u)
	}
}
