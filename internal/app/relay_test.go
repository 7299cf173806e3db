package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

func testOffer(from, to domain.UserID, channel domain.ChannelID) domain.Signal {
	return domain.Signal{
		From:    from,
		To:      to,
		Channel: channel,
		Kind:    domain.SignalOffer,
		SDP:     &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
	}
}

func TestSendPushesToLiveSession(t *testing.T) {
	registry := core.NewRegistry(newFakeStore())
	directory := NewDirectory()
	relay := NewRelay(registry, directory)

	ch, _ := registry.Create(context.Background(), "lounge", "", "alice", false)
	conn := &fakeConn{}
	directory.Register("s-bob", conn, nil)
	directory.Bind("s-bob", "bob", ch.ID)

	if err := relay.Send(testOffer("alice", "bob", ch.ID)); err != nil {
		t.Fatalf("send: %v", err)
	}

	events := conn.events(t)
	if len(events) != 1 {
		t.Fatalf("pushed %d frames, want 1", len(events))
	}
	if events[0]["type"] != "webrtc_offer" {
		t.Errorf("event type = %v, want webrtc_offer", events[0]["type"])
	}
	if events[0]["from_user"] != "alice" {
		t.Errorf("from_user = %v, want alice", events[0]["from_user"])
	}
	if registry.QueueLen(ch.ID) != 0 {
		t.Errorf("queue len = %d, push must not persist", registry.QueueLen(ch.ID))
	}
}

func TestSendQueuesWhenNoLiveSession(t *testing.T) {
	registry := core.NewRegistry(newFakeStore())
	relay := NewRelay(registry, NewDirectory())

	ch, _ := registry.Create(context.Background(), "lounge", "", "alice", false)
	if err := relay.Send(testOffer("alice", "bob", ch.ID)); err != nil {
		t.Fatalf("send: %v", err)
	}

	sigs := relay.Pull(ch.ID, "bob")
	if len(sigs) != 1 {
		t.Fatalf("pulled %d signals, want 1", len(sigs))
	}
	if sigs[0].Kind != domain.SignalOffer || sigs[0].From != "alice" {
		t.Errorf("pulled %+v, want alice's offer", sigs[0])
	}
	if again := relay.Pull(ch.ID, "bob"); len(again) != 0 {
		t.Fatalf("second pull returned %d signals, want 0", len(again))
	}
}

func TestSendUnknownChannel(t *testing.T) {
	relay := NewRelay(core.NewRegistry(newFakeStore()), NewDirectory())
	if err := relay.Send(testOffer("alice", "bob", "nope")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPushFailureFallsBackToQueue(t *testing.T) {
	registry := core.NewRegistry(newFakeStore())
	directory := NewDirectory()
	relay := NewRelay(registry, directory)

	ch, _ := registry.Create(context.Background(), "lounge", "", "alice", false)
	directory.Register("s-bob", &fakeConn{fail: true}, nil)
	directory.Bind("s-bob", "bob", ch.ID)

	if err := relay.Send(testOffer("alice", "bob", ch.ID)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := relay.Pull(ch.ID, "bob"); len(got) != 1 {
		t.Fatalf("pulled %d signals after push failure, want 1", len(got))
	}
}

func TestQueuedSignalsKeepPerRecipientOrder(t *testing.T) {
	registry := core.NewRegistry(newFakeStore())
	relay := NewRelay(registry, NewDirectory())
	ch, _ := registry.Create(context.Background(), "lounge", "", "alice", false)

	kinds := []domain.SignalKind{domain.SignalOffer, domain.SignalAnswer, domain.SignalICECandidate}
	for _, k := range kinds {
		sig := domain.Signal{From: "alice", To: "bob", Channel: ch.ID, Kind: k}
		if k == domain.SignalICECandidate {
			sig.Candidate = &webrtc.ICECandidateInit{Candidate: "candidate:1"}
		} else {
			sig.SDP = &webrtc.SessionDescription{SDP: "v=0"}
		}
		if err := relay.Send(sig); err != nil {
			t.Fatalf("send %s: %v", k, err)
		}
	}

	got := relay.Pull(ch.ID, "bob")
	if len(got) != len(kinds) {
		t.Fatalf("pulled %d signals, want %d", len(got), len(kinds))
	}
	for i, k := range kinds {
		if got[i].Kind != k {
			t.Errorf("signal %d kind = %s, want %s", i, got[i].Kind, k)
		}
	}
}

func TestCapAppliesBeforePull(t *testing.T) {
	registry := core.NewRegistry(newFakeStore())
	relay := NewRelay(registry, NewDirectory())
	ch, _ := registry.Create(context.Background(), "lounge", "", "alice", false)

	for i := 0; i < core.QueueCap+1; i++ {
		sig := testOffer(domain.UserID(fmt.Sprintf("peer-%d", i)), "bob", ch.ID)
		if err := relay.Send(sig); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	got := relay.Pull(ch.ID, "bob")
	if len(got) != core.QueueCap {
		t.Fatalf("pulled %d signals, want %d", len(got), core.QueueCap)
	}
	if got[0].From != "peer-1" {
		t.Errorf("first pulled from %q, want peer-1 (oldest evicted)", got[0].From)
	}
}
