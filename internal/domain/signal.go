package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"
)

// SignalKind tags the negotiation message being relayed.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

var (
	ErrMissingAddress   = errors.New("signal needs from_user, to_user and channel_id")
	ErrMissingSDP       = errors.New("signal carries no session description")
	ErrMissingCandidate = errors.New("signal carries no ice candidate")
)

func ParseSignalKind(s string) (SignalKind, error) {
	switch k := SignalKind(s); k {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown signal type %q", s)
	}
}

// EventName is the wire event a pushed signal is delivered under.
func (k SignalKind) EventName() string {
	if k == SignalICECandidate {
		return "webrtc_ice_candidate"
	}
	return "webrtc_" + string(k)
}

// Signal is one WebRTC negotiation message addressed to a single recipient.
// The SDP and candidate bodies are relayed opaquely; only their shape is
// checked at the boundary.
type Signal struct {
	From      UserID                     `json:"from_user"`
	To        UserID                     `json:"to_user"`
	Channel   ChannelID                  `json:"channel_id"`
	Kind      SignalKind                 `json:"signal_type"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

func (s *Signal) Validate() error {
	if s.From == "" || s.To == "" || s.Channel == "" {
		return ErrMissingAddress
	}
	switch s.Kind {
	case SignalOffer, SignalAnswer:
		if s.SDP == nil || s.SDP.SDP == "" {
			return ErrMissingSDP
		}
	case SignalICECandidate:
		if s.Candidate == nil || s.Candidate.Candidate == "" {
			return ErrMissingCandidate
		}
	default:
		return fmt.Errorf("unknown signal type %q", string(s.Kind))
	}
	return nil
}
