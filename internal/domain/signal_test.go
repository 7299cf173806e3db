package domain

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestParseSignalKind(t *testing.T) {
	cases := []struct {
		in      string
		want    SignalKind
		wantErr bool
	}{
		{in: "offer", want: SignalOffer},
		{in: "answer", want: SignalAnswer},
		{in: "ice-candidate", want: SignalICECandidate},
		{in: "renegotiate", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseSignalKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSignalKind(%q) accepted", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseSignalKind(%q) = (%v, %v), want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestSignalValidate(t *testing.T) {
	sdp := &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	cand := &webrtc.ICECandidateInit{Candidate: "candidate:1"}

	cases := []struct {
		name    string
		sig     Signal
		wantErr bool
	}{
		{name: "valid offer", sig: Signal{From: "a", To: "b", Channel: "c", Kind: SignalOffer, SDP: sdp}},
		{name: "valid candidate", sig: Signal{From: "a", To: "b", Channel: "c", Kind: SignalICECandidate, Candidate: cand}},
		{name: "offer without sdp", sig: Signal{From: "a", To: "b", Channel: "c", Kind: SignalOffer}, wantErr: true},
		{name: "candidate without body", sig: Signal{From: "a", To: "b", Channel: "c", Kind: SignalICECandidate}, wantErr: true},
		{name: "missing recipient", sig: Signal{From: "a", Channel: "c", Kind: SignalOffer, SDP: sdp}, wantErr: true},
		{name: "unknown kind", sig: Signal{From: "a", To: "b", Channel: "c", Kind: "mute"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sig.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSignalKindEventName(t *testing.T) {
	if got := SignalOffer.EventName(); got != "webrtc_offer" {
		t.Errorf("offer event = %q", got)
	}
	if got := SignalICECandidate.EventName(); got != "webrtc_ice_candidate" {
		t.Errorf("candidate event = %q", got)
	}
}
