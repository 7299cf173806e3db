package core

import "github.com/aurachat/voice/internal/domain"

// QueueCap bounds every per-channel signal queue. Once exceeded, the oldest
// entry is dropped silently: queued delivery is best-effort.
const QueueCap = 100

// signalQueue is an insertion-ordered buffer of undelivered signals for one
// channel. Not safe for concurrent use; the owning channelState locks around it.
type signalQueue struct {
	entries []domain.Signal
}

// push appends sig and reports how many old entries were evicted to stay
// within QueueCap.
func (q *signalQueue) push(sig domain.Signal) int {
	q.entries = append(q.entries, sig)
	if over := len(q.entries) - QueueCap; over > 0 {
		q.entries = append(q.entries[:0:0], q.entries[over:]...)
		return over
	}
	return 0
}

// drain removes and returns every entry addressed to user, in insertion
// order. Entries for other recipients stay put.
func (q *signalQueue) drain(user domain.UserID) []domain.Signal {
	var out []domain.Signal
	kept := q.entries[:0]
	for _, sig := range q.entries {
		if sig.To == user {
			out = append(out, sig)
			continue
		}
		kept = append(kept, sig)
	}
	q.entries = kept
	return out
}

func (q *signalQueue) len() int { return len(q.entries) }
