package service

import (
	"sync"
	"time"

	"github.com/safeguardhq/safeguard/internal/approval/domain"
)

// session is the in-memory state machine for one approval. The mutex
// guards the single Waiting -> terminal transition; done is closed on
// that transition and never reopened.
type session struct {
	request domain.Request

	mu      sync.Mutex
	state   domain.State
	outcome domain.Outcome
	done    chan struct{}
	timer   *time.Timer
}

func newSession(request domain.Request) *session {
	return &session{
		request: request,
		state:   domain.StateWaiting,
		done:    make(chan struct{}),
	}
}

// resolve attempts the transition. Returns false when the session was
// already terminal; the caller must treat that as a no-op, not an
// error path that mutates anything.
func (s *session) resolve(state domain.State, decidedBy string, at time.Time) bool {
	if !state.Terminal() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}

	s.state = state
	s.outcome = domain.Outcome{
		SessionID: s.request.SessionID,
		State:     state,
		DecidedBy: decidedBy,
		DecidedAt: at,
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.done)
	return true
}

func (s *session) snapshot() (domain.State, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.outcome
}

func (s *session) waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StateWaiting
}
