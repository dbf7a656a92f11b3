package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardhq/safeguard/internal/approval/domain"
	"github.com/safeguardhq/safeguard/internal/config"
	"github.com/safeguardhq/safeguard/internal/liveevents"
	obsmetrics "github.com/safeguardhq/safeguard/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Resolved sessions linger so a late manager decision gets a clean
// "already resolved" instead of "not found".
const resolvedRetention = 5 * time.Minute

const (
	EventRequested = "approval_requested"
	EventResolved  = "approval_resolved"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Policies *config.PolicyHolder
	Hub      *liveevents.Hub
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	policies *config.PolicyHolder
	hub      *liveevents.Hub
	metrics  *obsmetrics.Metrics

	mu         sync.Mutex
	sessions   map[string]*session
	byTerminal map[string]string
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("approval.service"),
		policies:   p.Policies,
		hub:        p.Hub,
		metrics:    p.Metrics,
		sessions:   make(map[string]*session),
		byTerminal: make(map[string]string),
	}
}

func (s *Service) Open(ctx context.Context, req domain.OpenRequest) (domain.Request, error) {
	terminalID := strings.TrimSpace(req.TerminalID)
	if terminalID == "" || strings.TrimSpace(req.CustomerID) == "" {
		return domain.Request{}, domain.ErrInvalidRequest
	}

	timeout := s.policies.Get().ApprovalTimeout
	now := time.Now()

	request := domain.Request{
		SessionID:      uuid.NewString(),
		TerminalID:     terminalID,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		RiskTier:       req.RiskTier,
		RiskScore:      req.RiskScore,
		RiskFactors:    req.RiskFactors,
		ProductSummary: req.ProductSummary,
		Units:          req.Units,
		AmountMinor:    req.AmountMinor,
		RequestedAt:    now,
		ExpiresAt:      now.Add(timeout),
	}

	sess := newSession(request)

	s.mu.Lock()
	if existingID, ok := s.byTerminal[terminalID]; ok {
		if existing := s.sessions[existingID]; existing != nil && existing.waiting() {
			s.mu.Unlock()
			return domain.Request{}, domain.ErrTerminalBusy
		}
	}
	s.sessions[request.SessionID] = sess
	s.byTerminal[terminalID] = request.SessionID
	s.mu.Unlock()

	sess.mu.Lock()
	sess.timer = time.AfterFunc(timeout, func() {
		s.finish(sess, domain.StateTimedOut, "")
	})
	sess.mu.Unlock()

	s.hub.Publish(liveevents.TopicApprovals, liveevents.Event{
		Type: EventRequested,
		At:   now,
		Data: request,
	})

	s.log.Info("approval session opened",
		zap.String("session_id", request.SessionID),
		zap.String("terminal_id", terminalID),
		zap.String("customer_id", request.CustomerID),
		zap.String("risk_tier", request.RiskTier),
	)

	return request, nil
}

func (s *Service) Wait(ctx context.Context, sessionID string) (domain.Outcome, error) {
	sess := s.lookup(sessionID)
	if sess == nil {
		return domain.Outcome{}, domain.ErrNotFound
	}

	select {
	case <-sess.done:
	case <-ctx.Done():
		// The terminal went away mid-wait. The session must not stay
		// decidable: resolve it, then fall through to report whatever
		// state won the race.
		s.finish(sess, domain.StateCancelled, "")
		<-sess.done
	}

	_, outcome := sess.snapshot()
	return outcome, nil
}

func (s *Service) Decide(ctx context.Context, sessionID string, approved bool, decidedBy string) (domain.Outcome, error) {
	sess := s.lookup(sessionID)
	if sess == nil {
		return domain.Outcome{}, domain.ErrNotFound
	}

	state := domain.StateDenied
	if approved {
		state = domain.StateApproved
	}

	if !s.finish(sess, state, strings.TrimSpace(decidedBy)) {
		_, outcome := sess.snapshot()
		return outcome, domain.ErrAlreadyResolved
	}

	_, outcome := sess.snapshot()
	return outcome, nil
}

func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	sess := s.lookup(sessionID)
	if sess == nil {
		return domain.ErrNotFound
	}
	if !s.finish(sess, domain.StateCancelled, "") {
		return domain.ErrAlreadyResolved
	}
	return nil
}

func (s *Service) Pending(ctx context.Context) []domain.Request {
	s.mu.Lock()
	pending := make([]domain.Request, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.waiting() {
			pending = append(pending, sess.request)
		}
	}
	s.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
	return pending
}

// finish performs the terminal transition plus everything that hangs
// off it: terminal slot release, event publish, metrics, delayed
// registry cleanup. Only the winning caller does any of that.
func (s *Service) finish(sess *session, state domain.State, decidedBy string) bool {
	now := time.Now()
	if !sess.resolve(state, decidedBy, now) {
		return false
	}

	request := sess.request

	s.mu.Lock()
	if s.byTerminal[request.TerminalID] == request.SessionID {
		delete(s.byTerminal, request.TerminalID)
	}
	s.mu.Unlock()

	time.AfterFunc(resolvedRetention, func() {
		s.mu.Lock()
		delete(s.sessions, request.SessionID)
		s.mu.Unlock()
	})

	_, outcome := sess.snapshot()
	s.hub.Publish(liveevents.TopicApprovals, liveevents.Event{
		Type: EventResolved,
		At:   now,
		Data: outcome,
	})

	waited := now.Sub(request.RequestedAt)
	if s.metrics != nil {
		s.metrics.RecordApprovalDecision(string(state), waited)
	}

	logFn := s.log.Info
	if state == domain.StateTimedOut {
		// Timeouts read as denials to the customer but are the signal
		// operations watches for unstaffed consoles.
		logFn = s.log.Warn
	}
	logFn("approval session resolved",
		zap.String("session_id", request.SessionID),
		zap.String("terminal_id", request.TerminalID),
		zap.String("state", string(state)),
		zap.String("decided_by", decidedBy),
		zap.Duration("waited", waited),
	)

	return true
}

func (s *Service) lookup(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[strings.TrimSpace(sessionID)]
}
