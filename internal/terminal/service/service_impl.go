package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safeguardhq/safeguard/internal/allowance"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/config"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/liveevents"
	obsmetrics "github.com/safeguardhq/safeguard/internal/observability/metrics"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	"github.com/safeguardhq/safeguard/internal/ratelimit"
	riskdomain "github.com/safeguardhq/safeguard/internal/risk/domain"
	"github.com/safeguardhq/safeguard/internal/terminal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Policies *config.PolicyHolder

	Customers  customerdomain.Service
	Products   productdomain.Service
	Ledger     ledgerdomain.Service
	Classifier riskdomain.Classifier
	Router     riskdomain.Router
	Approvals  approvaldomain.Service
	Hub        *liveevents.Hub

	Audit   auditdomain.Service
	Limiter *ratelimit.TerminalLimiter `optional:"true"`
	Metrics *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	policies *config.PolicyHolder

	customers  customerdomain.Service
	products   productdomain.Service
	ledger     ledgerdomain.Service
	classifier riskdomain.Classifier
	router     riskdomain.Router
	approvals  approvaldomain.Service
	hub        *liveevents.Hub

	audit   auditdomain.Service
	limiter *ratelimit.TerminalLimiter
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("terminal.service"),
		clock:      p.Clock,
		policies:   p.Policies,
		customers:  p.Customers,
		products:   p.Products,
		ledger:     p.Ledger,
		classifier: p.Classifier,
		router:     p.Router,
		approvals:  p.Approvals,
		hub:        p.Hub,
		audit:      p.Audit,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
	}
}

func (s *Service) Identify(ctx context.Context, req domain.IdentifyRequest) (domain.IdentifyResponse, error) {
	if s.limiter.Enabled() {
		allowed, err := s.limiter.AllowIdentify(ctx, req.TerminalID)
		if err != nil {
			s.log.Warn("identify rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			if s.metrics != nil {
				s.metrics.RecordRateLimitDenied("identify")
			}
			return domain.IdentifyResponse{}, domain.ErrRateLimited
		}
	}

	customer, err := s.customers.FindByCredential(ctx, req.Credential)
	if err != nil {
		return domain.IdentifyResponse{}, err
	}
	if customer.Blocked {
		return domain.IdentifyResponse{}, customerdomain.ErrBlocked
	}

	assessment := s.assess(ctx, customer)

	policy := s.policies.Get()
	consumed, err := s.ledger.UnitsConsumedToday(ctx, customer.ID)
	if err != nil {
		return domain.IdentifyResponse{}, ledgerdomain.ErrStoreUnavailable
	}

	return domain.IdentifyResponse{
		CustomerID:     customer.ID.String(),
		Name:           customer.Name,
		RiskTier:       string(assessment.Tier),
		DailyLimit:     policy.DailyUnitLimit,
		ConsumedToday:  consumed,
		RemainingUnits: allowance.Remaining(policy.DailyUnitLimit, consumed),
	}, nil
}

func (s *Service) Purchase(ctx context.Context, req domain.PurchaseRequest) (domain.Receipt, error) {
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return domain.Receipt{}, err
	}
	// Blocked customers never reach the evaluator or the router.
	if customer.Blocked {
		s.recordOutcome("blocked")
		return domain.Receipt{}, customerdomain.ErrBlocked
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if !product.Active {
		return domain.Receipt{}, productdomain.ErrInactive
	}

	policy := s.policies.Get()
	units := product.Units()

	// Advisory check. The commit re-verifies under the customer lock;
	// this one exists so the customer hears "over limit" before any
	// manager gets involved.
	consumed, err := s.ledger.UnitsConsumedToday(ctx, customer.ID)
	if err != nil {
		return domain.Receipt{}, ledgerdomain.ErrStoreUnavailable
	}
	remaining := allowance.Remaining(policy.DailyUnitLimit, consumed)
	if !allowance.CanPurchase(remaining, units) {
		s.recordOutcome("allowance_exceeded")
		return domain.Receipt{}, ledgerdomain.ErrAllowanceExceeded
	}

	assessment := s.assess(ctx, customer)

	var approvalSessionID string
	if s.router.Route(assessment.Tier) == riskdomain.RouteManagerReview {
		approvalSessionID, err = s.awaitApproval(ctx, req, customer, product, assessment, units)
		if err != nil {
			return domain.Receipt{}, err
		}
	}

	entry, err := s.ledger.Record(ctx, ledgerdomain.RecordRequest{
		CustomerID:        customer.ID,
		TerminalID:        req.TerminalID,
		ProductID:         product.ID,
		ProductName:       product.Name,
		VolumeML:          product.VolumeML,
		ABVPercent:        product.ABVPercent,
		Units:             units,
		AmountMinor:       product.PriceMinor,
		Currency:          product.Currency,
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		ApprovalSessionID: approvalSessionID,
		RiskTier:          string(assessment.Tier),
		DailyLimit:        policy.DailyUnitLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledgerdomain.ErrAllowanceExceeded):
			s.recordOutcome("allowance_exceeded")
			return domain.Receipt{}, err
		case errors.Is(err, ledgerdomain.ErrCommitConflict):
			s.recordOutcome("commit_conflict")
			return domain.Receipt{}, err
		default:
			// Whatever happened below, the terminal only ever hears a
			// clean abort. A commit that failed is not a sale.
			s.recordOutcome("store_unavailable")
			s.log.Error("ledger commit failed",
				zap.String("customer_id", customer.ID.String()),
				zap.Error(err),
			)
			return domain.Receipt{}, ledgerdomain.ErrStoreUnavailable
		}
	}

	s.recordOutcome("committed")
	s.afterCommit(ctx, customer, entry, units)

	return domain.Receipt{
		EntryID:           entry.ID.String(),
		CustomerID:        customer.ID.String(),
		CustomerName:      customer.Name,
		ProductName:       product.Name,
		VolumeML:          product.VolumeML,
		ABVPercent:        product.ABVPercent,
		Units:             units,
		AmountMinor:       entry.AmountMinor,
		Currency:          entry.Currency,
		RemainingUnits:    allowance.Remaining(policy.DailyUnitLimit, consumed+units),
		ApprovalSessionID: approvalSessionID,
		RiskTier:          string(assessment.Tier),
		RecordedAt:        entry.RecordedAt,
		DisplaySeconds:    int(policy.ReceiptDisplayInterval.Seconds()),
	}, nil
}

// awaitApproval opens a session, suspends until it resolves, and maps
// every non-approved outcome to the attempt-terminal error taxonomy.
func (s *Service) awaitApproval(
	ctx context.Context,
	req domain.PurchaseRequest,
	customer customerdomain.Customer,
	product productdomain.Product,
	assessment riskdomain.Assessment,
	units float64,
) (string, error) {
	request, err := s.approvals.Open(ctx, approvaldomain.OpenRequest{
		TerminalID:     req.TerminalID,
		CustomerID:     customer.ID.String(),
		CustomerName:   customer.Name,
		RiskTier:       string(assessment.Tier),
		RiskScore:      assessment.Score,
		RiskFactors:    assessment.Factors,
		ProductSummary: fmt.Sprintf("%s %.0fml %.1f%%", product.Name, product.VolumeML, product.ABVPercent),
		Units:          units,
		AmountMinor:    product.PriceMinor,
	})
	if err != nil {
		if errors.Is(err, approvaldomain.ErrTerminalBusy) {
			return "", err
		}
		s.recordOutcome("channel_unavailable")
		return "", domain.ErrChannelUnavailable
	}

	outcome, err := s.approvals.Wait(ctx, request.SessionID)
	if err != nil {
		s.recordOutcome("channel_unavailable")
		return "", domain.ErrChannelUnavailable
	}

	switch outcome.State {
	case approvaldomain.StateApproved:
		return request.SessionID, nil
	case approvaldomain.StateDenied:
		s.recordOutcome("denied")
		s.auditDenied(ctx, customer, request.SessionID, "denied", outcome.DecidedBy)
		return "", domain.ErrApprovalDenied
	case approvaldomain.StateTimedOut:
		// A denial to the customer, but a distinct signal in the logs:
		// timeouts mean nobody is staffing the console.
		s.recordOutcome("timed_out")
		s.log.Warn("approval session timed out",
			zap.String("session_id", request.SessionID),
			zap.String("terminal_id", req.TerminalID),
			zap.String("customer_id", customer.ID.String()),
		)
		s.auditDenied(ctx, customer, request.SessionID, "timed_out", "")
		return "", domain.ErrSessionTimedOut
	default:
		s.recordOutcome("cancelled")
		return "", domain.ErrPurchaseCancelled
	}
}

// assess re-fetches the tier once per attempt. When the classifier is
// down the cached tier on the customer row is the fallback: gating must
// keep working through a scoring outage.
func (s *Service) assess(ctx context.Context, customer customerdomain.Customer) riskdomain.Assessment {
	assessment, err := s.classifier.TierOf(ctx, customer.ID)
	if err != nil {
		s.log.Warn("classifier unavailable, using cached tier",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
		tier, parseErr := riskdomain.ParseTier(customer.RiskTier)
		if parseErr != nil {
			tier = riskdomain.TierHigh
		}
		return riskdomain.Assessment{Score: customer.RiskScore, Tier: tier}
	}
	return assessment
}

func (s *Service) afterCommit(ctx context.Context, customer customerdomain.Customer, entry ledgerdomain.PurchaseEntry, units float64) {
	if err := s.customers.RecordPurchaseStats(ctx, customer.ID, units); err != nil {
		s.log.Warn("customer stats update failed",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	}

	entryID := entry.ID.String()
	_ = s.audit.AuditLog(ctx, auditdomain.ActionPurchaseCommitted, "purchase", &entryID, map[string]any{
		"customer_id":  customer.ID.String(),
		"product_name": entry.ProductName,
		"units":        entry.Units,
		"amount_minor": entry.AmountMinor,
		"risk_tier":    entry.RiskTier,
	})

	s.hub.Publish(liveevents.TopicPurchases, liveevents.Event{
		Type: "purchase_committed",
		At:   entry.RecordedAt,
		Data: entry,
	})
}

func (s *Service) auditDenied(ctx context.Context, customer customerdomain.Customer, sessionID, reason, decidedBy string) {
	_ = s.audit.AuditLog(ctx, auditdomain.ActionPurchaseDenied, "approval_session", &sessionID, map[string]any{
		"customer_id": customer.ID.String(),
		"reason":      reason,
		"decided_by":  decidedBy,
	})
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPurchaseOutcome(outcome)
	}
}
