package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	approvalservice "github.com/safeguardhq/safeguard/internal/approval/service"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/config"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/liveevents"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	riskdomain "github.com/safeguardhq/safeguard/internal/risk/domain"
	"github.com/safeguardhq/safeguard/internal/terminal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type customersStub struct {
	customer   customerdomain.Customer
	err        error
	statsUnits []float64
}

func (s *customersStub) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	return customerdomain.Customer{}, errors.New("not implemented")
}

func (s *customersStub) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	return s.customer, s.err
}

func (s *customersStub) FindByCredential(ctx context.Context, credential string) (customerdomain.Customer, error) {
	return s.customer, s.err
}

func (s *customersStub) RecordPurchaseStats(ctx context.Context, id snowflake.ID, units float64) error {
	s.statsUnits = append(s.statsUnits, units)
	return nil
}

type productsStub struct {
	product productdomain.Product
	err     error
}

func (s *productsStub) Create(ctx context.Context, req productdomain.CreateProductRequest) (productdomain.Product, error) {
	return productdomain.Product{}, errors.New("not implemented")
}

func (s *productsStub) GetByID(ctx context.Context, id string) (productdomain.Product, error) {
	return s.product, s.err
}

func (s *productsStub) List(ctx context.Context) ([]productdomain.Product, error) {
	return []productdomain.Product{s.product}, nil
}

func (s *productsStub) Deactivate(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

type ledgerStub struct {
	consumed  float64
	sumErr    error
	recordErr error
	recorded  []ledgerdomain.RecordRequest
	nextEntry ledgerdomain.PurchaseEntry
}

func (s *ledgerStub) Record(ctx context.Context, req ledgerdomain.RecordRequest) (ledgerdomain.PurchaseEntry, error) {
	if s.recordErr != nil {
		return ledgerdomain.PurchaseEntry{}, s.recordErr
	}
	s.recorded = append(s.recorded, req)
	entry := s.nextEntry
	entry.CustomerID = req.CustomerID
	entry.ProductName = req.ProductName
	entry.Units = req.Units
	entry.AmountMinor = req.AmountMinor
	entry.Currency = req.Currency
	entry.ApprovalSessionID = req.ApprovalSessionID
	entry.RiskTier = req.RiskTier
	return entry, nil
}

func (s *ledgerStub) GetByID(ctx context.Context, id string) (ledgerdomain.PurchaseEntry, error) {
	return ledgerdomain.PurchaseEntry{}, ledgerdomain.ErrNotFound
}

func (s *ledgerStub) UnitsConsumedToday(ctx context.Context, customerID snowflake.ID) (float64, error) {
	return s.consumed, s.sumErr
}

func (s *ledgerStub) UnitsConsumedSince(ctx context.Context, customerID snowflake.ID, since time.Time) (float64, error) {
	return s.consumed, s.sumErr
}

func (s *ledgerStub) ListByCustomer(ctx context.Context, customerID snowflake.ID, since time.Time, limit int) ([]ledgerdomain.PurchaseEntry, error) {
	return nil, nil
}

func (s *ledgerStub) CountByCustomerSince(ctx context.Context, customerID snowflake.ID, since time.Time) (int64, error) {
	return 0, nil
}

func (s *ledgerStub) ListRecent(ctx context.Context, limit int) ([]ledgerdomain.PurchaseEntry, error) {
	return nil, nil
}

type classifierStub struct {
	assessment riskdomain.Assessment
	err        error
	calls      int
}

func (s *classifierStub) TierOf(ctx context.Context, customerID snowflake.ID) (riskdomain.Assessment, error) {
	s.calls++
	return s.assessment, s.err
}

type auditStub struct {
	actions []string
}

func (s *auditStub) AuditLog(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error {
	s.actions = append(s.actions, action)
	return nil
}

func (s *auditStub) List(ctx context.Context, filter auditdomain.ListFilter) ([]auditdomain.AuditLog, error) {
	return nil, nil
}

type fixture struct {
	svc        domain.Service
	customers  *customersStub
	products   *productsStub
	ledger     *ledgerStub
	classifier *classifierStub
	approvals  approvaldomain.Service
	audit      *auditStub
	hub        *liveevents.Hub
}

func newFixture(t *testing.T, approvalTimeout time.Duration) *fixture {
	t.Helper()

	policy := config.DefaultPolicy()
	policy.ApprovalTimeout = approvalTimeout
	holder := config.StaticPolicyHolder(policy)
	hub := liveevents.NewHub()

	customers := &customersStub{customer: customerdomain.Customer{
		ID:       snowflake.ID(1001),
		Name:     "Ravi Kumar",
		Age:      34,
		RiskTier: "low",
	}}
	products := &productsStub{product: productdomain.Product{
		ID:         snowflake.ID(42),
		SKU:        "KF-650",
		Name:       "Kingfisher Premium",
		VolumeML:   650,
		ABVPercent: 5,
		PriceMinor: 16000,
		Currency:   "INR",
		Active:     true,
	}}
	ledger := &ledgerStub{nextEntry: ledgerdomain.PurchaseEntry{
		ID:         snowflake.ID(9001),
		RecordedAt: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}}
	classifier := &classifierStub{assessment: riskdomain.Assessment{Score: 10, Tier: riskdomain.TierLow}}
	audit := &auditStub{}

	approvals := approvalservice.New(approvalservice.Params{
		Log:      zap.NewNop(),
		Policies: holder,
		Hub:      hub,
	})

	svc := New(Params{
		Log:        zap.NewNop(),
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)),
		Policies:   holder,
		Customers:  customers,
		Products:   products,
		Ledger:     ledger,
		Classifier: classifier,
		Router:     routerFromPolicy(holder),
		Approvals:  approvals,
		Hub:        hub,
		Audit:      audit,
	})

	return &fixture{
		svc:        svc,
		customers:  customers,
		products:   products,
		ledger:     ledger,
		classifier: classifier,
		approvals:  approvals,
		audit:      audit,
		hub:        hub,
	}
}

type policyRouter struct {
	holder *config.PolicyHolder
}

func routerFromPolicy(holder *config.PolicyHolder) riskdomain.Router {
	return &policyRouter{holder: holder}
}

func (r *policyRouter) Route(tier riskdomain.Tier) riskdomain.Route {
	if r.holder.Get().Routing[string(tier)] == "auto" {
		return riskdomain.RouteAuto
	}
	return riskdomain.RouteManagerReview
}

func purchaseReq() domain.PurchaseRequest {
	return domain.PurchaseRequest{
		CustomerID:    "1001",
		ProductID:     "42",
		PaymentMethod: "upi",
		TerminalID:    "T-1",
	}
}

func TestPurchaseAutoApproved(t *testing.T) {
	f := newFixture(t, time.Minute)

	receipt, err := f.svc.Purchase(context.Background(), purchaseReq())
	require.NoError(t, err)

	assert.Equal(t, "Kingfisher Premium", receipt.ProductName)
	assert.InDelta(t, 3.25, receipt.Units, 1e-9)
	assert.InDelta(t, 1.75, receipt.RemainingUnits, 1e-9)
	assert.Empty(t, receipt.ApprovalSessionID)
	assert.Equal(t, 15, receipt.DisplaySeconds)

	require.Len(t, f.ledger.recorded, 1)
	assert.InDelta(t, 5.0, f.ledger.recorded[0].DailyLimit, 1e-9)
	assert.Equal(t, 1, f.classifier.calls)
	assert.Equal(t, []float64{3.25}, f.customers.statsUnits)
	assert.Contains(t, f.audit.actions, auditdomain.ActionPurchaseCommitted)
}

func TestPurchaseBlockedCustomer(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.customers.customer.Blocked = true

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, customerdomain.ErrBlocked)
	// Blocked short-circuits before classification or gating.
	assert.Zero(t, f.classifier.calls)
	assert.Empty(t, f.ledger.recorded)
}

func TestPurchaseAllowanceExceededBeforeApproval(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.ledger.consumed = 4.5 // 0.5 remaining, product needs 3.25
	f.classifier.assessment = riskdomain.Assessment{Score: 85, Tier: riskdomain.TierHigh}

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, ledgerdomain.ErrAllowanceExceeded)

	// Over-limit attempts never open an approval session.
	assert.Empty(t, f.approvals.Pending(context.Background()))
	assert.Empty(t, f.ledger.recorded)
}

func TestPurchaseHighTierApproved(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.classifier.assessment = riskdomain.Assessment{Score: 85, Tier: riskdomain.TierHigh}

	sub, _, err := f.hub.Subscribe(liveevents.TopicApprovals)
	require.NoError(t, err)
	defer sub.Close()

	go func() {
		for event := range sub.Events() {
			if event.Type != approvalservice.EventRequested {
				continue
			}
			request := event.Data.(approvaldomain.Request)
			_, _ = f.approvals.Decide(context.Background(), request.SessionID, true, "mgr-7")
			return
		}
	}()

	receipt, err := f.svc.Purchase(context.Background(), purchaseReq())
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ApprovalSessionID)

	require.Len(t, f.ledger.recorded, 1)
	assert.Equal(t, receipt.ApprovalSessionID, f.ledger.recorded[0].ApprovalSessionID)
	assert.Equal(t, "high", f.ledger.recorded[0].RiskTier)
}

func TestPurchaseHighTierDenied(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.classifier.assessment = riskdomain.Assessment{Score: 85, Tier: riskdomain.TierHigh}

	sub, _, err := f.hub.Subscribe(liveevents.TopicApprovals)
	require.NoError(t, err)
	defer sub.Close()

	go func() {
		for event := range sub.Events() {
			if event.Type != approvalservice.EventRequested {
				continue
			}
			request := event.Data.(approvaldomain.Request)
			_, _ = f.approvals.Decide(context.Background(), request.SessionID, false, "mgr-7")
			return
		}
	}()

	_, err = f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, domain.ErrApprovalDenied)
	assert.Empty(t, f.ledger.recorded)
	assert.Contains(t, f.audit.actions, auditdomain.ActionPurchaseDenied)
}

func TestPurchaseHighTierTimesOut(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.classifier.assessment = riskdomain.Assessment{Score: 85, Tier: riskdomain.TierHigh}

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, domain.ErrSessionTimedOut)
	assert.Empty(t, f.ledger.recorded)
}

func TestPurchaseClassifierOutageFallsBackToCachedTier(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.classifier.err = errors.New("classifier down")
	f.customers.customer.RiskTier = "medium"

	receipt, err := f.svc.Purchase(context.Background(), purchaseReq())
	require.NoError(t, err)
	assert.Equal(t, "medium", receipt.RiskTier)
}

func TestPurchaseClassifierOutageUnknownCacheFailsClosed(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.classifier.err = errors.New("classifier down")
	f.customers.customer.RiskTier = ""

	// No usable tier at all: the attempt is routed to manager review,
	// which times out here because nobody decides.
	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, domain.ErrSessionTimedOut)
}

func TestPurchaseStoreFailureIsCleanAbort(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.ledger.recordErr = errors.New("disk on fire")

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, ledgerdomain.ErrStoreUnavailable)
}

func TestPurchaseCommitRecheckRejection(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.ledger.recordErr = ledgerdomain.ErrAllowanceExceeded

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, ledgerdomain.ErrAllowanceExceeded)
}

func TestPurchaseInactiveProduct(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.products.product.Active = false

	_, err := f.svc.Purchase(context.Background(), purchaseReq())
	assert.ErrorIs(t, err, productdomain.ErrInactive)
}

func TestIdentifyReturnsAllowance(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.ledger.consumed = 3.25

	resp, err := f.svc.Identify(context.Background(), domain.IdentifyRequest{
		Credential: "TN-XX-1234",
		TerminalID: "T-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", resp.Name)
	assert.InDelta(t, 5, resp.DailyLimit, 1e-9)
	assert.InDelta(t, 1.75, resp.RemainingUnits, 1e-9)
	assert.Equal(t, "low", resp.RiskTier)
}

func TestIdentifyBlockedCustomer(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.customers.customer.Blocked = true

	_, err := f.svc.Identify(context.Background(), domain.IdentifyRequest{
		Credential: "TN-XX-1234",
		TerminalID: "T-1",
	})
	assert.ErrorIs(t, err, customerdomain.ErrBlocked)
}
