package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	"github.com/safeguardhq/safeguard/internal/authorization"
	"github.com/safeguardhq/safeguard/internal/config"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	terminaldomain "github.com/safeguardhq/safeguard/internal/terminal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTerminalService struct {
	identifyResp terminaldomain.IdentifyResponse
	identifyErr  error
	purchaseResp terminaldomain.Receipt
	purchaseErr  error

	lastIdentify terminaldomain.IdentifyRequest
	lastPurchase terminaldomain.PurchaseRequest
}

func (f *fakeTerminalService) Identify(ctx context.Context, req terminaldomain.IdentifyRequest) (terminaldomain.IdentifyResponse, error) {
	f.lastIdentify = req
	return f.identifyResp, f.identifyErr
}

func (f *fakeTerminalService) Purchase(ctx context.Context, req terminaldomain.PurchaseRequest) (terminaldomain.Receipt, error) {
	f.lastPurchase = req
	return f.purchaseResp, f.purchaseErr
}

type fakeApprovalService struct {
	pending    []approvaldomain.Request
	outcome    approvaldomain.Outcome
	decideErr  error
	lastDecide string
}

func (f *fakeApprovalService) Open(ctx context.Context, req approvaldomain.OpenRequest) (approvaldomain.Request, error) {
	return approvaldomain.Request{}, nil
}

func (f *fakeApprovalService) Wait(ctx context.Context, sessionID string) (approvaldomain.Outcome, error) {
	return f.outcome, nil
}

func (f *fakeApprovalService) Decide(ctx context.Context, sessionID string, approved bool, decidedBy string) (approvaldomain.Outcome, error) {
	f.lastDecide = sessionID
	if f.decideErr != nil {
		return approvaldomain.Outcome{}, f.decideErr
	}
	return f.outcome, nil
}

func (f *fakeApprovalService) Cancel(ctx context.Context, sessionID string) error {
	return nil
}

func (f *fakeApprovalService) Pending(ctx context.Context) []approvaldomain.Request {
	return f.pending
}

// allowAllAuthz approves everything; denyAuthz rejects everything.
type allowAllAuthz struct{}

func (allowAllAuthz) Authorize(ctx context.Context, role, object, action string) error {
	return nil
}

type denyAuthz struct{}

func (denyAuthz) Authorize(ctx context.Context, role, object, action string) error {
	return authorization.ErrForbidden
}

func newTestServer(t *testing.T, authz authorization.Service) (*Server, *fakeTerminalService, *fakeApprovalService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	terminalSvc := &fakeTerminalService{}
	approvalSvc := &fakeApprovalService{}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine: engine,
		cfg: config.Config{
			TerminalKey: "terminal-key",
			ManagerKey:  "manager-key",
			AdminKey:    "admin-key",
		},
		log:         zap.NewNop(),
		authzSvc:    authz,
		terminalSvc: terminalSvc,
		approvalSvc: approvalSvc,
	}
	srv.registerTerminalRoutes()
	srv.registerManagerRoutes()

	return srv, terminalSvc, approvalSvc
}

func doJSON(srv *Server, method, path, key, terminalID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if terminalID != "" {
		req.Header.Set("X-Terminal-Id", terminalID)
	}
	resp := httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	return resp
}

func TestKeyAuthRejectsMissingAndUnknownKeys(t *testing.T) {
	srv, _, _ := newTestServer(t, allowAllAuthz{})

	resp := doJSON(srv, http.MethodPost, "/api/terminal/identify", "", "T-01", `{"credential":"CUST-2024-1001"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(srv, http.MethodPost, "/api/terminal/identify", "wrong-key", "T-01", `{"credential":"CUST-2024-1001"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestKeyAuthDeniedByPolicy(t *testing.T) {
	srv, _, _ := newTestServer(t, denyAuthz{})

	resp := doJSON(srv, http.MethodPost, "/api/terminal/identify", "terminal-key", "T-01", `{"credential":"CUST-2024-1001"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestIdentifyRequiresTerminalHeader(t *testing.T) {
	srv, terminalSvc, _ := newTestServer(t, allowAllAuthz{})

	resp := doJSON(srv, http.MethodPost, "/api/terminal/identify", "terminal-key", "", `{"credential":"CUST-2024-1001"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, terminalSvc.lastIdentify.Credential)
}

func TestIdentifyPassesTerminalAndCredential(t *testing.T) {
	srv, terminalSvc, _ := newTestServer(t, allowAllAuthz{})
	terminalSvc.identifyResp = terminaldomain.IdentifyResponse{
		CustomerID:     "1001",
		Name:           "Ravi Kumar",
		RiskTier:       "low",
		DailyLimit:     5,
		RemainingUnits: 5,
	}

	resp := doJSON(srv, http.MethodPost, "/api/terminal/identify", "terminal-key", "T-01", `{"credential":" CUST-2024-1001 "}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "CUST-2024-1001", terminalSvc.lastIdentify.Credential)
	assert.Equal(t, "T-01", terminalSvc.lastIdentify.TerminalID)

	var payload struct {
		Data terminaldomain.IdentifyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "Ravi Kumar", payload.Data.Name)
}

func TestPurchaseMapsGateOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"allowance exceeded", ledgerdomain.ErrAllowanceExceeded, http.StatusConflict, "allowance_exceeded"},
		{"denied by manager", terminaldomain.ErrApprovalDenied, http.StatusForbidden, "purchase_rejected"},
		{"approval timed out", terminaldomain.ErrSessionTimedOut, http.StatusForbidden, "purchase_rejected"},
		{"rate limited", terminaldomain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"terminal busy", approvaldomain.ErrTerminalBusy, http.StatusConflict, "conflict"},
		{"store down", ledgerdomain.ErrStoreUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, terminalSvc, _ := newTestServer(t, allowAllAuthz{})
			terminalSvc.purchaseErr = tc.err

			resp := doJSON(srv, http.MethodPost, "/api/terminal/purchase", "terminal-key", "T-01",
				`{"customer_id":"1001","product_id":"2002","payment_method":"cash"}`)
			require.Equal(t, tc.wantStatus, resp.Code)

			var payload errorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantType, payload.Error.Type)
		})
	}
}

func TestPurchaseReturnsReceipt(t *testing.T) {
	srv, terminalSvc, _ := newTestServer(t, allowAllAuthz{})
	terminalSvc.purchaseResp = terminaldomain.Receipt{
		EntryID:        "42",
		CustomerName:   "Ravi Kumar",
		ProductName:    "Kingfisher Beer",
		Units:          3.25,
		RemainingUnits: 1.75,
		RecordedAt:     time.Now().UTC(),
		DisplaySeconds: 15,
	}

	resp := doJSON(srv, http.MethodPost, "/api/terminal/purchase", "terminal-key", "T-01",
		`{"customer_id":"1001","product_id":"2002","payment_method":"cash"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Data terminaldomain.Receipt `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "Kingfisher Beer", payload.Data.ProductName)
	assert.InDelta(t, 1.75, payload.Data.RemainingUnits, 1e-9)
	assert.Equal(t, "T-01", terminalSvc.lastPurchase.TerminalID)
}

func TestListPendingApprovals(t *testing.T) {
	srv, _, approvalSvc := newTestServer(t, allowAllAuthz{})
	approvalSvc.pending = []approvaldomain.Request{
		{SessionID: "sess-1", TerminalID: "T-01", CustomerName: "Ravi Kumar"},
	}

	resp := doJSON(srv, http.MethodGet, "/api/approvals/pending", "manager-key", "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Data []approvaldomain.Request `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "sess-1", payload.Data[0].SessionID)
}

func TestDecideApproval(t *testing.T) {
	srv, _, approvalSvc := newTestServer(t, allowAllAuthz{})
	approvalSvc.outcome = approvaldomain.Outcome{
		SessionID: "sess-1",
		State:     approvaldomain.StateApproved,
		DecidedBy: "manager",
	}

	resp := doJSON(srv, http.MethodPost, "/api/approvals/sess-1/decision", "manager-key", "", `{"approved":true}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "sess-1", approvalSvc.lastDecide)

	var payload struct {
		Data approvaldomain.Outcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, approvaldomain.StateApproved, payload.Data.State)
}

func TestDecideApprovalLateDecisionConflicts(t *testing.T) {
	srv, _, approvalSvc := newTestServer(t, allowAllAuthz{})
	approvalSvc.decideErr = approvaldomain.ErrAlreadyResolved

	resp := doJSON(srv, http.MethodPost, "/api/approvals/sess-1/decision", "manager-key", "", `{"approved":true}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestDecideApprovalUnknownSession(t *testing.T) {
	srv, _, approvalSvc := newTestServer(t, allowAllAuthz{})
	approvalSvc.decideErr = approvaldomain.ErrNotFound

	resp := doJSON(srv, http.MethodPost, "/api/approvals/nope/decision", "manager-key", "", `{"approved":false}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
