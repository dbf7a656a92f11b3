package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
)

func (s *Server) ListPendingApprovals(c *gin.Context) {
	pending := s.approvalSvc.Pending(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": pending})
}

type decisionRequest struct {
	Approved bool   `json:"approved"`
	Note     string `json:"note"`
}

func (s *Server) DecideApproval(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		AbortWithError(c, newValidationError("id", "invalid_session_id", "invalid session id"))
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	outcome, err := s.decideSession(c.Request.Context(), sessionID, req.Approved, s.actorID(c), req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcome})
}

// decideSession applies a manager decision and audits it. Shared by
// the REST endpoint and the console websocket.
func (s *Server) decideSession(ctx context.Context, sessionID string, approved bool, decidedBy, note string) (approvaldomain.Outcome, error) {
	outcome, err := s.approvalSvc.Decide(ctx, sessionID, approved, decidedBy)
	if err != nil {
		return approvaldomain.Outcome{}, err
	}

	if s.auditSvc != nil {
		targetID := outcome.SessionID
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionApprovalDecided, "approval_session", &targetID, map[string]any{
			"state":      string(outcome.State),
			"decided_by": outcome.DecidedBy,
			"note":       strings.TrimSpace(note),
		})
	}

	return outcome, nil
}
