package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
)

type reportIncidentRequest struct {
	CustomerID  string `json:"customer_id"`
	OutletID    string `json:"outlet_id"`
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
	OccurredAt  string `json:"occurred_at"`
}

func (s *Server) ReportIncident(c *gin.Context) {
	var req reportIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var occurredAt time.Time
	if raw := strings.TrimSpace(req.OccurredAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("occurred_at", "invalid_occurred_at", "occurred_at must be RFC3339"))
			return
		}
		occurredAt = parsed
	}

	resp, err := s.incidentSvc.Report(c.Request.Context(), incidentdomain.ReportIncidentRequest{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		OutletID:    strings.TrimSpace(req.OutletID),
		Type:        incidentdomain.IncidentType(strings.TrimSpace(req.Type)),
		Severity:    req.Severity,
		Description: strings.TrimSpace(req.Description),
		ReportedBy:  s.actorID(c),
		OccurredAt:  occurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), auditdomain.ActionIncidentReported, "incident", &targetID, map[string]any{
			"customer_id": resp.CustomerID.String(),
			"type":        string(resp.Type),
			"severity":    resp.Severity,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
