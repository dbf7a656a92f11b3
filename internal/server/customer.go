package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
)

type createCustomerRequest struct {
	Credential string `json:"credential"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Phone      string `json:"phone"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Credential: strings.TrimSpace(req.Credential),
		Name:       strings.TrimSpace(req.Name),
		Age:        req.Age,
		Phone:      strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), auditdomain.ActionCustomerCreated, "customer", &targetID, map[string]any{
			"customer_id": resp.ID.String(),
			"name":        resp.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerPurchases(c *gin.Context) {
	customerID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	since, limit, err := historyWindow(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.ledgerSvc.ListByCustomer(c.Request.Context(), customerID, since, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) ListCustomerIncidents(c *gin.Context) {
	customerID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	since, _, err := historyWindow(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	incidents, err := s.incidentSvc.ListByCustomer(c.Request.Context(), customerID, since)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": incidents})
}

func parseSnowflakeParam(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	return id, nil
}

// historyWindow reads the shared ?days and ?limit query parameters used
// by the customer history endpoints.
func historyWindow(c *gin.Context) (time.Time, int, error) {
	days := 30
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			return time.Time{}, 0, newValidationError("days", "invalid_days", "days must be between 1 and 365")
		}
		days = parsed
	}

	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			return time.Time{}, 0, newValidationError("limit", "invalid_limit", "limit must be between 1 and 500")
		}
		limit = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	return since, limit, nil
}
