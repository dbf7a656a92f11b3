package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	terminaldomain "github.com/safeguardhq/safeguard/internal/terminal/domain"
)

type identifyRequest struct {
	Credential string `json:"credential"`
}

func (s *Server) IdentifyCustomer(c *gin.Context) {
	tid := terminalID(c)
	if tid == "" {
		AbortWithError(c, newValidationError("X-Terminal-Id", "missing_terminal_id", "missing X-Terminal-Id header"))
		return
	}

	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.terminalSvc.Identify(c.Request.Context(), terminaldomain.IdentifyRequest{
		Credential: strings.TrimSpace(req.Credential),
		TerminalID: tid,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type purchaseRequest struct {
	CustomerID    string `json:"customer_id"`
	ProductID     string `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
}

// PurchaseProduct drives one attempt end to end. The request blocks
// while a manager review is pending, so the handler can hold the
// connection for up to the approval timeout.
func (s *Server) PurchaseProduct(c *gin.Context) {
	tid := terminalID(c)
	if tid == "" {
		AbortWithError(c, newValidationError("X-Terminal-Id", "missing_terminal_id", "missing X-Terminal-Id header"))
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	receipt, err := s.terminalSvc.Purchase(c.Request.Context(), terminaldomain.PurchaseRequest{
		CustomerID:    strings.TrimSpace(req.CustomerID),
		ProductID:     strings.TrimSpace(req.ProductID),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		TerminalID:    tid,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": receipt})
}
