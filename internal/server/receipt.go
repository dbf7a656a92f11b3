package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safeguardhq/safeguard/internal/allowance"
	"github.com/safeguardhq/safeguard/internal/audit/masking"
	"github.com/safeguardhq/safeguard/internal/providers/pdf"
)

// GetReceiptPDF renders the printed receipt for a committed purchase.
// The credential on the paper copy is masked; the full value never
// leaves the customer record.
func (s *Server) GetReceiptPDF(c *gin.Context) {
	entry, err := s.ledgerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	customer, err := s.customerSvc.GetByID(c.Request.Context(), entry.CustomerID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.ReceiptData{
		ReceiptNumber: entry.ID.String(),
		IssuedAt:      entry.RecordedAt.Format("02 Jan 2006 15:04"),
		TerminalID:    entry.TerminalID,

		CustomerName:       customer.Name,
		CustomerCredential: masking.MaskCredential(customer.Credential),

		Items: []pdf.ReceiptItem{
			{
				Description: fmt.Sprintf("%s %.0fml %.1f%%", entry.ProductName, entry.VolumeML, entry.ABVPercent),
				Qty:         1,
				UnitPrice:   formatMinor(entry.AmountMinor, entry.Currency),
				Amount:      formatMinor(entry.AmountMinor, entry.Currency),
			},
		},

		Units: fmt.Sprintf("%.2f", entry.Units),
		Total: formatMinor(entry.AmountMinor, entry.Currency),
	}

	if slug := strings.TrimSpace(c.Query("outlet")); slug != "" {
		outlet, err := s.outletSvc.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		data.OutletName = outlet.Name
		data.OutletAddress = outlet.Address
	}

	consumed, err := s.ledgerSvc.UnitsConsumedToday(c.Request.Context(), entry.CustomerID)
	if err == nil {
		policy := s.policies.Get()
		data.RemainingUnits = fmt.Sprintf("%.2f", allowance.Remaining(policy.DailyUnitLimit, consumed))
	}

	if entry.ApprovalSessionID != "" {
		data.ApprovalNote = fmt.Sprintf("Manager approved, session %s", entry.ApprovalSessionID)
	}

	reader, err := s.pdfProvider.GenerateReceipt(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%s.pdf", entry.ID.String()))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func formatMinor(minor int64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, float64(minor)/100)
}
