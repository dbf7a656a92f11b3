package pdf

import (
	"context"
	"io"
)

// Provider renders purchase paperwork. Kept behind an interface so
// handlers can be tested without a PDF engine.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type ReceiptItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

type ReceiptData struct {
	ReceiptNumber string
	IssuedAt      string

	OutletName    string
	OutletAddress string
	TerminalID    string

	CustomerName       string
	CustomerCredential string // pre-masked by the caller

	Items []ReceiptItem

	Units          string
	RemainingUnits string
	Total          string

	ApprovalNote string
}
