package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "storefront-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // invoice number
	Payload       json.RawMessage `json:"payload"`
}

// OrderPaidPayload membawa semua yang dibutuhkan notifier untuk kirim
// invoice + link download, tanpa harus query balik ke DB.
type OrderPaidPayload struct {
	InvoiceNumber string     `json:"invoice_number"`
	ProductName   string     `json:"product_name"`
	TotalAmount   int64      `json:"total_amount"`
	BuyerEmail    string     `json:"buyer_email,omitempty"`
	BuyerChatID   string     `json:"buyer_chat_id,omitempty"`
	DownloadToken string     `json:"download_token,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
	PaidAt        time.Time  `json:"paid_at"`
}

type OrderCancelledPayload struct {
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"` // e.g. PAYMENT_TIMEOUT
}
