package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/orders"
	"github.com/hanifwib/lapakdigital/internal/redisx"
)

// Ledger adalah kontrak repo order yang dipakai handler; dipisah interface
// supaya handler bisa diuji tanpa Postgres.
type Ledger interface {
	CreateOrder(ctx context.Context, in orders.CheckoutInput) (orders.Order, error)
	SetQRISPayload(ctx context.Context, invoice, payload string) error
	MarkPaid(ctx context.Context, invoice string, tokenTTL time.Duration) (orders.PaidResult, error)
	Lookup(ctx context.Context, invoice string) (orders.Order, error)
	ListProducts(ctx context.Context) ([]orders.Product, error)
}

// PayloadGenerator: boundary ke qrisd (lihat internal/qris.Client).
type PayloadGenerator interface {
	Generate(ctx context.Context, base string, amount int64) (string, error)
}

// Publisher: sisi publish dari kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Ledger   Ledger
	QRIS     PayloadGenerator
	Producer Publisher
	Redis    *redis.Client
	Log      *zap.Logger

	Service        string
	BaseQR         string        // QRIS statis merchant — fallback saat qrisd down
	TokenTTL       time.Duration // TTL token download pasca pembayaran
	PendingTimeout time.Duration // dipakai utk menghitung deadline bayar di respons
}

type CheckoutResp struct {
	InvoiceNumber   string    `json:"invoice_number"`
	ProductName     string    `json:"product_name"`
	Price           int64     `json:"price"`
	UniqueCode      int       `json:"unique_code"`
	TotalAmount     int64     `json:"total_amount"`
	QRISPayload     string    `json:"qris_payload"`
	Status          string    `json:"status"`
	PaymentDeadline time.Time `json:"payment_deadline"`
}

type OrderStatusResp struct {
	InvoiceNumber string     `json:"invoice_number"`
	ProductName   string     `json:"product_name"`
	TotalAmount   int64      `json:"total_amount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type MarkPaidResp struct {
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	DownloadToken string     `json:"download_token,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.checkout)
	r.Get("/orders/{invoice}", h.getOrder)
	r.Post("/orders/{invoice}/paid", h.markPaid)
	r.Get("/products", h.listProducts)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr memetakan error kind -> HTTP. Error store yang tidak dikenal
// dilaporkan generik ke klien, detail lengkap masuk log.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, orders.ErrExpired):
		writeJSON(w, http.StatusGone, map[string]string{"error": "link expired"})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "service unavailable"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var in orders.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	in.BasePayload = h.BaseQR

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Ledger.CreateOrder(ctx, in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}

	// Payload dinamis best-effort. Order sudah tersimpan dengan base string;
	// qrisd down tidak boleh menggagalkan checkout (nominal tetap tersampaikan
	// di rincian respons).
	if payload, err := h.QRIS.Generate(ctx, h.BaseQR, o.TotalAmount); err == nil {
		if uerr := h.Ledger.SetQRISPayload(ctx, o.InvoiceNumber, payload); uerr != nil {
			h.Log.Warn("persist qris payload", zap.String("invoice", o.InvoiceNumber), zap.Error(uerr))
		}
		o.QRISPayload = payload
	} else {
		h.Log.Warn("qris generate, falling back to base string",
			zap.String("invoice", o.InvoiceNumber), zap.Error(err))
	}

	h.cacheStatus(ctx, o)

	writeJSON(w, http.StatusCreated, CheckoutResp{
		InvoiceNumber:   o.InvoiceNumber,
		ProductName:     o.ProductName,
		Price:           o.Price,
		UniqueCode:      o.UniqueCode,
		TotalAmount:     o.TotalAmount,
		QRISPayload:     o.QRISPayload,
		Status:          string(o.Status),
		PaymentDeadline: o.CreatedAt.Add(h.PendingTimeout),
	})
}

// markPaid: trigger konfirmasi pembayaran (webhook / aksi admin). Kontraknya
// idempotent — duplicate delivery menghasilkan respons sama tanpa token atau
// notifikasi kedua; CAS di DB yang menentukan siapa yang menang.
func (h *OrdersHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	invoice := chi.URLParam(r, "invoice")
	if invoice == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing invoice"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Ledger.MarkPaid(ctx, invoice, h.TokenTTL)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	o := res.Order

	if res.Issued {
		h.publishPaid(r, res)
	}

	h.cacheStatus(ctx, o)
	idemKey := fmt.Sprintf(redisx.KeyIdemPaid, o.InvoiceNumber)
	_ = h.Redis.Set(ctx, idemKey, "1", redisx.TTLIdemPaid).Err()

	resp := MarkPaidResp{InvoiceNumber: o.InvoiceNumber, Status: string(o.Status), PaidAt: o.PaidAt}
	if res.Token != nil {
		resp.DownloadToken = res.Token.Token
		resp.TokenExpires = &res.Token.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) publishPaid(r *http.Request, res orders.PaidResult) {
	o := res.Order
	payload := orders.OrderPaidPayload{
		InvoiceNumber: o.InvoiceNumber,
		ProductName:   o.ProductName,
		TotalAmount:   o.TotalAmount,
		BuyerEmail:    o.BuyerEmail,
		BuyerChatID:   o.BuyerChatID,
	}
	if o.PaidAt != nil {
		payload.PaidAt = *o.PaidAt
	}
	if res.Token != nil {
		payload.DownloadToken = res.Token.Token
		payload.TokenExpires = &res.Token.ExpiresAt
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.InvoiceNumber,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(orders.PartitionKey(o.InvoiceNumber), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPaid)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	invoice := orders.NormalizeInvoice(chi.URLParam(r, "invoice"))
	if invoice == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing invoice"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, invoice)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	// 2) fallback DB
	o, err := h.Ledger.Lookup(ctx, invoice)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	b, _ := json.Marshal(statusResp(o))
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Ledger.ListProducts(ctx)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.InvoiceNumber)
	b, _ := json.Marshal(statusResp(o))
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func statusResp(o orders.Order) OrderStatusResp {
	return OrderStatusResp{
		InvoiceNumber: o.InvoiceNumber,
		ProductName:   o.ProductName,
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}
