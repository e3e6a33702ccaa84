package notifier

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/orders"
	"github.com/hanifwib/lapakdigital/internal/redisx"
)

type fakeMailer struct {
	sent []struct{ To, Subject, Body string }
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent = append(f.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func newTestService(m *fakeMailer) *Service {
	return &Service{
		// Redis mati: dedup jadi best-effort, handler tetap harus jalan
		Redis:         redisx.New("127.0.0.1:1"),
		Mail:          m,
		Log:           zap.NewNop(),
		ServiceName:   "notifier-test",
		PublicBaseURL: "https://lapak.example.id",
	}
}

func paidEnvelope(p orders.OrderPaidPayload) kafkago.Message {
	ev := orders.Envelope{
		EventID:       "ev-1",
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "storefront-api",
		CorrelationID: p.InvoiceNumber,
		Payload:       kafkax.MustMarshal(p),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandlePaidSendsEmailWithLink(t *testing.T) {
	m := &fakeMailer{}
	svc := newTestService(m)

	exp := time.Now().UTC().Add(time.Hour)
	err := svc.HandlePaid(context.Background(), paidEnvelope(orders.OrderPaidPayload{
		InvoiceNumber: "INV-20260830-AB12CD",
		ProductName:   "E-book Belajar Go",
		TotalAmount:   50007,
		BuyerEmail:    "budi@example.id",
		DownloadToken: "deadbeef",
		TokenExpires:  &exp,
		PaidAt:        time.Now().UTC(),
	}))
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "budi@example.id", m.sent[0].To)
	assert.Contains(t, m.sent[0].Subject, "INV-20260830-AB12CD")
	assert.Contains(t, m.sent[0].Body, "https://lapak.example.id/download/deadbeef")
	assert.Contains(t, m.sent[0].Body, "50007")
}

func TestHandlePaidIgnoresOtherEvents(t *testing.T) {
	m := &fakeMailer{}
	svc := newTestService(m)

	ev := orders.Envelope{
		EventID:   "ev-2",
		EventType: orders.EventOrderCancelled,
		Payload:   kafkax.MustMarshal(orders.OrderCancelledPayload{InvoiceNumber: "INV-X"}),
	}
	err := svc.HandlePaid(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)})
	require.NoError(t, err)
	assert.Empty(t, m.sent)
}

func TestHandlePaidSkipsChatOnlyBuyer(t *testing.T) {
	m := &fakeMailer{}
	svc := newTestService(m)

	err := svc.HandlePaid(context.Background(), paidEnvelope(orders.OrderPaidPayload{
		InvoiceNumber: "INV-20260830-CHAT01",
		BuyerChatID:   "628123",
	}))
	require.NoError(t, err)
	assert.Empty(t, m.sent)
}

func TestHandlePaidBadJSON(t *testing.T) {
	svc := newTestService(&fakeMailer{})
	err := svc.HandlePaid(context.Background(), kafkago.Message{Value: []byte("bukan json")})
	assert.Error(t, err)
}

func TestBuildPaidEmailWithoutToken(t *testing.T) {
	// order fisik: invoice saja, tanpa link download
	subject, body := BuildPaidEmail("https://lapak.example.id", orders.OrderPaidPayload{
		InvoiceNumber: "INV-20260830-FISIK1",
		ProductName:   "Kaos Gopher",
		TotalAmount:   120500,
	})
	assert.Contains(t, subject, "INV-20260830-FISIK1")
	assert.Contains(t, body, "Kaos Gopher")
	assert.NotContains(t, body, "/download/")
}
