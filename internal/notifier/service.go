package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/mailer"
	"github.com/hanifwib/lapakdigital/internal/orders"
	"github.com/hanifwib/lapakdigital/internal/redisx"
)

// Service mengkonsumsi order.paid dan mengirim invoice + link download.
// Delivery best-effort: gagal kirim dicatat lalu offset tetap di-commit —
// state order/token yang sudah commit tidak pernah di-rollback dari sini.
type Service struct {
	Redis         *redis.Client
	Mail          mailer.Sender
	Log           *zap.Logger
	ServiceName   string
	PublicBaseURL string
}

// HandlePaid: dipasang sebagai handler consumer.
func (s *Service) HandlePaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPaid {
		return nil // ignore
	}

	// dedup via Redis pakai event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.BuyerEmail == "" {
		// pembeli via chat tanpa email; delivery sisi bot, bukan di sini
		return nil
	}

	subject, body := BuildPaidEmail(s.PublicBaseURL, p)
	if err := s.Mail.Send(p.BuyerEmail, subject, body); err != nil {
		s.Log.Warn("send paid invoice email",
			zap.String("invoice", p.InvoiceNumber), zap.Error(err))
	}
	return nil
}

// BuildPaidEmail menyusun subjek + badan email invoice lunas. Link download
// absolut dibangun dari public base URL.
func BuildPaidEmail(publicBaseURL string, p orders.OrderPaidPayload) (subject, body string) {
	subject = fmt.Sprintf("Pembayaran diterima — %s", p.InvoiceNumber)
	body = fmt.Sprintf(
		"Terima kasih! Pembayaran untuk %s sebesar Rp%d sudah kami terima.\n\nInvoice: %s\n",
		p.ProductName, p.TotalAmount, p.InvoiceNumber)
	if p.DownloadToken != "" {
		body += fmt.Sprintf("\nUnduh produk Anda di:\n%s/download/%s\n", publicBaseURL, p.DownloadToken)
		if p.TokenExpires != nil {
			body += fmt.Sprintf("\nLink berlaku sampai %s.\n", p.TokenExpires.Format("02 Jan 2006 15:04 MST"))
		}
	}
	return subject, body
}
