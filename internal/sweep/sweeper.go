package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/orders"
)

// StaleCanceller: potongan repo yang dibutuhkan sweeper.
type StaleCanceller interface {
	CancelStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Sweeper menepati janji ke pembeli: order pending yang lewat batas bayar
// di-cancel otomatis + stok fisik dikembalikan. Jalan periodik, bukan timer
// per-order.
type Sweeper struct {
	Repo     StaleCanceller
	MaxAge   time.Duration
	Every    time.Duration
	Producer Publisher // publish order.cancelled, boleh nil
	Service  string
	Log      *zap.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	invoices, err := s.Repo.CancelStale(cctx, s.MaxAge)
	if err != nil {
		s.Log.Error("cancel stale orders", zap.Error(err))
		return
	}
	if len(invoices) == 0 {
		return
	}
	s.Log.Info("cancelled stale orders", zap.Int("count", len(invoices)), zap.Strings("invoices", invoices))

	if s.Producer == nil {
		return
	}
	for _, inv := range invoices {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderCancelled,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      s.Service,
			CorrelationID: inv,
			Payload: kafkax.MustMarshal(orders.OrderCancelledPayload{
				InvoiceNumber: inv,
				Reason:        "PAYMENT_TIMEOUT",
			}),
		}
		s.Producer.Publish(orders.PartitionKey(inv), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCancelled)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
}
