package redisx

import "time"

const (
	// Cache status order utk lookup cepat: order_status:{invoice} -> json
	KeyOrderStatus = "order_status:%s"

	// Dedup pemrosesan event: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Shortcut idempotensi webhook pembayaran: idem:order:paid:{invoice}
	// (kebenaran tetap di DB lewat CAS; ini cuma peredam duplicate delivery)
	KeyIdemPaid = "idem:order:paid:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLIdemPaid    = 24 * time.Hour
)
