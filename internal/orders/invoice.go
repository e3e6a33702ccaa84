package orders

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// NewInvoiceNumber: INV-YYYYMMDD-XXXXXX, sufiks random supaya aman dibuat
// concurrent tanpa counter terpusat.
func NewInvoiceNumber(now time.Time) string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return "INV-" + now.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(b))
}

// NormalizeInvoice: lookup case-insensitive, simpan/cari selalu uppercase.
func NormalizeInvoice(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
