package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoiceNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	inv := NewInvoiceNumber(now)

	assert.True(t, strings.HasPrefix(inv, "INV-20260830-"))
	assert.Len(t, inv, len("INV-20260830-")+6)
	assert.Equal(t, strings.ToUpper(inv), inv)
}

func TestNewInvoiceNumberVaries(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[NewInvoiceNumber(now)] = true
	}
	// sufiks random — tabrakan di 50 draw praktis mustahil
	assert.Greater(t, len(seen), 45)
}

func TestNormalizeInvoice(t *testing.T) {
	assert.Equal(t, "INV-20260830-AB12CD", NormalizeInvoice("inv-20260830-ab12cd"))
	assert.Equal(t, "INV-20260830-AB12CD", NormalizeInvoice("  INV-20260830-AB12CD\n"))
}
