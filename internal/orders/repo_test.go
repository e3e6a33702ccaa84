package orders

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutInputValidate(t *testing.T) {
	assert.ErrorIs(t, CheckoutInput{}.Validate(), ErrValidation)
	assert.ErrorIs(t, CheckoutInput{ProductID: "p1"}.Validate(), ErrValidation)
	assert.NoError(t, CheckoutInput{ProductID: "p1", Email: "a@b.id"}.Validate())
	assert.NoError(t, CheckoutInput{ProductID: "p1", ChatID: "628123"}.Validate())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("random")))
}

func TestTokenExpiryBoundary(t *testing.T) {
	ttl := 60 * time.Minute
	issued := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	expires := issued.Add(ttl)

	// T-1 menit masih hidup, tepat T dan T+1 menit hangus
	assert.False(t, tokenExpired(expires.Add(-time.Minute), expires))
	assert.True(t, tokenExpired(expires, expires))
	assert.True(t, tokenExpired(expires.Add(time.Minute), expires))
}

func TestNewTokenStringEntropy(t *testing.T) {
	a := NewTokenString()
	b := NewTokenString()
	assert.Len(t, a, 64) // 32 byte hex = 256 bit
	assert.NotEqual(t, a, b)
}
