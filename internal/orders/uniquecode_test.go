package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawUniqueCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := DrawUniqueCode(nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, UniqueCodeMin)
		assert.LessOrEqual(t, code, UniqueCodeMax)
	}
}

func TestDrawUniqueCodeAvoidsTaken(t *testing.T) {
	// semua kode terpakai kecuali satu — draw harus menemukannya
	taken := map[int]bool{}
	for c := UniqueCodeMin; c <= UniqueCodeMax; c++ {
		taken[c] = true
	}
	delete(taken, 417)

	code, err := DrawUniqueCode(taken)
	require.NoError(t, err)
	assert.Equal(t, 417, code)
}

func TestDrawUniqueCodeExhausted(t *testing.T) {
	taken := map[int]bool{}
	for c := UniqueCodeMin; c <= UniqueCodeMax; c++ {
		taken[c] = true
	}
	_, err := DrawUniqueCode(taken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
