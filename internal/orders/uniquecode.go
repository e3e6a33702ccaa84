package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	UniqueCodeMin = 1
	UniqueCodeMax = 999
)

// DrawUniqueCode menarik kode unik [1,999] yang belum dipakai order pending
// lain dengan harga sama, supaya nominal transfer cukup untuk identifikasi
// pembayaran. Redraw sampai dapat; kalau seluruh ruang kode terpakai, nyerah.
func DrawUniqueCode(taken map[int]bool) (int, error) {
	space := UniqueCodeMax - UniqueCodeMin + 1
	if len(taken) >= space {
		return 0, fmt.Errorf("%w: unique code space exhausted", ErrUnavailable)
	}
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(space)))
		if err != nil {
			return 0, err
		}
		code := int(n.Int64()) + UniqueCodeMin
		if !taken[code] {
			return code, nil
		}
	}
}
