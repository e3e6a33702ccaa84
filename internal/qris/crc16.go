package qris

import (
	"fmt"
	"strings"
)

// CRC16 menghitung CRC-16-CCITT (init 0xFFFF, poli 0x1021) atas byte string
// payload, sesuai spesifikasi EMV QR yang dipakai QRIS.
func CRC16(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// BuildPayload menyisipkan nominal ke QRIS statis merchant: tag 54 (panjang
// dua digit + nominal), placeholder "6304", lalu CRC hex uppercase di ekor.
func BuildPayload(base string, amount int64) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base string required")
	}
	if amount < 1 {
		return "", fmt.Errorf("invalid amount")
	}
	amt := fmt.Sprintf("%d", amount)
	withAmount := fmt.Sprintf("%s54%02d%s6304", base, len(amt), amt)
	return fmt.Sprintf("%s%04X", withAmount, CRC16(withAmount)), nil
}

// Validate mengecek 4 karakter CRC di ekor payload terhadap hasil hitung ulang.
func Validate(payload string) (valid bool, provided, calculated string) {
	if len(payload) < 4 {
		return false, "", ""
	}
	provided = payload[len(payload)-4:]
	calculated = fmt.Sprintf("%04X", CRC16(payload[:len(payload)-4]))
	return strings.ToUpper(provided) == calculated, provided, calculated
}
