package qris

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16KnownVector(t *testing.T) {
	// check value standar CRC-16/CCITT-FALSE
	assert.Equal(t, uint16(0x29B1), CRC16("123456789"))
}

func TestBuildPayloadInjectsAmountTag(t *testing.T) {
	base := "00020101021126570011ID.DANA.WWW011893600915312345678902"

	payload, err := BuildPayload(base, 50007)
	require.NoError(t, err)

	// tag 54: panjang dua digit + nominal, lalu placeholder CRC
	require.True(t, strings.HasPrefix(payload, base))
	assert.Contains(t, payload, "540550007")
	assert.Contains(t, payload, "6304")
	assert.Len(t, payload, len(base)+len("540550007")+len("6304")+4)

	// 4 karakter terakhir = CRC hex uppercase
	crc := payload[len(payload)-4:]
	assert.Equal(t, strings.ToUpper(crc), crc)
	assert.Equal(t, fmt.Sprintf("%04X", CRC16(payload[:len(payload)-4])), crc)
}

func TestBuildPayloadAmountLength(t *testing.T) {
	base := "000201"
	payload, err := BuildPayload(base, 7)
	require.NoError(t, err)
	assert.Contains(t, payload, "54017")

	payload, err = BuildPayload(base, 1500000)
	require.NoError(t, err)
	assert.Contains(t, payload, "54071500000")
}

func TestBuildPayloadRejectsBadInput(t *testing.T) {
	_, err := BuildPayload("", 1000)
	assert.Error(t, err)

	_, err = BuildPayload("000201", 0)
	assert.Error(t, err)

	_, err = BuildPayload("000201", -5)
	assert.Error(t, err)
}

func TestValidateRoundTrip(t *testing.T) {
	payload, err := BuildPayload("00020101021126570011ID.TEST", 125000)
	require.NoError(t, err)

	valid, provided, calculated := Validate(payload)
	assert.True(t, valid)
	assert.Equal(t, calculated, strings.ToUpper(provided))

	// payload diubah satu karakter -> CRC tidak cocok
	tampered := "X" + payload[1:]
	valid, _, _ = Validate(tampered)
	assert.False(t, valid)
}

func TestValidateTooShort(t *testing.T) {
	valid, _, _ := Validate("abc")
	assert.False(t, valid)
}
