package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQRISRouter() http.Handler {
	r := NewRouter()
	(&QRISHandler{}).Register(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGenerateQRIS(t *testing.T) {
	w := postJSON(t, newQRISRouter(), "/generate-qris",
		`{"base_string":"00020101021126570011ID.TEST","amount":50007}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		QRISString string `json:"qris_string"`
		Amount     int64  `json:"amount"`
		CRC        string `json:"crc"`
		Success    bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(50007), resp.Amount)
	assert.Contains(t, resp.QRISString, "540550007")
	assert.Len(t, resp.CRC, 4)
	assert.Equal(t, resp.CRC, resp.QRISString[len(resp.QRISString)-4:])
}

func TestGenerateQRISBadInput(t *testing.T) {
	r := newQRISRouter()

	w := postJSON(t, r, "/generate-qris", `{"amount":50000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "base_string is required")

	w = postJSON(t, r, "/generate-qris", `{"base_string":"000201","amount":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid amount")

	w = postJSON(t, r, "/generate-qris", `tidak ada json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateQRISRoundTrip(t *testing.T) {
	r := newQRISRouter()

	w := postJSON(t, r, "/generate-qris", `{"base_string":"000201TEST","amount":125000}`)
	require.Equal(t, http.StatusOK, w.Code)
	var gen struct {
		QRISString string `json:"qris_string"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))

	body, _ := json.Marshal(map[string]string{"qris_string": gen.QRISString})
	w = postJSON(t, r, "/validate-qris", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	var val struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &val))
	assert.True(t, val.Valid)

	// rusak satu karakter di tengah -> invalid
	tampered := []byte(gen.QRISString)
	tampered[5] ^= 1
	body, _ = json.Marshal(map[string]string{"qris_string": string(tampered)})
	w = postJSON(t, r, "/validate-qris", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &val))
	assert.False(t, val.Valid)
}

func TestValidateQRISTooShort(t *testing.T) {
	w := postJSON(t, newQRISRouter(), "/validate-qris", `{"qris_string":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQRISHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newQRISRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qris-calculator")
}
