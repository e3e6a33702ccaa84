package qris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hanifwib/lapakdigital/internal/orders"
)

// Client memanggil service kalkulasi QRIS (cmd/qrisd) lewat HTTP. Boundary
// non-kritis: pemanggil wajib fallback ke base string kalau service down —
// checkout tidak boleh gagal gara-gara qrisd.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		// timeout pendek; lebih baik fallback daripada checkout ngegantung
		HTTP: &http.Client{Timeout: 3 * time.Second},
	}
}

type generateRequest struct {
	BaseString string `json:"base_string"`
	Amount     int64  `json:"amount"`
}

type generateResponse struct {
	QRISString string `json:"qris_string"`
	Amount     int64  `json:"amount"`
	CRC        string `json:"crc"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Generate minta payload dinamis untuk nominal tertentu. Error apa pun
// (network, non-2xx, body rusak) dibungkus ErrUnavailable.
func (c *Client) Generate(ctx context.Context, base string, amount int64) (string, error) {
	body, err := json.Marshal(generateRequest{BaseString: base, Amount: amount})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/generate-qris", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: qris service: %v", orders.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: qris service returned %d", orders.ErrUnavailable, resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: qris service: %v", orders.ErrUnavailable, err)
	}
	if out.QRISString == "" {
		return "", fmt.Errorf("%w: qris service: empty payload", orders.ErrUnavailable)
	}
	return out.QRISString, nil
}
