package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanifwib/lapakdigital/internal/qris"
)

// QRISHandler adalah sisi server dari service kalkulasi QRIS (cmd/qrisd).
// Bentuk request/respons mengikuti kontrak lama service ini supaya klien
// eksisting tidak perlu berubah.
type QRISHandler struct{}

func (h *QRISHandler) Register(r *chi.Mux) {
	r.Post("/generate-qris", h.generate)
	r.Post("/validate-qris", h.validate)
	r.Get("/health", h.health)
}

type generateReq struct {
	BaseString string `json:"base_string"`
	Amount     int64  `json:"amount"`
}

type validateReq struct {
	QRISString string `json:"qris_string"`
}

func (h *QRISHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "qris-calculator"})
}

func (h *QRISHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no data provided"})
		return
	}
	if req.BaseString == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "base_string is required"})
		return
	}
	if req.Amount < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	payload, err := qris.BuildPayload(req.BaseString, req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"qris_string": payload,
		"amount":      req.Amount,
		"crc":         payload[len(payload)-4:],
		"success":     true,
	})
}

func (h *QRISHandler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no data provided"})
		return
	}
	if len(req.QRISString) < 4 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid QRIS string"})
		return
	}
	valid, provided, calculated := qris.Validate(req.QRISString)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":          valid,
		"provided_crc":   provided,
		"calculated_crc": calculated,
	})
}
