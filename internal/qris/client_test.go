package qris

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanifwib/lapakdigital/internal/orders"
)

func TestClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate-qris", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(50007), req.Amount)
		assert.Equal(t, "000201BASE", req.BaseString)

		payload, err := BuildPayload(req.BaseString, req.Amount)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(generateResponse{
			QRISString: payload, Amount: req.Amount, Success: true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Generate(context.Background(), "000201BASE", 50007)
	require.NoError(t, err)
	assert.Contains(t, got, "540550007")
}

func TestClientGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "000201", 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, orders.ErrUnavailable)
}

func TestClientGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // langsung tutup: simulasi service down

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "000201", 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, orders.ErrUnavailable)
}

func TestClientGenerateEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Success: false, Error: "invalid amount"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "000201", 1000)
	assert.ErrorIs(t, err, orders.ErrUnavailable)
}
