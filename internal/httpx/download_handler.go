package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hanifwib/lapakdigital/internal/orders"
)

// TTL token attachment blog: 1 jam kalau pengunjung meninggalkan email,
// 24 jam untuk link anonim.
const (
	PostTokenTTLEmail = time.Hour
	PostTokenTTLAnon  = 24 * time.Hour
)

type TokenStore interface {
	IssueToken(ctx context.Context, ref orders.AssetRef, ttl time.Duration) (orders.DownloadToken, error)
	RedeemToken(ctx context.Context, token string) (orders.AssetGrant, error)
}

type DownloadHandler struct {
	Tokens        TokenStore
	Log           *zap.Logger
	PublicBaseURL string
}

func (h *DownloadHandler) Register(r *chi.Mux) {
	r.Get("/download/{token}", h.redeem)
	r.Post("/posts/{id}/download-link", h.issuePostLink)
}

// redeem: 410 utk link hangus (UI bisa render halaman "minta link baru"),
// 404 generik utk token tak dikenal. Sukses = redirect utk asset eksternal,
// stream utk file lokal.
func (h *DownloadHandler) redeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	grant, err := h.Tokens.RedeemToken(ctx, token)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}

	if grant.ExternalURL != "" {
		http.Redirect(w, r, grant.ExternalURL, http.StatusFound)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+grant.FileName+`"`)
	http.ServeFile(w, r, grant.FilePath)
}

type issuePostLinkReq struct {
	Email string `json:"email"`
}

type issuePostLinkResp struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *DownloadHandler) issuePostLink(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if postID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing post id"})
		return
	}
	var req issuePostLinkReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body opsional
	}
	ttl := PostTokenTTLAnon
	if req.Email != "" {
		ttl = PostTokenTTLEmail
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Tokens.IssueToken(ctx, orders.AssetRef{Kind: orders.AssetPost, ID: postID}, ttl)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, issuePostLinkResp{
		DownloadURL: h.PublicBaseURL + "/download/" + tok.Token,
		ExpiresAt:   tok.ExpiresAt,
	})
}
