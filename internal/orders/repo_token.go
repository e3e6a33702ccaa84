package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NewTokenString: 32 byte crypto/rand, hex — 256 bit, jauh di atas batas
// tebak-tebakan yang masuk akal.
func NewTokenString() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand gagal = proses tidak layak jalan
	}
	return hex.EncodeToString(b)
}

// IssueToken: varian standalone untuk download attachment blog; token pasca
// pembayaran diterbitkan lewat issueTokenTx di dalam transaksi MarkPaid.
func (r *Repo) IssueToken(ctx context.Context, ref AssetRef, ttl time.Duration) (DownloadToken, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return DownloadToken{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := assetExistsTx(ctx, tx, ref); err != nil {
		return DownloadToken{}, err
	}
	tok, err := issueTokenTx(ctx, tx, ref, ttl)
	if err != nil {
		return DownloadToken{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return DownloadToken{}, err
	}
	return tok, nil
}

func issueTokenTx(ctx context.Context, tx pgx.Tx, ref AssetRef, ttl time.Duration) (DownloadToken, error) {
	now := time.Now().UTC()
	tok := DownloadToken{
		ID:        uuid.NewString(),
		Token:     NewTokenString(),
		Asset:     ref,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO download_tokens (id, token, asset_kind, asset_id, expires_at, consumption_count, used, created_at)
		VALUES ($1,$2,$3,$4,$5,0,false,$6)`,
		tok.ID, tok.Token, tok.Asset.Kind, tok.Asset.ID, tok.ExpiresAt, tok.CreatedAt)
	if err != nil {
		return DownloadToken{}, err
	}
	return tok, nil
}

func assetExistsTx(ctx context.Context, tx pgx.Tx, ref AssetRef) error {
	var table string
	switch ref.Kind {
	case AssetProduct:
		table = "products"
	case AssetPost:
		table = "posts"
	default:
		return fmt.Errorf("%w: unknown asset kind %q", ErrValidation, ref.Kind)
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id=$1)`, ref.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s %s", ErrNotFound, ref.Kind, ref.ID)
	}
	return nil
}

// tokenExpired: batas tepat di expires_at ikut hangus (now >= expires_at).
func tokenExpired(now, expiresAt time.Time) bool {
	return !now.Before(expiresAt)
}

// RedeemToken menukar token dengan lokasi asset. Kebijakan: token tetap bisa
// dipakai ulang sampai expires_at; used + consumption_count dicatat sebagai
// audit, bukan gerbang. Expiry dicek lazy di sini — tidak ada purge aktif.
func (r *Repo) RedeemToken(ctx context.Context, token string) (AssetGrant, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AssetGrant{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		id        string
		ref       AssetRef
		expiresAt time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT id, asset_kind, asset_id, expires_at
		FROM download_tokens WHERE token=$1 FOR UPDATE`, token).
		Scan(&id, &ref.Kind, &ref.ID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AssetGrant{}, fmt.Errorf("%w: token", ErrNotFound)
	}
	if err != nil {
		return AssetGrant{}, err
	}
	if tokenExpired(time.Now().UTC(), expiresAt) {
		// token hangus: counter tidak boleh bergerak
		return AssetGrant{}, fmt.Errorf("%w: token", ErrExpired)
	}

	grant, err := resolveAssetTx(ctx, tx, ref)
	if err != nil {
		return AssetGrant{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE download_tokens SET consumption_count = consumption_count + 1, used = true
		WHERE id=$1`, id); err != nil {
		return AssetGrant{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return AssetGrant{}, err
	}
	return grant, nil
}

// resolveAssetTx: metadata (nama file, lokasi) diambil saat redeem, tapi
// identitas asset tetap yang tersimpan di token. Sekalian naikkan counter
// download per-asset untuk analitik.
func resolveAssetTx(ctx context.Context, tx pgx.Tx, ref AssetRef) (AssetGrant, error) {
	grant := AssetGrant{Asset: ref}
	var err error
	switch ref.Kind {
	case AssetProduct:
		err = tx.QueryRow(ctx, `
			UPDATE products SET download_count = download_count + 1
			WHERE id=$1 RETURNING file_path, external_url`, ref.ID).
			Scan(&grant.FilePath, &grant.ExternalURL)
	case AssetPost:
		err = tx.QueryRow(ctx, `
			UPDATE posts SET download_count = download_count + 1
			WHERE id=$1 RETURNING attachment_path, attachment_url`, ref.ID).
			Scan(&grant.FilePath, &grant.ExternalURL)
	default:
		return AssetGrant{}, fmt.Errorf("%w: unknown asset kind %q", ErrValidation, ref.Kind)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return AssetGrant{}, fmt.Errorf("%w: %s %s", ErrNotFound, ref.Kind, ref.ID)
	}
	if err != nil {
		return AssetGrant{}, err
	}
	if grant.FilePath == "" && grant.ExternalURL == "" {
		return AssetGrant{}, fmt.Errorf("%w: asset has no file", ErrNotFound)
	}
	if grant.FilePath != "" {
		grant.FileName = filepath.Base(grant.FilePath)
	}
	return grant, nil
}
