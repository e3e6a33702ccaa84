package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckoutInput struct {
	ProductID   string `json:"product_id"`
	Email       string `json:"email"`
	ChatID      string `json:"chat_id"`
	BasePayload string `json:"-"` // QRIS statis merchant; fallback kalau qrisd down
}

func (in CheckoutInput) Validate() error {
	if in.ProductID == "" {
		return fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if in.Email == "" && in.ChatID == "" {
		return fmt.Errorf("%w: email or chat_id required", ErrValidation)
	}
	return nil
}

type Repo struct{ DB *pgxpool.Pool }

// Maksimal redraw kode unik saat balapan dengan checkout lain.
const maxCreateAttempts = 5

const orderColumns = `invoice_number, product_id, product_name, price, unique_code,
	total_amount, buyer_email, buyer_chat_id, qris_payload, status, created_at, paid_at`

// CreateOrder: satu transaksi per percobaan — lock produk, validasi stok,
// tarik kode unik bebas-tabrakan terhadap order pending seharga, insert pending.
// Unique index parsial (price, unique_code) WHERE status='pending' jadi penjaga
// terakhir; kalau kena 23505 karena balapan, ulang dengan kode baru.
func (r *Repo) CreateOrder(ctx context.Context, in CheckoutInput) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}
	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		o, err := r.createOrderOnce(ctx, in)
		if err == nil {
			return o, nil
		}
		if !isUniqueViolation(err) {
			return Order{}, err
		}
		lastErr = err
	}
	return Order{}, fmt.Errorf("%w: unique code contention: %v", ErrUnavailable, lastErr)
}

func (r *Repo) createOrderOnce(ctx context.Context, in CheckoutInput) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p Product
	err = tx.QueryRow(ctx, `
		SELECT id, name, price, stock, digital, active
		FROM products WHERE id=$1 FOR UPDATE`, in.ProductID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Digital, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: product %s", ErrNotFound, in.ProductID)
	}
	if err != nil {
		return Order{}, err
	}
	if !p.Active {
		return Order{}, fmt.Errorf("%w: product inactive", ErrValidation)
	}
	// stok hanya mengikat produk fisik; produk digital tidak berkurang
	if !p.Digital {
		if p.Stock <= 0 {
			return Order{}, fmt.Errorf("%w: out of stock", ErrValidation)
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - 1 WHERE id=$1`, p.ID); err != nil {
			return Order{}, err
		}
	}

	// kode unik yang masih dipegang order pending seharga = terlarang
	rows, err := tx.Query(ctx, `
		SELECT unique_code FROM orders WHERE status='pending' AND price=$1`, p.Price)
	if err != nil {
		return Order{}, err
	}
	taken := map[int]bool{}
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return Order{}, err
		}
		taken[c] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	code, err := DrawUniqueCode(taken)
	if err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	o := Order{
		InvoiceNumber: NewInvoiceNumber(now),
		ProductID:     p.ID,
		ProductName:   p.Name,
		Price:         p.Price,
		UniqueCode:    code,
		TotalAmount:   p.Price + int64(code),
		BuyerEmail:    in.Email,
		BuyerChatID:   in.ChatID,
		QRISPayload:   in.BasePayload,
		Status:        StatusPending,
		CreatedAt:     now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (invoice_number, product_id, product_name, price, unique_code,
		                    total_amount, buyer_email, buyer_chat_id, qris_payload, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'pending',$10)`,
		o.InvoiceNumber, o.ProductID, o.ProductName, o.Price, o.UniqueCode,
		o.TotalAmount, o.BuyerEmail, o.BuyerChatID, o.QRISPayload, o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// SetQRISPayload: dipanggil best-effort setelah qrisd menghasilkan payload
// dinamis. Order sudah tersimpan dengan base string, jadi gagal di sini aman.
func (r *Repo) SetQRISPayload(ctx context.Context, invoice, payload string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET qris_payload=$2 WHERE invoice_number=$1 AND status='pending'`,
		NormalizeInvoice(invoice), payload)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", ErrNotFound, invoice)
	}
	return nil
}

type PaidResult struct {
	Order  Order
	Token  *DownloadToken
	Issued bool // true hanya saat transisi pending->paid yang menang CAS
}

// MarkPaid: transisi CAS pending->paid + terbit token download dalam SATU
// transaksi — crash di tengah tidak boleh meninggalkan order paid tanpa token.
// Dipanggil ulang untuk order yang sudah paid = no-op (toleran duplicate webhook).
func (r *Repo) MarkPaid(ctx context.Context, invoice string, tokenTTL time.Duration) (PaidResult, error) {
	norm := NormalizeInvoice(invoice)
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PaidResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status='paid', paid_at=now()
		WHERE invoice_number=$1 AND status='pending'
		RETURNING `+orderColumns, norm).
		Scan(orderFields(&o)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// CAS kalah: cek keadaan sebenarnya
		cur, lerr := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE invoice_number=$1`, norm))
		if errors.Is(lerr, pgx.ErrNoRows) {
			return PaidResult{}, fmt.Errorf("%w: order %s", ErrNotFound, invoice)
		}
		if lerr != nil {
			return PaidResult{}, lerr
		}
		if cur.Status == StatusPaid {
			return PaidResult{Order: cur}, nil // idempotent no-op
		}
		return PaidResult{}, fmt.Errorf("%w: order %s is %s", ErrConflict, invoice, cur.Status)
	}
	if err != nil {
		return PaidResult{}, err
	}

	res := PaidResult{Order: o, Issued: true}

	// token hanya untuk produk digital; order fisik cukup event + email invoice
	var digital bool
	if err := tx.QueryRow(ctx, `SELECT digital FROM products WHERE id=$1`, o.ProductID).
		Scan(&digital); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return PaidResult{}, err
	}
	if digital {
		tok, err := issueTokenTx(ctx, tx, AssetRef{Kind: AssetProduct, ID: o.ProductID}, tokenTTL)
		if err != nil {
			return PaidResult{}, err
		}
		res.Token = &tok
	}

	if err := tx.Commit(ctx); err != nil {
		return PaidResult{}, err
	}
	return res, nil
}

func (r *Repo) Lookup(ctx context.Context, invoice string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE invoice_number=$1`, NormalizeInvoice(invoice)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, invoice)
	}
	return o, err
}

// CancelStale: sweep untuk janji "bayar dalam 1 jam atau order dibatalkan".
// Satu transaksi: cancel semua pending kadaluarsa + kembalikan stok fisik.
func (r *Repo) CancelStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE orders SET status='cancelled'
		WHERE status='pending' AND created_at < $1
		RETURNING invoice_number, product_id`, cutoff)
	if err != nil {
		return nil, err
	}
	var invoices []string
	var productIDs []string
	for rows.Next() {
		var inv, pid string
		if err := rows.Scan(&inv, &pid); err != nil {
			rows.Close()
			return nil, err
		}
		invoices = append(invoices, inv)
		productIDs = append(productIDs, pid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + 1 WHERE id=$1 AND NOT digital`, pid); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price, stock, digital, file_path, external_url, active, download_count, created_at, updated_at
		FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Digital,
			&p.FilePath, &p.ExternalURL, &p.Active, &p.DownloadCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func orderFields(o *Order) []any {
	return []any{&o.InvoiceNumber, &o.ProductID, &o.ProductName, &o.Price, &o.UniqueCode,
		&o.TotalAmount, &o.BuyerEmail, &o.BuyerChatID, &o.QRISPayload, &o.Status, &o.CreatedAt, &o.PaidAt}
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(orderFields(&o)...)
	return o, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
