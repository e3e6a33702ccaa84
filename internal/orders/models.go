package orders

import "time"

type Product struct {
	ID            string
	Name          string
	Price         int64 // satuan terkecil (rupiah)
	Stock         int
	Digital       bool
	FilePath      string // salah satu dari FilePath/ExternalURL, tidak dua-duanya
	ExternalURL   string
	Active        bool
	DownloadCount int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasAsset: produk digital boleh belum punya asset (belum di-upload).
func (p Product) HasAsset() bool { return p.FilePath != "" || p.ExternalURL != "" }

type Order struct {
	InvoiceNumber string
	ProductID     string
	// snapshot saat checkout; edit produk setelahnya tidak mengubah riwayat
	ProductName string
	Price       int64
	UniqueCode  int
	TotalAmount int64 // selalu = Price + UniqueCode
	BuyerEmail  string
	BuyerChatID string
	QRISPayload string
	Status      Status
	CreatedAt   time.Time
	PaidAt      *time.Time
}

type AssetKind string

const (
	AssetProduct AssetKind = "product"
	AssetPost    AssetKind = "post"
)

// AssetRef mengikat token ke satu asset. Binding di-set saat issue dan tidak
// di-resolve ulang by name: ganti attachment setelah token terbit tidak boleh
// membuat token lama menyajikan konten baru.
type AssetRef struct {
	Kind AssetKind
	ID   string
}

type DownloadToken struct {
	ID               string
	Token            string // hex, 256 bit dari crypto/rand
	Asset            AssetRef
	ExpiresAt        time.Time
	ConsumptionCount int
	Used             bool
	CreatedAt        time.Time
}

// AssetGrant: hasil redeem. Lokasi & nama file di-resolve saat redeem,
// identitas asset tetap dari saat issue.
type AssetGrant struct {
	Asset       AssetRef
	FileName    string
	FilePath    string
	ExternalURL string
}

type Post struct {
	ID             string
	Title          string
	AttachmentPath string
	AttachmentURL  string
	DownloadCount  int64
	CreatedAt      time.Time
}
