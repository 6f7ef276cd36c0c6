package model

type ProductType string

const (
	ProductVoicePack     ProductType = "VOICE_PACK"
	ProductPhysicalGoods ProductType = "PHYSICAL_GOODS"
	ProductBundle        ProductType = "BUNDLE"
)

func (t ProductType) IsValid() bool {
	switch t {
	case ProductVoicePack, ProductPhysicalGoods, ProductBundle:
		return true
	}
	return false
}

// IsPhysical reports whether the type ships and may carry finite stock.
func (t ProductType) IsPhysical() bool {
	return t == ProductPhysicalGoods || t == ProductBundle
}

type Product struct {
	BaseModel
	Name           string      `gorm:"type:varchar(255);not null" json:"name"`
	Slug           string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description    string      `gorm:"type:text" json:"description"`
	Type           ProductType `gorm:"type:varchar(20);not null;index" json:"type"`
	Price          int64       `gorm:"not null;default:0" json:"price"` // KRW
	Stock          *int        `json:"stock"`                           // nil = unlimited
	IsActive       bool        `gorm:"not null" json:"is_active"`
	ThumbnailURL   *string     `gorm:"type:text" json:"thumbnail_url,omitempty"`
	DigitalFileURL *string     `gorm:"type:text" json:"-"`
	SampleAudioURL *string     `gorm:"type:text" json:"sample_audio_url,omitempty"`
}

func (p *Product) IsPhysical() bool {
	return p.Type.IsPhysical()
}

// TracksStock is true when orders must be checked against and decrement stock.
func (p *Product) TracksStock() bool {
	return p.IsPhysical() && p.Stock != nil
}

// HasStockFor reports whether qty units can be taken. Untracked products
// always can.
func (p *Product) HasStockFor(qty int) bool {
	if !p.TracksStock() {
		return true
	}
	return *p.Stock >= qty
}
