package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// prices are rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string           `gorm:"not null" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string           `json:"description"`
	DescriptionHTML  string           `gorm:"-" json:"description_html,omitempty"`
	Price            decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	OriginalPrice    *decimal.Decimal `gorm:"type:numeric(10,2)" json:"original_price"`
	CategoryID       *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ImageURL         string           `json:"image_url"`
	AdditionalImages pq.StringArray   `gorm:"type:text[]" json:"additional_images"`
	Sizes            pq.StringArray   `gorm:"type:text[]" json:"sizes"`
	Colors           pq.StringArray   `gorm:"type:text[]" json:"colors"`
	StockQuantity    int              `gorm:"not null;default:0" json:"stock_quantity"`
	Rating           float64          `gorm:"type:numeric(2,1);default:0" json:"rating"`
	ReviewsCount     int              `gorm:"default:0" json:"reviews_count"`
	IsFeatured       bool             `gorm:"index" json:"is_featured"`
	IsNewArrival     bool             `gorm:"index" json:"is_new_arrival"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// Gallery returns the main image followed by the additional ones, skipping blanks.
func (p Product) Gallery() []string {
	images := make([]string, 0, len(p.AdditionalImages)+1)
	if p.ImageURL != "" {
		images = append(images, p.ImageURL)
	}
	for _, img := range p.AdditionalImages {
		if img != "" {
			images = append(images, img)
		}
	}
	return images
}

// DefaultSize is the first listed size, or "" when the product has none.
func (p Product) DefaultSize() string {
	if len(p.Sizes) == 0 {
		return ""
	}
	return p.Sizes[0]
}

// DefaultColor is the first listed color, or "" when the product has none.
func (p Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}
