package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products into a tree. Name is the natural key; categories
// referenced by name during ingestion are auto-created with only the name set.
type Category struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Brand is a flat reference entity keyed by name, auto-created on ingestion
// like Category.
type Brand struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_brands_name"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Website     *string   `json:"website,omitempty" gorm:"type:varchar(200)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Product is the catalog entity. SKU is unique and immutable once set;
// ingestion never deletes products.
type Product struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	SKU         string     `json:"sku" gorm:"type:varchar(50);not null;uniqueIndex:idx_products_sku"`
	Name        string     `json:"name" gorm:"type:varchar(200);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	BrandID     *uuid.UUID `json:"brandId,omitempty" gorm:"type:uuid;index"`

	UnitCost   *float64 `json:"unitCost,omitempty" gorm:"type:decimal(12,2)"`
	UnitPrice  *float64 `json:"unitPrice,omitempty" gorm:"type:decimal(12,2)"`
	Weight     *float64 `json:"weight,omitempty"`
	Dimensions *string  `json:"dimensions,omitempty" gorm:"type:varchar(100)"`
	IsActive   bool     `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Brand    *Brand    `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName implementations
func (Category) TableName() string {
	return "categories"
}

func (Brand) TableName() string {
	return "brands"
}

func (Product) TableName() string {
	return "products"
}

// Response models

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type CategoryListResponse struct {
	Success bool       `json:"success"`
	Data    []Category `json:"data"`
}

type BrandListResponse struct {
	Success bool    `json:"success"`
	Data    []Brand `json:"data"`
}
