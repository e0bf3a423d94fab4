package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Warehouse is a storage location keyed by name. Ingestion batches that omit
// an explicit warehouse fall back to the oldest warehouse on record.
type Warehouse struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name     string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_warehouses_name"`
	Location *string   `json:"location,omitempty" gorm:"type:varchar(200)"`
	Capacity *float64  `json:"capacity,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// InventoryItem holds the stock parameter tuple for one (product, warehouse)
// pair. Ingestion replaces the whole tuple on upsert, it never merges.
type InventoryItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`
	WarehouseID uuid.UUID `json:"warehouseId" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`

	CurrentStock float64 `json:"currentStock" gorm:"not null;default:0"`
	MinStock     float64 `json:"minStock" gorm:"not null;default:0"`
	MaxStock     float64 `json:"maxStock" gorm:"not null;default:0"`
	ReorderPoint float64 `json:"reorderPoint" gorm:"not null;default:0"`
	SafetyStock  float64 `json:"safetyStock" gorm:"not null;default:0"`
	LeadTimeDays int     `json:"leadTimeDays" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Product   *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Sale is an append-only fact row. Ingestion never updates an existing sale;
// rows carrying a transaction id are de-duplicated on
// (product, warehouse, sale_date, transaction_id).
type Sale struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_sales_product_date"`
	WarehouseID uuid.UUID `json:"warehouseId" gorm:"type:uuid;not null;index:idx_sales_warehouse_date"`

	SaleDate      time.Time `json:"saleDate" gorm:"not null;index:idx_sales_product_date;index:idx_sales_warehouse_date"`
	Quantity      float64   `json:"quantity" gorm:"not null"`
	Revenue       float64   `json:"revenue" gorm:"not null;default:0"`
	Cost          *float64  `json:"cost,omitempty"`
	CustomerID    *string   `json:"customerId,omitempty" gorm:"type:varchar(100)"`
	TransactionID *string   `json:"transactionId,omitempty" gorm:"type:varchar(100);index"`

	CreatedAt time.Time `json:"createdAt"`

	// Relations
	Product   *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Forecast persists one forecasted period for a (product, warehouse) pair.
type Forecast struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_forecasts_product_date"`
	WarehouseID uuid.UUID `json:"warehouseId" gorm:"type:uuid;not null;index"`

	ForecastDate    time.Time `json:"forecastDate" gorm:"not null;index:idx_forecasts_product_date"`
	ForecastValue   float64   `json:"forecastValue" gorm:"not null"`
	ConfidenceLower *float64  `json:"confidenceLower,omitempty"`
	ConfidenceUpper *float64  `json:"confidenceUpper,omitempty"`
	ModelName       string    `json:"modelName" gorm:"type:varchar(100);not null"`
	ModelVersion    *string   `json:"modelVersion,omitempty" gorm:"type:varchar(50)"`

	CreatedAt time.Time `json:"createdAt"`
}

func (f *Forecast) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// TableName implementations
func (Warehouse) TableName() string {
	return "warehouses"
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

func (Sale) TableName() string {
	return "sales"
}

func (Forecast) TableName() string {
	return "forecasts"
}

// Response models

type WarehouseListResponse struct {
	Success bool        `json:"success"`
	Data    []Warehouse `json:"data"`
}

type InventoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []InventoryItem `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type SaleListResponse struct {
	Success    bool            `json:"success"`
	Data       []Sale          `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type ForecastListResponse struct {
	Success bool       `json:"success"`
	Data    []Forecast `json:"data"`
}
