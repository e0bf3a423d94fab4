package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ainventory-service/internal/models"
)

// Cache TTL constants
const (
	StockListCacheTTL = 2 * time.Minute  // Stock list changes with every ingestion batch
	WarehouseCacheTTL = 30 * time.Minute // Warehouses rarely change
)

type InventoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

func NewInventoryRepository(db *gorm.DB, redisClient *redis.Client) *InventoryRepository {
	repo := &InventoryRepository{
		db:    db,
		redis: redisClient,
	}

	// Initialize CacheLayer with the existing Redis client
	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: StockListCacheTTL,
			KeyPrefix:  "ainventory:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

func listCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s:%s", prefix, string(data))
}

// InvalidateStock drops cached stock lists after an ingestion batch commits.
func (r *InventoryRepository) InvalidateStock(ctx context.Context) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, "inventory:list:*")
}

func (r *InventoryRepository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	load := func() ([]models.Warehouse, error) {
		var warehouses []models.Warehouse
		if err := r.db.Order("created_at ASC").Find(&warehouses).Error; err != nil {
			return nil, err
		}
		return warehouses, nil
	}

	if r.cache == nil {
		return load()
	}

	var warehouses []models.Warehouse
	err := r.cache.GetOrSetJSON(ctx, "warehouses:list", &warehouses, WarehouseCacheTTL, func() (any, error) {
		out, err := load()
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *InventoryRepository) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	if err := r.db.Create(warehouse).Error; err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.Delete(ctx, "warehouses:list")
	}
	return nil
}

// ListInventory returns stock tuples with their product and warehouse,
// optionally narrowed to one warehouse or to low-stock rows only.
func (r *InventoryRepository) ListInventory(ctx context.Context, warehouseID *uuid.UUID, lowStockOnly bool, page, limit int) ([]models.InventoryItem, int64, error) {
	type listResult struct {
		Items []models.InventoryItem `json:"items"`
		Total int64                  `json:"total"`
	}

	load := func() (*listResult, error) {
		query := r.db.Model(&models.InventoryItem{})
		if warehouseID != nil {
			query = query.Where("warehouse_id = ?", *warehouseID)
		}
		if lowStockOnly {
			query = query.Where("reorder_point > 0 AND current_stock <= reorder_point")
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, err
		}

		var items []models.InventoryItem
		offset := (page - 1) * limit
		err := query.Preload("Product").Preload("Warehouse").
			Order("updated_at DESC").Offset(offset).Limit(limit).Find(&items).Error
		if err != nil {
			return nil, err
		}
		return &listResult{Items: items, Total: total}, nil
	}

	if r.cache == nil {
		result, err := load()
		if err != nil {
			return nil, 0, err
		}
		return result.Items, result.Total, nil
	}

	key := listCacheKey("inventory:list", map[string]interface{}{
		"warehouseId": warehouseID,
		"lowStock":    lowStockOnly,
		"page":        page,
		"limit":       limit,
	})
	var result listResult
	err := r.cache.GetOrSetJSON(ctx, key, &result, StockListCacheTTL, func() (any, error) {
		return load()
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// GetInventoryItem returns the stock tuple for one (product, warehouse)
// pair.
func (r *InventoryRepository) GetInventoryItem(productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListSales returns sale facts newest first with optional product,
// warehouse and date range filters.
func (r *InventoryRepository) ListSales(productID, warehouseID *uuid.UUID, from, to *time.Time, page, limit int) ([]models.Sale, int64, error) {
	query := r.db.Model(&models.Sale{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	if from != nil {
		query = query.Where("sale_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("sale_date <= ?", *to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	offset := (page - 1) * limit
	err := query.Preload("Product").
		Order("sale_date DESC").Offset(offset).Limit(limit).Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// SalesSeries returns the full sale history for one (product, warehouse)
// pair in date order, for forecasting.
func (r *InventoryRepository) SalesSeries(productID, warehouseID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("sale_date ASC").Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// SoldProductPairs returns the distinct (product, warehouse) pairs that
// have any sales history.
func (r *InventoryRepository) SoldProductPairs() ([][2]uuid.UUID, error) {
	type pair struct {
		ProductID   uuid.UUID
		WarehouseID uuid.UUID
	}
	var rows []pair
	err := r.db.Model(&models.Sale{}).
		Distinct("product_id", "warehouse_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([][2]uuid.UUID, len(rows))
	for i, row := range rows {
		out[i] = [2]uuid.UUID{row.ProductID, row.WarehouseID}
	}
	return out, nil
}

// ReplaceForecasts swaps the stored forecast horizon for one pair and model
// with a fresh one, atomically.
func (r *InventoryRepository) ReplaceForecasts(productID, warehouseID uuid.UUID, modelName string, forecasts []models.Forecast) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("product_id = ? AND warehouse_id = ? AND model_name = ?",
			productID, warehouseID, modelName).Delete(&models.Forecast{}).Error
		if err != nil {
			return err
		}
		if len(forecasts) == 0 {
			return nil
		}
		return tx.Create(&forecasts).Error
	})
}

func (r *InventoryRepository) ListForecasts(productID uuid.UUID, warehouseID *uuid.UUID) ([]models.Forecast, error) {
	query := r.db.Where("product_id = ?", productID)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var forecasts []models.Forecast
	if err := query.Order("forecast_date ASC").Find(&forecasts).Error; err != nil {
		return nil, err
	}
	return forecasts, nil
}
