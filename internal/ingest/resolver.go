package ingest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ainventory-service/internal/models"
)

// Resolver maps reference names to ids within one ingestion batch. Caches
// are scoped to the batch and seeded from the store up front, so repeated
// names cost a single lookup. All work runs on the batch transaction.
type Resolver struct {
	tx         *gorm.DB
	categories map[string]uuid.UUID
	brands     map[string]uuid.UUID

	warehouseID       uuid.UUID
	warehouseResolved bool
}

// NewResolver builds a Resolver on the batch transaction and seeds the
// category and brand caches.
func NewResolver(tx *gorm.DB) (*Resolver, error) {
	r := &Resolver{
		tx:         tx,
		categories: make(map[string]uuid.UUID),
		brands:     make(map[string]uuid.UUID),
	}

	var categories []models.Category
	if err := tx.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to seed category cache: %w", err)
	}
	for _, c := range categories {
		r.categories[c.Name] = c.ID
	}

	var brands []models.Brand
	if err := tx.Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to seed brand cache: %w", err)
	}
	for _, b := range brands {
		r.brands[b.Name] = b.ID
	}

	return r, nil
}

// Category returns the id for a category name, creating the category when
// it does not exist yet. A concurrent create surfaces as ErrDuplicatedKey
// and resolves to a refetch.
func (r *Resolver) Category(name string) (uuid.UUID, error) {
	if id, ok := r.categories[name]; ok {
		return id, nil
	}

	category := models.Category{Name: name}
	err := r.tx.Create(&category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if err := r.tx.Where("name = ?", name).First(&category).Error; err != nil {
			return uuid.Nil, fmt.Errorf("failed to refetch category %q: %w", name, err)
		}
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	r.categories[name] = category.ID
	return category.ID, nil
}

// Brand returns the id for a brand name, creating the brand when it does
// not exist yet.
func (r *Resolver) Brand(name string) (uuid.UUID, error) {
	if id, ok := r.brands[name]; ok {
		return id, nil
	}

	brand := models.Brand{Name: name}
	err := r.tx.Create(&brand).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if err := r.tx.Where("name = ?", name).First(&brand).Error; err != nil {
			return uuid.Nil, fmt.Errorf("failed to refetch brand %q: %w", name, err)
		}
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create brand %q: %w", name, err)
	}

	r.brands[name] = brand.ID
	return brand.ID, nil
}

// ProductsBySKU bulk-loads the ids of existing products for a set of SKUs.
// SKUs absent from the result do not exist in the catalog.
func (r *Resolver) ProductsBySKU(skus []string) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID, len(skus))
	if len(skus) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := r.tx.Select("id", "sku").Where("sku IN ?", skus).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products by sku: %w", err)
	}
	for _, p := range products {
		out[p.SKU] = p.ID
	}
	return out, nil
}

// Warehouse resolves the target warehouse for the batch, once. An explicit
// id wins; otherwise the oldest warehouse on record is used. With no
// warehouses at all the batch cannot proceed.
func (r *Resolver) Warehouse(explicit *uuid.UUID) (uuid.UUID, error) {
	if r.warehouseResolved {
		return r.warehouseID, nil
	}

	if explicit != nil && *explicit != uuid.Nil {
		var warehouse models.Warehouse
		if err := r.tx.First(&warehouse, "id = ?", *explicit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, fmt.Errorf("warehouse %s not found: %w", explicit, ErrNoWarehouseConfigured)
			}
			return uuid.Nil, fmt.Errorf("failed to load warehouse %s: %w", explicit, err)
		}
		r.warehouseID = warehouse.ID
		r.warehouseResolved = true
		return r.warehouseID, nil
	}

	var warehouse models.Warehouse
	err := r.tx.Order("created_at ASC").First(&warehouse).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrNoWarehouseConfigured
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to pick default warehouse: %w", err)
	}

	r.warehouseID = warehouse.ID
	r.warehouseResolved = true
	return r.warehouseID, nil
}
