package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ainventory-service/internal/models"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListProducts returns catalog products with their category and brand,
// optionally narrowed by search text or a category/brand filter.
func (r *CatalogRepository) ListProducts(search string, categoryID, brandID *uuid.UUID, page, limit int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("sku LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if brandID != nil {
		query = query.Where("brand_id = ?", *brandID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	offset := (page - 1) * limit
	err := query.Preload("Category").Preload("Brand").
		Order("sku ASC").Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *CatalogRepository) GetProductBySKU(sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Category").Preload("Brand").First(&product, "sku = ?", sku).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepository) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CatalogRepository) ListBrands() ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}
