package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ainventory-service/internal/config"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

type CatalogHandler struct {
	cfg  *config.Config
	repo *repository.CatalogRepository
}

func NewCatalogHandler(cfg *config.Config, repo *repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{cfg: cfg, repo: repo}
}

// ListProducts lists catalog products
// GET /api/v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, limit := pagination(c, h.cfg)
	search := c.Query("search")

	var categoryID, brandID *uuid.UUID
	if raw := c.Query("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_ID", Message: "Invalid category ID"},
			})
			return
		}
		categoryID = &id
	}
	if raw := c.Query("brandId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_ID", Message: "Invalid brand ID"},
			})
			return
		}
		brandID = &id
	}

	products, total, err := h.repo.ListProducts(search, categoryID, brandID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch products"},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: paginationMeta(page, limit, total),
	})
}

// ListCategories lists all categories
// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.repo.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch categories"},
		})
		return
	}

	c.JSON(http.StatusOK, models.CategoryListResponse{Success: true, Data: categories})
}

// ListBrands lists all brands
// GET /api/v1/brands
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.repo.ListBrands()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch brands"},
		})
		return
	}

	c.JSON(http.StatusOK, models.BrandListResponse{Success: true, Data: brands})
}
