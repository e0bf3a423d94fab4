package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ainventory-service/internal/config"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

type InventoryHandler struct {
	cfg  *config.Config
	repo *repository.InventoryRepository
}

func NewInventoryHandler(cfg *config.Config, repo *repository.InventoryRepository) *InventoryHandler {
	return &InventoryHandler{cfg: cfg, repo: repo}
}

// CreateWarehouse creates a new warehouse
// POST /api/v1/warehouses
func (h *InventoryHandler) CreateWarehouse(c *gin.Context) {
	var req struct {
		Name     string   `json:"name" binding:"required"`
		Location *string  `json:"location"`
		Capacity *float64 `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: err.Error()},
		})
		return
	}

	warehouse := &models.Warehouse{
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
	}
	if err := h.repo.CreateWarehouse(c.Request.Context(), warehouse); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "CREATION_FAILED", Message: "Failed to create warehouse"},
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    warehouse,
		Message: stringPtr("Warehouse created successfully"),
	})
}

// ListWarehouses lists warehouses, oldest first
// GET /api/v1/warehouses
func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.repo.ListWarehouses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch warehouses"},
		})
		return
	}

	c.JSON(http.StatusOK, models.WarehouseListResponse{Success: true, Data: warehouses})
}

// ListInventory lists stock tuples
// GET /api/v1/inventory
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	page, limit := pagination(c, h.cfg)

	var warehouseID *uuid.UUID
	if raw := c.Query("warehouseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_ID", Message: "Invalid warehouse ID"},
			})
			return
		}
		warehouseID = &id
	}
	lowStockOnly := c.Query("lowStock") == "true"

	items, total, err := h.repo.ListInventory(c.Request.Context(), warehouseID, lowStockOnly, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch inventory"},
		})
		return
	}

	c.JSON(http.StatusOK, models.InventoryListResponse{
		Success:    true,
		Data:       items,
		Pagination: paginationMeta(page, limit, total),
	})
}

// ListSales lists sale facts, newest first
// GET /api/v1/sales
func (h *InventoryHandler) ListSales(c *gin.Context) {
	page, limit := pagination(c, h.cfg)

	var productID, warehouseID *uuid.UUID
	if raw := c.Query("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_ID", Message: "Invalid product ID"},
			})
			return
		}
		productID = &id
	}
	if raw := c.Query("warehouseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_ID", Message: "Invalid warehouse ID"},
			})
			return
		}
		warehouseID = &id
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_DATE", Message: "from must be YYYY-MM-DD"},
			})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_DATE", Message: "to must be YYYY-MM-DD"},
			})
			return
		}
		to = &t
	}

	sales, total, err := h.repo.ListSales(productID, warehouseID, from, to, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch sales"},
		})
		return
	}

	c.JSON(http.StatusOK, models.SaleListResponse{
		Success:    true,
		Data:       sales,
		Pagination: paginationMeta(page, limit, total),
	})
}
