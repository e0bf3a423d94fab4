package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ainventory-service/internal/forecast"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

type ForecastHandler struct {
	repo    *repository.InventoryRepository
	service *forecast.Service
}

func NewForecastHandler(repo *repository.InventoryRepository, service *forecast.Service) *ForecastHandler {
	return &ForecastHandler{repo: repo, service: service}
}

// GenerateForecasts regenerates forecasts for one (product, warehouse)
// pair, or for every pair with sales history when no body is given
// POST /api/v1/forecasts/generate
func (h *ForecastHandler) GenerateForecasts(c *gin.Context) {
	var req struct {
		ProductID   *uuid.UUID `json:"productId"`
		WarehouseID *uuid.UUID `json:"warehouseId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "VALIDATION_ERROR", Message: err.Error()},
			})
			return
		}
	}

	if req.ProductID != nil && req.WarehouseID != nil {
		forecasts, err := h.service.GenerateForPair(*req.ProductID, *req.WarehouseID)
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INSUFFICIENT_HISTORY", Message: err.Error()},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "FORECAST_FAILED", Message: "Failed to generate forecast"},
			})
			return
		}
		c.JSON(http.StatusOK, models.ForecastListResponse{Success: true, Data: forecasts})
		return
	}

	summary, err := h.service.GenerateAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FORECAST_FAILED", Message: "Failed to generate forecasts"},
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: summary})
}

// ListForecasts returns the stored forecast horizon for a product
// GET /api/v1/forecasts/:productId
func (h *ForecastHandler) ListForecasts(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Invalid product ID"},
		})
		return
	}

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

	forecasts, err := h.repo.ListForecasts(productID, warehouseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FETCH_FAILED", Message: "Failed to fetch forecasts"},
		})
		return
	}

	c.JSON(http.StatusOK, models.ForecastListResponse{Success: true, Data: forecasts})
}

// RecommendReorder returns a reorder suggestion for a product at one
// warehouse, built from the stored forecast and the current stock tuple
// GET /api/v1/forecasts/:productId/recommendation
func (h *ForecastHandler) RecommendReorder(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Invalid product ID"},
		})
		return
	}

	warehouseID, err := uuid.Parse(c.Query("warehouseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "A valid warehouseId query parameter is required"},
		})
		return
	}

	recommendation, err := h.service.Recommend(productID, warehouseID)
	switch {
	case errors.Is(err, forecast.ErrNoStockRecord):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "STOCK_NOT_FOUND", Message: err.Error()},
		})
		return
	case errors.Is(err, forecast.ErrNoForecast):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NO_FORECAST", Message: "No forecast stored for this pair, generate one first"},
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "RECOMMENDATION_FAILED", Message: "Failed to build recommendation"},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: recommendation})
}
