package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ainventory-service/internal/config"
	"ainventory-service/internal/ingest"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

type UploadHandler struct {
	cfg        *config.Config
	uploads    *repository.UploadRepository
	dispatcher *ingest.Dispatcher
	logger     *logrus.Entry
}

func NewUploadHandler(cfg *config.Config, uploads *repository.UploadRepository, dispatcher *ingest.Dispatcher, logger *logrus.Logger) *UploadHandler {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UploadHandler{
		cfg:        cfg,
		uploads:    uploads,
		dispatcher: dispatcher,
		logger:     log.WithField("component", "upload-handler"),
	}
}

// UploadData accepts a tabular file, records an upload job and schedules it
// for background processing
// POST /api/v1/data/upload
func (h *UploadHandler) UploadData(c *gin.Context) {
	kind := models.DataKind(c.PostForm("fileType"))
	if !models.ValidDataKind(kind) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_DATA_KIND",
				Message: "fileType must be one of: products, inventory, sales",
			},
		})
		return
	}

	var warehouseID *uuid.UUID
	if raw := c.PostForm("warehouseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_ID",
					Message: "Invalid warehouse ID",
				},
			})
			return
		}
		warehouseID = &id
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "MISSING_FILE",
				Message: "No file provided in 'file' field",
			},
		})
		return
	}

	if file.Size > h.cfg.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: "File exceeds the maximum upload size",
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNSUPPORTED_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		h.logger.WithError(err).Error("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}

	dst := filepath.Join(h.cfg.UploadDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.logger.WithError(err).Error("Failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}

	job := &models.UploadJob{
		Filename:    file.Filename,
		FilePath:    dst,
		FileSize:    file.Size,
		ContentType: file.Header.Get("Content-Type"),
		DataKind:    kind,
		WarehouseID: warehouseID,
	}

	if err := h.uploads.Create(job); err != nil {
		h.logger.WithError(err).Error("Failed to create upload job")
		_ = os.Remove(dst)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to record upload",
			},
		})
		return
	}

	h.dispatcher.Submit(job)

	c.JSON(http.StatusAccepted, models.UploadResponse{
		Success: true,
		Data:    job,
		Message: stringPtr("File accepted for processing"),
	})
}

// ListUploads lists upload jobs, newest first
// GET /api/v1/data/uploads
func (h *UploadHandler) ListUploads(c *gin.Context) {
	page, limit := pagination(c, h.cfg)

	var status *models.UploadStatus
	if raw := c.Query("status"); raw != "" {
		s := models.UploadStatus(raw)
		status = &s
	}

	jobs, total, err := h.uploads.List(status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch uploads",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.UploadListResponse{
		Success:    true,
		Data:       jobs,
		Pagination: paginationMeta(page, limit, total),
	})
}

// GetUpload returns one upload job with its current status
// GET /api/v1/data/uploads/:id
func (h *UploadHandler) GetUpload(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.uploads.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Upload not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success: true,
		Data:    job,
	})
}

// RetryUpload reschedules a failed or never-started upload
// POST /api/v1/data/uploads/:id/retry
func (h *UploadHandler) RetryUpload(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.dispatcher.Retry(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Upload not found",
			},
		})
		return
	}
	if errors.Is(err, ingest.ErrJobNotRetryable) || errors.Is(err, repository.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_RETRYABLE",
				Message: "Only failed or never-started uploads can be retried",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "RETRY_FAILED",
				Message: "Failed to retry upload",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, models.UploadResponse{
		Success: true,
		Data:    job,
		Message: stringPtr("Upload rescheduled"),
	})
}

// DeleteUpload removes an upload job and its stored file. Jobs that are
// currently processing cannot be deleted
// DELETE /api/v1/data/uploads/:id
func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.uploads.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Upload not found",
			},
		})
		return
	}

	if job.Status == models.UploadStatusProcessing {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_PROCESSING",
				Message: "Upload is currently processing and cannot be deleted",
			},
		})
		return
	}

	if err := h.uploads.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete upload",
			},
		})
		return
	}

	if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
		h.logger.WithError(err).Warn("Failed to remove uploaded file from disk")
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Upload deleted"),
	})
}

// Shared handler helpers

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid ID",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context, cfg *config.Config) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(cfg.DefaultPageSize)))
	if limit < 1 {
		limit = cfg.DefaultPageSize
	}
	if limit > cfg.MaxPageSize {
		limit = cfg.MaxPageSize
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) *models.PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return &models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func stringPtr(s string) *string {
	return &s
}
