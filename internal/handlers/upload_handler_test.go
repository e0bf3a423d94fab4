package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ainventory-service/internal/config"
	"ainventory-service/internal/forecast"
	"ainventory-service/internal/ingest"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

type testEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *ingest.Dispatcher
	uploads    *repository.UploadRepository
	cfg        *config.Config
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Warehouse{},
		&models.InventoryItem{},
		&models.Sale{},
		&models.Forecast{},
		&models.UploadJob{},
	))

	cfg := &config.Config{
		UploadDir:           filepath.Join(t.TempDir(), "uploads"),
		MaxFileSize:         1 << 20,
		ProcessTimeout:      time.Minute,
		ForecastHorizonDays: 7,
		ForecastMinHistory:  10,
		DefaultPageSize:     20,
		MaxPageSize:         100,
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	uploadRepo := repository.NewUploadRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db, nil)

	processor := ingest.NewProcessor(db, uploadRepo, nil, nil, log)
	dispatcher := ingest.NewDispatcher(processor, uploadRepo, cfg.ProcessTimeout, log)
	forecastService := forecast.NewService(inventoryRepo, forecast.NewExponentialSmoothing(),
		cfg.ForecastHorizonDays, cfg.ForecastMinHistory, log)

	uploadHandler := NewUploadHandler(cfg, uploadRepo, dispatcher, log)
	templateHandler := NewTemplateHandler()
	catalogHandler := NewCatalogHandler(cfg, catalogRepo)
	inventoryHandler := NewInventoryHandler(cfg, inventoryRepo)
	forecastHandler := NewForecastHandler(inventoryRepo, forecastService)

	router := gin.New()
	api := router.Group("/api/v1")
	data := api.Group("/data")
	{
		data.POST("/upload", uploadHandler.UploadData)
		data.GET("/uploads", uploadHandler.ListUploads)
		data.GET("/uploads/:id", uploadHandler.GetUpload)
		data.POST("/uploads/:id/retry", uploadHandler.RetryUpload)
		data.DELETE("/uploads/:id", uploadHandler.DeleteUpload)
		data.GET("/templates/:kind", templateHandler.GetTemplate)
	}
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/brands", catalogHandler.ListBrands)
	api.POST("/warehouses", inventoryHandler.CreateWarehouse)
	api.GET("/warehouses", inventoryHandler.ListWarehouses)
	api.GET("/inventory", inventoryHandler.ListInventory)
	api.GET("/sales", inventoryHandler.ListSales)
	api.POST("/forecasts/generate", forecastHandler.GenerateForecasts)
	api.GET("/forecasts/:productId", forecastHandler.ListForecasts)
	api.GET("/forecasts/:productId/recommendation", forecastHandler.RecommendReorder)

	return &testEnv{router: router, db: db, dispatcher: dispatcher, uploads: uploadRepo, cfg: cfg}
}

func multipartUpload(t *testing.T, fileType, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("fileType", fileType))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadData_ProcessesProductsFile(t *testing.T) {
	env := setupEnv(t)

	body, contentType := multipartUpload(t, "products", "products.csv",
		"sku,name,category\nA1,Widget,Tools\nA2,Gadget,Tools\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	require.Equal(t, models.DataKindProducts, resp.Data.DataKind)

	env.dispatcher.Wait()

	job, err := env.uploads.GetByID(resp.Data.ID)
	require.NoError(t, err)
	require.Equal(t, models.UploadStatusCompleted, job.Status)
	require.Equal(t, 2, job.RecordsProcessed)

	var count int64
	require.NoError(t, env.db.Model(&models.Product{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestUploadData_RejectsBadRequests(t *testing.T) {
	env := setupEnv(t)

	// Unknown data kind.
	body, contentType := multipartUpload(t, "customers", "c.csv", "id\n1\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unsupported extension.
	body, contentType = multipartUpload(t, "products", "products.txt", "sku,name\nA1,W\n")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// No file field at all.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("fileType", "products"))
	require.NoError(t, writer.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetryUpload_ConflictsOnCompletedJob(t *testing.T) {
	env := setupEnv(t)

	body, contentType := multipartUpload(t, "products", "products.csv", "sku,name\nA1,Widget\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	env.dispatcher.Wait()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/uploads/"+resp.Data.ID.String()+"/retry", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRetryUpload_ReschedulesFailedJob(t *testing.T) {
	env := setupEnv(t)

	// Inventory upload with no warehouse configured fails.
	body, contentType := multipartUpload(t, "inventory", "inventory.csv", "sku,current_stock\nA1,5\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	env.dispatcher.Wait()

	job, err := env.uploads.GetByID(resp.Data.ID)
	require.NoError(t, err)
	require.Equal(t, models.UploadStatusFailed, job.Status)

	// Create the missing warehouse and product, then retry.
	require.NoError(t, env.db.Create(&models.Warehouse{Name: "Main"}).Error)
	require.NoError(t, env.db.Create(&models.Product{SKU: "A1", Name: "Widget", IsActive: true}).Error)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/uploads/"+resp.Data.ID.String()+"/retry", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.dispatcher.Wait()

	job, err = env.uploads.GetByID(resp.Data.ID)
	require.NoError(t, err)
	require.Equal(t, models.UploadStatusCompleted, job.Status)
	require.Equal(t, 1, job.RecordsProcessed)
}

func TestDeleteUpload_RemovesJobAndFile(t *testing.T) {
	env := setupEnv(t)

	body, contentType := multipartUpload(t, "products", "products.csv", "sku,name\nA1,Widget\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	env.dispatcher.Wait()

	storedPath := resp.Data.FilePath
	_, err := os.Stat(storedPath)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/data/uploads/"+resp.Data.ID.String(), nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = env.uploads.GetByID(resp.Data.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = os.Stat(storedPath)
	require.True(t, os.IsNotExist(err))
}

func TestListUploads_Paginates(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 3; i++ {
		body, contentType := multipartUpload(t, "products", "products.csv", "sku,name\nA1,Widget\n")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	env.dispatcher.Wait()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/uploads?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.UploadListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Pagination)
	require.EqualValues(t, 3, resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestGetTemplate_Formats(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/templates/products", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "\"sku\"")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/data/templates/sales?format=csv", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, rec.Body.String(), "sale_date")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/data/templates/inventory?format=xlsx", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/data/templates/customers", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadEndpoints_ReturnIngestedData(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.Warehouse{Name: "Main"}).Error)

	body, contentType := multipartUpload(t, "products", "products.csv",
		"sku,name,category,brand\nA1,Widget,Tools,Acme\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.dispatcher.Wait()

	body, contentType = multipartUpload(t, "inventory", "inventory.csv",
		"sku,current_stock,reorder_point\nA1,3,10\n")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.dispatcher.Wait()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var products models.ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products.Data, 1)
	require.Equal(t, "A1", products.Data[0].SKU)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/inventory?lowStock=true", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var inventory models.InventoryListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inventory))
	require.Len(t, inventory.Data, 1)
	require.Equal(t, 3.0, inventory.Data[0].CurrentStock)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories models.CategoryListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories.Data, 1)
	require.Equal(t, "Tools", categories.Data[0].Name)
}

func TestRecommendReorder_Endpoint(t *testing.T) {
	env := setupEnv(t)

	warehouse := models.Warehouse{Name: "Main"}
	require.NoError(t, env.db.Create(&warehouse).Error)
	product := models.Product{SKU: "A1", Name: "Widget", IsActive: true}
	require.NoError(t, env.db.Create(&product).Error)
	require.NoError(t, env.db.Create(&models.InventoryItem{
		ProductID:    product.ID,
		WarehouseID:  warehouse.ID,
		CurrentStock: 1,
		LeadTimeDays: 7,
	}).Error)

	base := "/api/v1/forecasts/" + product.ID.String() + "/recommendation"

	// Without a stored forecast the pair cannot be recommended for.
	req := httptest.NewRequest(http.MethodGet, base+"?warehouseId="+warehouse.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "NO_FORECAST")

	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		require.NoError(t, env.db.Create(&models.Sale{
			ProductID:   product.ID,
			WarehouseID: warehouse.ID,
			SaleDate:    start.AddDate(0, 0, i),
			Quantity:    float64(2 + i%3),
		}).Error)
	}

	payload := bytes.NewBufferString(`{"productId":"` + product.ID.String() + `","warehouseId":"` + warehouse.ID.String() + `"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/forecasts/generate", payload)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, base+"?warehouseId="+warehouse.ID.String(), nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Data    forecast.Recommendation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 7, resp.Data.LeadTimeDays)
	require.Greater(t, resp.Data.ReorderQuantity, 0.0)
	require.True(t, resp.Data.ShouldReorder)

	req = httptest.NewRequest(http.MethodGet, base, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
