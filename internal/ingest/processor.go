package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

// StockAlerter publishes stock alerts raised while applying inventory rows.
type StockAlerter interface {
	PublishLowStockAlert(ctx context.Context, productID, productName, sku string, currentStock, reorderPoint int, warehouseID, warehouseName string) error
	PublishOutOfStockAlert(ctx context.Context, productID, productName, sku, warehouseID, warehouseName string) error
}

// StockInvalidator drops cached stock reads after an inventory batch
// commits.
type StockInvalidator interface {
	InvalidateStock(ctx context.Context)
}

// stockAlert is a candidate alert collected during the batch transaction
// and published after commit.
type stockAlert struct {
	ProductID    uuid.UUID
	SKU          string
	CurrentStock float64
	ReorderPoint float64
	WarehouseID  uuid.UUID
}

// Processor runs one upload job end to end: read, validate, resolve and
// reconcile, then record the terminal job state. Each file is applied in a
// single transaction; individual bad rows are isolated with savepoints so
// the rest of the batch still commits.
type Processor struct {
	db          *gorm.DB
	uploads     *repository.UploadRepository
	alerts      StockAlerter
	invalidator StockInvalidator
	logger      *logrus.Entry
}

// NewProcessor builds a Processor. alerts and invalidator may be nil when
// NATS or Redis are not configured.
func NewProcessor(db *gorm.DB, uploads *repository.UploadRepository, alerts StockAlerter, invalidator StockInvalidator, logger *logrus.Logger) *Processor {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		db:          db,
		uploads:     uploads,
		alerts:      alerts,
		invalidator: invalidator,
		logger:      log.WithField("component", "ingest"),
	}
}

// Process runs the pipeline for a job. The processing transition is
// persisted before the file is opened, so an observer always sees the job
// leave uploaded before any data changes. Fatal errors fail the job and are
// returned; per-row problems land in the Result instead.
func (p *Processor) Process(ctx context.Context, job *models.UploadJob) (*Result, error) {
	log := p.logger.WithFields(logrus.Fields{
		"uploadId": job.ID,
		"dataKind": job.DataKind,
		"filename": job.Filename,
	})

	if err := p.uploads.MarkProcessing(job); err != nil {
		return nil, err
	}

	result, alerts, err := p.run(ctx, job)
	if err != nil {
		log.WithError(err).Error("Upload processing failed")
		if markErr := p.uploads.MarkFailed(job, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record upload failure")
		}
		return nil, err
	}

	if err := p.uploads.MarkCompleted(job, result.RecordsProcessed); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"totalRows":        result.TotalRows,
		"recordsProcessed": result.RecordsProcessed,
		"errors":           len(result.Errors),
		"warnings":         len(result.Warnings),
	}).Info("Upload processed")

	if job.DataKind == models.DataKindInventory && p.invalidator != nil {
		p.invalidator.InvalidateStock(ctx)
	}
	p.publishAlerts(ctx, alerts)
	return result, nil
}

func (p *Processor) run(ctx context.Context, job *models.UploadJob) (*Result, []stockAlert, error) {
	if _, ok := SchemaFor(job.DataKind); !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDataKind, job.DataKind)
	}

	table, err := ReadFile(job.FilePath)
	if err != nil {
		return nil, nil, err
	}

	switch job.DataKind {
	case models.DataKindProducts:
		result, err := p.applyProducts(ctx, table)
		return result, nil, err
	case models.DataKindInventory:
		return p.applyInventory(ctx, table, job.WarehouseID)
	case models.DataKindSales:
		result, err := p.applySales(ctx, table, job.WarehouseID)
		return result, nil, err
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDataKind, job.DataKind)
}

// applyProducts creates new catalog entries. A SKU already present in the
// store, or committed earlier in the same file, is skipped with a warning.
func (p *Processor) applyProducts(ctx context.Context, table *Table) (*Result, error) {
	records, issues := ValidateProducts(table)
	result := &Result{TotalRows: len(table.Rows), Errors: issues}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := NewResolver(tx)
		if err != nil {
			return err
		}

		existing, err := res.ProductsBySKU(recordSKUs(len(records), func(i int) string { return records[i].SKU }))
		if err != nil {
			return err
		}

		for _, rec := range records {
			if _, dup := existing[rec.SKU]; dup {
				result.addWarning(rec.Row, "sku", CodeDuplicateSKU, fmt.Sprintf("SKU %q already exists, row skipped", rec.SKU))
				continue
			}

			product := models.Product{
				SKU:         rec.SKU,
				Name:        rec.Name,
				Description: strPtr(rec.Description),
				UnitCost:    rec.UnitCost,
				UnitPrice:   rec.UnitPrice,
				Weight:      rec.Weight,
				Dimensions:  strPtr(rec.Dimensions),
				IsActive:    true,
			}

			if rec.Category != "" {
				id, err := res.Category(rec.Category)
				if err != nil {
					return err
				}
				product.CategoryID = &id
			}
			if rec.Brand != "" {
				id, err := res.Brand(rec.Brand)
				if err != nil {
					return err
				}
				product.BrandID = &id
			}

			sp := fmt.Sprintf("row_%d", rec.Row)
			tx.SavePoint(sp)
			if err := tx.Create(&product).Error; err != nil {
				tx.RollbackTo(sp)
				result.addError(rec.Row, "", CodeRowRejected, fmt.Sprintf("row could not be stored: %v", err))
				continue
			}

			existing[rec.SKU] = product.ID
			result.RecordsProcessed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyInventory upserts stock tuples for one warehouse. An existing
// (product, warehouse) row is replaced in full; repeated SKUs within the
// file apply in order, last row wins.
func (p *Processor) applyInventory(ctx context.Context, table *Table, warehouseID *uuid.UUID) (*Result, []stockAlert, error) {
	records, issues := ValidateInventory(table)
	result := &Result{TotalRows: len(table.Rows), Errors: issues}
	alertByProduct := make(map[uuid.UUID]stockAlert)

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := NewResolver(tx)
		if err != nil {
			return err
		}

		wid, err := res.Warehouse(warehouseID)
		if err != nil {
			return err
		}

		products, err := res.ProductsBySKU(recordSKUs(len(records), func(i int) string { return records[i].SKU }))
		if err != nil {
			return err
		}

		var items []models.InventoryItem
		if err := tx.Where("warehouse_id = ?", wid).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load existing inventory: %w", err)
		}
		itemIDs := make(map[uuid.UUID]uuid.UUID, len(items))
		for _, item := range items {
			itemIDs[item.ProductID] = item.ID
		}

		for _, rec := range records {
			pid, ok := products[rec.SKU]
			if !ok {
				result.addError(rec.Row, "sku", CodeSKUNotFound, fmt.Sprintf("no product with SKU %q", rec.SKU))
				continue
			}

			sp := fmt.Sprintf("row_%d", rec.Row)
			tx.SavePoint(sp)

			if itemID, exists := itemIDs[pid]; exists {
				err = tx.Model(&models.InventoryItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
					"current_stock":  rec.CurrentStock,
					"min_stock":      rec.MinStock,
					"max_stock":      rec.MaxStock,
					"reorder_point":  rec.ReorderPoint,
					"safety_stock":   rec.SafetyStock,
					"lead_time_days": rec.LeadTimeDays,
				}).Error
			} else {
				item := models.InventoryItem{
					ProductID:    pid,
					WarehouseID:  wid,
					CurrentStock: rec.CurrentStock,
					MinStock:     rec.MinStock,
					MaxStock:     rec.MaxStock,
					ReorderPoint: rec.ReorderPoint,
					SafetyStock:  rec.SafetyStock,
					LeadTimeDays: rec.LeadTimeDays,
				}
				err = tx.Create(&item).Error
				if err == nil {
					itemIDs[pid] = item.ID
				}
			}
			if err != nil {
				tx.RollbackTo(sp)
				result.addError(rec.Row, "", CodeRowRejected, fmt.Sprintf("row could not be stored: %v", err))
				continue
			}

			result.RecordsProcessed++
			if rec.CurrentStock == 0 || (rec.ReorderPoint > 0 && rec.CurrentStock <= rec.ReorderPoint) {
				alertByProduct[pid] = stockAlert{
					ProductID:    pid,
					SKU:          rec.SKU,
					CurrentStock: rec.CurrentStock,
					ReorderPoint: rec.ReorderPoint,
					WarehouseID:  wid,
				}
			} else {
				delete(alertByProduct, pid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	alerts := make([]stockAlert, 0, len(alertByProduct))
	for _, a := range alertByProduct {
		alerts = append(alerts, a)
	}
	return result, alerts, nil
}

// applySales appends sale facts. Sales never update existing rows; a row
// carrying a transaction id that already exists for the same product,
// warehouse and date is skipped with a warning.
func (p *Processor) applySales(ctx context.Context, table *Table, warehouseID *uuid.UUID) (*Result, error) {
	records, issues := ValidateSales(table)
	result := &Result{TotalRows: len(table.Rows), Errors: issues}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := NewResolver(tx)
		if err != nil {
			return err
		}

		wid, err := res.Warehouse(warehouseID)
		if err != nil {
			return err
		}

		products, err := res.ProductsBySKU(recordSKUs(len(records), func(i int) string { return records[i].SKU }))
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, rec := range records {
			pid, ok := products[rec.SKU]
			if !ok {
				result.addError(rec.Row, "sku", CodeSKUNotFound, fmt.Sprintf("no product with SKU %q", rec.SKU))
				continue
			}

			if rec.TransactionID != "" {
				key := fmt.Sprintf("%s|%s|%s", pid, rec.SaleDate.Format("2006-01-02 15:04:05"), rec.TransactionID)
				duplicate := seen[key]
				if !duplicate {
					var count int64
					err := tx.Model(&models.Sale{}).
						Where("product_id = ? AND warehouse_id = ? AND sale_date = ? AND transaction_id = ?",
							pid, wid, rec.SaleDate, rec.TransactionID).
						Count(&count).Error
					if err != nil {
						return fmt.Errorf("failed to check sale duplicates: %w", err)
					}
					duplicate = count > 0
				}
				seen[key] = true
				if duplicate {
					result.addWarning(rec.Row, "transaction_id", CodeDuplicateTransaction,
						fmt.Sprintf("transaction %q already recorded, row skipped", rec.TransactionID))
					continue
				}
			}

			sale := models.Sale{
				ProductID:     pid,
				WarehouseID:   wid,
				SaleDate:      rec.SaleDate,
				Quantity:      rec.Quantity,
				Revenue:       rec.Revenue,
				Cost:          rec.Cost,
				CustomerID:    strPtr(rec.CustomerID),
				TransactionID: strPtr(rec.TransactionID),
			}

			sp := fmt.Sprintf("row_%d", rec.Row)
			tx.SavePoint(sp)
			if err := tx.Create(&sale).Error; err != nil {
				tx.RollbackTo(sp)
				result.addError(rec.Row, "", CodeRowRejected, fmt.Sprintf("row could not be stored: %v", err))
				continue
			}
			result.RecordsProcessed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// publishAlerts runs after the batch commits so alerts never fire for rows
// that rolled back.
func (p *Processor) publishAlerts(ctx context.Context, alerts []stockAlert) {
	if p.alerts == nil || len(alerts) == 0 {
		return
	}

	for _, a := range alerts {
		var product models.Product
		if err := p.db.Select("id", "sku", "name").First(&product, "id = ?", a.ProductID).Error; err != nil {
			p.logger.WithError(err).Warn("Skipping stock alert for unknown product")
			continue
		}
		var warehouse models.Warehouse
		if err := p.db.Select("id", "name").First(&warehouse, "id = ?", a.WarehouseID).Error; err != nil {
			p.logger.WithError(err).Warn("Skipping stock alert for unknown warehouse")
			continue
		}

		if a.CurrentStock == 0 {
			_ = p.alerts.PublishOutOfStockAlert(ctx, a.ProductID.String(), product.Name, a.SKU, a.WarehouseID.String(), warehouse.Name)
		} else {
			_ = p.alerts.PublishLowStockAlert(ctx, a.ProductID.String(), product.Name, a.SKU,
				int(a.CurrentStock), int(a.ReorderPoint), a.WarehouseID.String(), warehouse.Name)
		}
	}
}

func recordSKUs(n int, sku func(i int) string) []string {
	skus := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		s := sku(i)
		if !seen[s] {
			seen[s] = true
			skus = append(skus, s)
		}
	}
	return skus
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
