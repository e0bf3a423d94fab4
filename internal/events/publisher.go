// Package events provides NATS event publishing for ainventory-service
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"
)

// defaultTenant is used on the shared event envelope; this service is
// single-tenant.
const defaultTenant = "default"

// StockAlertPublisher publishes stock alerts raised by inventory ingestion
// to NATS.
type StockAlertPublisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewStockAlertPublisher creates a new stock alert publisher
func NewStockAlertPublisher(natsURL string, logger *logrus.Logger) (*StockAlertPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "ainventory-service-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	// Ensure inventory stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream exists")
	}

	return &StockAlertPublisher{
		publisher: publisher,
		logger:    log.WithField("component", "stock-events"),
	}, nil
}

// PublishLowStockAlert publishes an inventory.low_stock event for a product
// whose ingested stock level sits at or below its reorder point.
func (p *StockAlertPublisher) PublishLowStockAlert(ctx context.Context, productID, productName, sku string, currentStock, reorderPoint int, warehouseID, warehouseName string) error {
	event := events.NewInventoryEvent(events.InventoryLowStock, defaultTenant)
	event.Items = []events.InventoryItem{
		{
			ProductID:     productID,
			Name:          productName,
			SKU:           sku,
			CurrentStock:  currentStock,
			ReorderPoint:  reorderPoint,
			WarehouseID:   warehouseID,
			WarehouseName: warehouseName,
		},
	}
	event.AlertLevel = "warning"
	event.AlertMessage = fmt.Sprintf("Low stock alert: %s (SKU: %s) has %d units remaining (reorder point: %d)", productName, sku, currentStock, reorderPoint)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": productID,
			"sku":       sku,
		}).WithError(err).Error("Failed to publish inventory.low_stock event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"productId":    productID,
		"sku":          sku,
		"currentStock": currentStock,
		"reorderPoint": reorderPoint,
	}).Info("Published inventory.low_stock event")
	return nil
}

// PublishOutOfStockAlert publishes an inventory.out_of_stock event for a
// product ingested with zero stock.
func (p *StockAlertPublisher) PublishOutOfStockAlert(ctx context.Context, productID, productName, sku, warehouseID, warehouseName string) error {
	event := events.NewInventoryEvent(events.InventoryOutOfStock, defaultTenant)
	event.Items = []events.InventoryItem{
		{
			ProductID:     productID,
			Name:          productName,
			SKU:           sku,
			CurrentStock:  0,
			WarehouseID:   warehouseID,
			WarehouseName: warehouseName,
		},
	}
	event.AlertLevel = "critical"
	event.AlertMessage = fmt.Sprintf("Out of stock: %s (SKU: %s) is now out of stock", productName, sku)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": productID,
			"sku":       sku,
		}).WithError(err).Error("Failed to publish inventory.out_of_stock event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"productId": productID,
		"sku":       sku,
	}).Info("Published inventory.out_of_stock event")
	return nil
}

// Close closes the underlying NATS connection
func (p *StockAlertPublisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}
