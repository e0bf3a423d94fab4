package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoStockRecord is returned when a recommendation is requested for a
// pair that has no inventory row.
var ErrNoStockRecord = errors.New("no inventory record for this product and warehouse")

// ErrNoForecast is returned when a recommendation is requested for a pair
// without a stored forecast horizon.
var ErrNoForecast = errors.New("no stored forecast for this product and warehouse")

// serviceLevelZ targets a 95% cycle service level.
const serviceLevelZ = 1.65

// defaultLeadTimeDays is assumed when the stock record carries no supplier
// lead time.
const defaultLeadTimeDays = 7

// Recommendation is a reorder suggestion for one (product, warehouse) pair,
// derived from the stored forecast horizon and the current stock tuple.
type Recommendation struct {
	ProductID       uuid.UUID `json:"productId"`
	WarehouseID     uuid.UUID `json:"warehouseId"`
	CurrentStock    float64   `json:"currentStock"`
	LeadTimeDays    int       `json:"leadTimeDays"`
	LeadTimeDemand  float64   `json:"leadTimeDemand"`
	SafetyStock     float64   `json:"safetyStock"`
	ReorderQuantity float64   `json:"reorderQuantity"`
	ShouldReorder   bool      `json:"shouldReorder"`
}

// safetyStock sizes the buffer for demand variability over the lead time.
func safetyStock(z, demandStd, leadTimeDays float64) float64 {
	return z * demandStd * math.Sqrt(leadTimeDays)
}

// Recommend suggests how many units to order so that stock covers expected
// demand over the supplier lead time plus a safety buffer.
func (s *Service) Recommend(productID, warehouseID uuid.UUID) (*Recommendation, error) {
	item, err := s.repo.GetInventoryItem(productID, warehouseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStockRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}

	forecasts, err := s.repo.ListForecasts(productID, &warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load forecasts: %w", err)
	}
	if len(forecasts) == 0 {
		return nil, ErrNoForecast
	}

	lead := item.LeadTimeDays
	if lead <= 0 {
		lead = defaultLeadTimeDays
	}

	var demand float64
	for i, f := range forecasts {
		if i >= lead {
			break
		}
		if f.ForecastValue > 0 {
			demand += f.ForecastValue
		}
	}
	// A horizon shorter than the lead time extends its last day over the
	// uncovered tail.
	if lead > len(forecasts) {
		if last := forecasts[len(forecasts)-1].ForecastValue; last > 0 {
			demand += last * float64(lead-len(forecasts))
		}
	}

	// The day-one band is symmetric around the point estimate, so the
	// one-day demand deviation falls straight out of it.
	var demandStd float64
	if first := forecasts[0]; first.ConfidenceUpper != nil {
		demandStd = (*first.ConfidenceUpper - first.ForecastValue) / 1.96
	}

	buffer := safetyStock(serviceLevelZ, demandStd, float64(lead))
	quantity := math.Ceil(demand + buffer - item.CurrentStock)
	if quantity < 0 {
		quantity = 0
	}

	return &Recommendation{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		CurrentStock:    item.CurrentStock,
		LeadTimeDays:    lead,
		LeadTimeDemand:  demand,
		SafetyStock:     buffer,
		ReorderQuantity: quantity,
		ShouldReorder:   quantity > 0,
	}, nil
}
