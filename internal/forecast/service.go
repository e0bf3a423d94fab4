package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"
)

// ErrInsufficientHistory is returned when a product does not have enough
// distinct sale days to forecast from.
var ErrInsufficientHistory = errors.New("not enough sales history to forecast")

// Service aggregates sales into daily demand, runs the model and persists
// the resulting horizon.
type Service struct {
	repo       *repository.InventoryRepository
	model      Forecaster
	horizon    int
	minHistory int
	logger     *logrus.Entry
}

func NewService(repo *repository.InventoryRepository, model Forecaster, horizon, minHistory int, logger *logrus.Logger) *Service {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		repo:       repo,
		model:      model,
		horizon:    horizon,
		minHistory: minHistory,
		logger:     log.WithField("component", "forecast"),
	}
}

// GenerateForPair forecasts one (product, warehouse) pair and replaces its
// stored horizon.
func (s *Service) GenerateForPair(productID, warehouseID uuid.UUID) ([]models.Forecast, error) {
	sales, err := s.repo.SalesSeries(productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	history := aggregateDaily(sales)
	if len(history) < s.minHistory {
		return nil, fmt.Errorf("%w: have %d days, need %d", ErrInsufficientHistory, len(history), s.minHistory)
	}

	predictions := s.model.Forecast(history, s.horizon)
	version := s.model.Version()

	forecasts := make([]models.Forecast, len(predictions))
	for i, p := range predictions {
		lower, upper := p.Lower, p.Upper
		forecasts[i] = models.Forecast{
			ProductID:       productID,
			WarehouseID:     warehouseID,
			ForecastDate:    p.Date,
			ForecastValue:   p.Value,
			ConfidenceLower: &lower,
			ConfidenceUpper: &upper,
			ModelName:       s.model.Name(),
			ModelVersion:    &version,
		}
	}

	if err := s.repo.ReplaceForecasts(productID, warehouseID, s.model.Name(), forecasts); err != nil {
		return nil, fmt.Errorf("failed to store forecasts: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"productId":   productID,
		"warehouseId": warehouseID,
		"historyDays": len(history),
		"horizon":     len(forecasts),
	}).Info("Forecast generated")
	return forecasts, nil
}

// GenerateSummary reports one GenerateAll run.
type GenerateSummary struct {
	PairsTotal      int `json:"pairsTotal"`
	PairsForecasted int `json:"pairsForecasted"`
	PairsSkipped    int `json:"pairsSkipped"`
	PairsFailed     int `json:"pairsFailed"`
}

// GenerateAll forecasts every (product, warehouse) pair with sales history.
// Pairs with too little history are skipped, not failed.
func (s *Service) GenerateAll() (*GenerateSummary, error) {
	pairs, err := s.repo.SoldProductPairs()
	if err != nil {
		return nil, fmt.Errorf("failed to list sold products: %w", err)
	}

	summary := &GenerateSummary{PairsTotal: len(pairs)}
	for _, pair := range pairs {
		_, err := s.GenerateForPair(pair[0], pair[1])
		switch {
		case errors.Is(err, ErrInsufficientHistory):
			summary.PairsSkipped++
		case err != nil:
			summary.PairsFailed++
			s.logger.WithFields(logrus.Fields{
				"productId":   pair[0],
				"warehouseId": pair[1],
			}).WithError(err).Error("Forecast generation failed")
		default:
			summary.PairsForecasted++
		}
	}
	return summary, nil
}

// aggregateDaily sums sale quantities per calendar day, in date order.
func aggregateDaily(sales []models.Sale) []Point {
	if len(sales) == 0 {
		return nil
	}

	totals := make(map[time.Time]float64)
	var days []time.Time
	for _, sale := range sales {
		day := time.Date(sale.SaleDate.Year(), sale.SaleDate.Month(), sale.SaleDate.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := totals[day]; !ok {
			days = append(days, day)
		}
		totals[day] += sale.Quantity
	}

	points := make([]Point, len(days))
	for i, day := range days {
		points[i] = Point{Date: day, Value: totals[day]}
	}
	return points
}
