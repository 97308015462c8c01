// Package tradelog persists executed trades and aggregates them into the
// daily statistics used by the end-of-day summary.
package tradelog

import (
	"fmt"
	"time"

	"alpacabot/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service reads and writes trade records.
type Service struct {
	db  *gorm.DB
	loc *time.Location
}

// NewService creates the trade log over an initialized database.
func NewService(db *gorm.DB, loc *time.Location) *Service {
	return &Service{db: db, loc: loc}
}

// RecordEntries writes BUY rows for every fill in an executor batch.
func (s *Service) RecordEntries(batch *models.TradeBatchResult, strategy string) error {
	if batch == nil || len(batch.Trades) == 0 {
		return nil
	}

	records := make([]models.TradeRecord, 0, len(batch.Trades))
	now := time.Now().In(s.loc)
	for _, t := range batch.Trades {
		records = append(records, models.TradeRecord{
			Timestamp: now,
			Symbol:    t.Symbol,
			Action:    "BUY",
			Shares:    t.Shares,
			Price:     t.EntryPrice,
			Value:     t.Allocation,
			Session:   t.Session,
			Strategy:  strategy,
		})
	}

	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("record trade entries: %w", err)
	}
	return nil
}

// RecordExit writes a SELL row with its realized P&L.
func (s *Service) RecordExit(exit models.ClosedPosition, sess models.Session, strategy string) error {
	value := exit.Value
	if value.IsZero() {
		value = exit.Price.Mul(decimal.NewFromInt(exit.Shares))
	}
	record := models.TradeRecord{
		Timestamp: time.Now().In(s.loc),
		Symbol:    exit.Symbol,
		Action:    "SELL",
		Shares:    exit.Shares,
		Price:     exit.Price,
		Value:     value,
		PnL:       exit.PnL,
		Session:   sess,
		Strategy:  strategy,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("record trade exit: %w", err)
	}
	return nil
}

// Trades returns records for one day, newest first.
func (s *Service) Trades(day time.Time) ([]models.TradeRecord, error) {
	start, end := dayRange(day, s.loc)

	var records []models.TradeRecord
	err := s.db.
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return records, nil
}

// DailyStats aggregates one day of records. Win/loss counts and P&L come
// from SELL rows; volume counts both sides.
func (s *Service) DailyStats(day time.Time) (*models.DailyStats, error) {
	records, err := s.Trades(day)
	if err != nil {
		return nil, err
	}

	stats := &models.DailyStats{}
	for _, r := range records {
		stats.Volume = stats.Volume.Add(r.Value)
		if r.Action != "SELL" {
			continue
		}
		stats.TotalTrades++
		stats.TotalPnL = stats.TotalPnL.Add(r.PnL)
		if r.PnL.IsPositive() {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	return stats, nil
}

func dayRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
