package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeRecord is one logged fill. BUY rows are written when the executor
// reports an entry; SELL rows when the monitor or close-all reports an exit.
type TradeRecord struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time       `gorm:"index" json:"timestamp"`
	Symbol     string          `gorm:"index" json:"symbol"`
	Action     string          `json:"action"` // BUY, SELL
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
	Value      decimal.Decimal `gorm:"type:decimal(20,2)" json:"value"`
	StopLoss   decimal.Decimal `gorm:"type:decimal(15,2)" json:"stopLoss"`
	TakeProfit decimal.Decimal `gorm:"type:decimal(15,2)" json:"takeProfit"`
	PnL        decimal.Decimal `gorm:"type:decimal(20,2)" json:"pnl"`
	Session    Session         `json:"session"`
	Strategy   string          `json:"strategy"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MigrateTradeLogModels runs database migrations for trade log models
func MigrateTradeLogModels(db *gorm.DB) error {
	return db.AutoMigrate(&TradeRecord{})
}
