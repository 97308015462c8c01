package tradelog

import (
	"testing"
	"time"

	"alpacabot/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.MigrateTradeLogModels(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return NewService(db, loc)
}

func TestRecordEntriesAndQuery(t *testing.T) {
	svc := newTestService(t)

	batch := &models.TradeBatchResult{
		SuccessfulTrades: 2,
		Trades: []models.TradeResult{
			{Symbol: "AAPL", Shares: 10, EntryPrice: decimal.NewFromInt(180), Allocation: decimal.NewFromInt(1800), Session: models.SessionPreMarket},
			{Symbol: "MSFT", Shares: 5, EntryPrice: decimal.NewFromInt(400), Allocation: decimal.NewFromInt(2000), Session: models.SessionPreMarket},
		},
	}
	if err := svc.RecordEntries(batch, "Pre-market Pattern"); err != nil {
		t.Fatalf("record entries: %v", err)
	}

	records, err := svc.Trades(time.Now())
	if err != nil {
		t.Fatalf("query trades: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.Action != "BUY" {
			t.Errorf("record %s action = %q, want BUY", r.Symbol, r.Action)
		}
	}
}

func TestRecordEntriesEmptyBatch(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RecordEntries(&models.TradeBatchResult{}, ""); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
	if err := svc.RecordEntries(nil, ""); err != nil {
		t.Fatalf("nil batch should be a no-op: %v", err)
	}
}

func TestDailyStats(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RecordEntries(&models.TradeBatchResult{
		Trades: []models.TradeResult{
			{Symbol: "AAPL", Shares: 10, EntryPrice: decimal.NewFromInt(180), Allocation: decimal.NewFromInt(1800), Session: models.SessionMarket},
		},
	}, "Market Hours Pattern"); err != nil {
		t.Fatalf("record entries: %v", err)
	}
	if err := svc.RecordExit(models.ClosedPosition{
		Symbol: "AAPL", Shares: 10, Price: decimal.NewFromInt(185), Value: decimal.NewFromInt(1850), PnL: decimal.NewFromInt(50),
	}, models.SessionMarket, "MACD Exit"); err != nil {
		t.Fatalf("record exit: %v", err)
	}
	if err := svc.RecordExit(models.ClosedPosition{
		Symbol: "TSLA", Shares: 4, Price: decimal.NewFromInt(240), PnL: decimal.NewFromInt(-20),
	}, models.SessionMarket, "MACD Exit"); err != nil {
		t.Fatalf("record exit: %v", err)
	}

	stats, err := svc.DailyStats(time.Now())
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if stats.TotalTrades != 2 {
		t.Errorf("totalTrades = %d, want 2", stats.TotalTrades)
	}
	if stats.WinningTrades != 1 || stats.LosingTrades != 1 {
		t.Errorf("win/loss = %d/%d, want 1/1", stats.WinningTrades, stats.LosingTrades)
	}
	if stats.WinRate != 50 {
		t.Errorf("winRate = %v, want 50", stats.WinRate)
	}
	if !stats.TotalPnL.Equal(decimal.NewFromInt(30)) {
		t.Errorf("totalPnL = %s, want 30", stats.TotalPnL)
	}
}

func TestDailyStatsEmptyDay(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.DailyStats(time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if stats.TotalTrades != 0 || stats.WinRate != 0 {
		t.Errorf("empty day stats = %+v", stats)
	}
}
