// Package broker defines the narrow contracts to the external trading
// collaborators (screener, executor, position monitor, brokerage data) and
// provides the Python subprocess implementation behind them.
package broker

import (
	"context"

	"alpacabot/models"
)

// Screener finds trade candidates for a session.
type Screener interface {
	Screen(ctx context.Context, session models.Session) ([]models.Candidate, error)
}

// TradeExecutor enters positions for a batch of candidates.
type TradeExecutor interface {
	ExecuteTrades(ctx context.Context, req models.TradeRequest) (*models.TradeBatchResult, error)
}

// PositionMonitor checks open positions for exit signals.
type PositionMonitor interface {
	MonitorPositions(ctx context.Context) (*models.MonitorResult, error)
}

// AccountProvider exposes brokerage account, position and order data.
type AccountProvider interface {
	Account(ctx context.Context) (*models.AccountInfo, error)
	Positions(ctx context.Context) (*models.PositionList, error)
	Orders(ctx context.Context) (*models.OrderList, error)
	CloseAllPositions(ctx context.Context) (*models.CloseAllResult, error)
	DailyReport(ctx context.Context) (models.RawReport, error)
}
