package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AccountInfo is the brokerage account summary.
type AccountInfo struct {
	AccountID      string          `json:"account_id"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	Cash           decimal.Decimal `json:"cash"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	Equity         decimal.Decimal `json:"equity"`
	UnrealizedPL   decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPc decimal.Decimal `json:"unrealized_plpc"`
	DayTradeCount  int             `json:"day_trade_count"`
}

// PositionList is the positions query response.
type PositionList struct {
	Positions          []Position      `json:"positions"`
	TotalPositions     int             `json:"total_positions"`
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalUnrealizedPL  decimal.Decimal `json:"total_unrealized_pl"`
}

// Order mirrors a brokerage order.
type Order struct {
	ID            string           `json:"id"`
	Symbol        string           `json:"symbol"`
	Qty           decimal.Decimal  `json:"qty"`
	FilledQty     decimal.Decimal  `json:"filled_qty"`
	Side          string           `json:"side"`
	OrderType     string           `json:"order_type"`
	TimeInForce   string           `json:"time_in_force"`
	LimitPrice    *decimal.Decimal `json:"limit_price"`
	StopPrice     *decimal.Decimal `json:"stop_price"`
	Status        string           `json:"status"`
	ExtendedHours bool             `json:"extended_hours"`
}

// OrderList is the orders query response.
type OrderList struct {
	Orders      []Order `json:"orders"`
	TotalOrders int     `json:"total_orders"`
}

// TradeResult is one executed entry reported by the trade executor.
type TradeResult struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Allocation decimal.Decimal `json:"allocation"`
	Session    Session         `json:"session"`
	Timestamp  string          `json:"timestamp"`
}

// TradeBatchResult is the executor response for one batch of candidates.
type TradeBatchResult struct {
	SuccessfulTrades int             `json:"successful_trades"`
	FailedTrades     int             `json:"failed_trades"`
	TotalAllocated   decimal.Decimal `json:"total_allocated"`
	Trades           []TradeResult   `json:"trades"`
}

// TradeRequest is the executor input: candidates to enter plus sizing policy.
type TradeRequest struct {
	Stocks             []Candidate `json:"stocks"`
	Session            Session     `json:"session"`
	AllocationStrategy string      `json:"allocation_strategy"`
}

// AllocationEvenSplit allocates 100% of the account evenly across candidates.
const AllocationEvenSplit = "100_percent_even_split"

// ClosedPosition is one exit fill reported by the monitor or the closer.
type ClosedPosition struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"qty"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"market_value"`
	PnL    decimal.Decimal `json:"pnl"`
	Reason string          `json:"reason,omitempty"`
}

// MonitorResult is the position monitor response (exit-signal check).
type MonitorResult struct {
	PositionsClosed int              `json:"positions_closed"`
	ExitsTriggered  int              `json:"exits_triggered"`
	ClosedPositions []ClosedPosition `json:"closed_positions"`
	Warnings        []string         `json:"warnings"`
}

// CloseAllResult is the close-all-positions response.
type CloseAllResult struct {
	PositionsClosed int              `json:"positions_closed"`
	TotalPnL        decimal.Decimal  `json:"total_pnl"`
	ClosedPositions []ClosedPosition `json:"closed_positions"`
}

// RawReport is the daily report payload, forwarded without interpretation.
type RawReport = json.RawMessage
