package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Session represents a named phase of the trading day.
type Session string

const (
	SessionClosed     Session = "closed"
	SessionPreMarket  Session = "premarket"
	SessionMarket     Session = "market"
	SessionAfterHours Session = "afterhours"
	SessionManualStop Session = "manual_stop"
)

// Candidate is a stock reported by the screener as meeting trade criteria
// for the current session. Immutable once qualified.
type Candidate struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	Session       Session         `json:"session,omitempty"`
	// Indicators is the screener's technical snapshot, carried opaquely.
	Indicators json.RawMessage `json:"indicators,omitempty"`
}

// Position mirrors a broker position, read-only from the bot's perspective.
type Position struct {
	Symbol          string          `json:"symbol"`
	Qty             decimal.Decimal `json:"qty"`
	Side            string          `json:"side"`
	MarketValue     decimal.Decimal `json:"market_value"`
	CostBasis       decimal.Decimal `json:"cost_basis"`
	UnrealizedPL    decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPct decimal.Decimal `json:"unrealized_plpc"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	AvgEntryPrice   decimal.Decimal `json:"avg_entry_price"`
	ChangeToday     decimal.Decimal `json:"change_today"`
}

// ScheduledJobsStatus reports trigger liveness as plain strings so snapshots
// stay serializable (no scheduler handles cross the wire).
type ScheduledJobsStatus struct {
	PreMarket     string `json:"premarket"`
	Market        string `json:"market"`
	Cleanup       string `json:"cleanup"`
	MinuteScanner string `json:"minuteScanner"`
}

// BotStatus is the full snapshot pushed to subscribers and returned by the
// status query endpoints. Plain data only.
type BotStatus struct {
	IsRunning        bool                `json:"isRunning"`
	CurrentSession   Session             `json:"currentSession"`
	LastUpdate       *time.Time          `json:"lastUpdate"`
	Positions        []Position          `json:"positions"`
	TodayPnL         decimal.Decimal     `json:"todayPnL"`
	AccountValue     decimal.Decimal     `json:"accountValue"`
	QualifyingStocks []Candidate         `json:"qualifyingStocks"`
	ScheduledJobs    ScheduledJobsStatus `json:"scheduledJobs"`
}

// DailyStats aggregates one day of closed trades for the end-of-day summary.
type DailyStats struct {
	TotalTrades   int             `json:"totalTrades"`
	WinningTrades int             `json:"winningTrades"`
	LosingTrades  int             `json:"losingTrades"`
	WinRate       float64         `json:"winRate"`
	TotalPnL      decimal.Decimal `json:"totalPnL"`
	Volume        decimal.Decimal `json:"volume"`
}
