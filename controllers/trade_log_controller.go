package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"alpacabot/services/tradelog"

	"github.com/gin-gonic/gin"
)

// TradeLogController handles trade history requests
type TradeLogController struct {
	trades *tradelog.Service
	loc    *time.Location
}

// NewTradeLogController creates a new trade log controller
func NewTradeLogController(trades *tradelog.Service, loc *time.Location) *TradeLogController {
	return &TradeLogController{trades: trades, loc: loc}
}

// day parses the optional ?date=YYYY-MM-DD query, defaulting to today.
func (tc *TradeLogController) day(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().In(tc.loc), nil
	}
	return time.ParseInLocation("2006-01-02", raw, tc.loc)
}

// GetTrades returns trade records for one day
// GET /api/trades?date=2026-09-01
func (tc *TradeLogController) GetTrades(c *gin.Context) {
	day, err := tc.day(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	records, err := tc.trades.Trades(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

// GetDailyStats returns aggregated stats for one day
// GET /api/trades/daily-stats?date=2026-09-01
func (tc *TradeLogController) GetDailyStats(c *gin.Context) {
	day, err := tc.day(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	stats, err := tc.trades.DailyStats(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportTrades streams one day of trades as CSV
// GET /api/trades/export?date=2026-09-01
func (tc *TradeLogController) ExportTrades(c *gin.Context) {
	day, err := tc.day(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	records, err := tc.trades.Trades(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}

	filename := fmt.Sprintf("trades_%s.csv", day.Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write([]string{"timestamp", "symbol", "action", "shares", "price", "value", "pnl", "session", "strategy"})
	for _, r := range records {
		w.Write([]string{
			r.Timestamp.In(tc.loc).Format(time.RFC3339),
			r.Symbol,
			r.Action,
			fmt.Sprintf("%d", r.Shares),
			r.Price.StringFixed(2),
			r.Value.StringFixed(2),
			r.PnL.StringFixed(2),
			string(r.Session),
			r.Strategy,
		})
	}
}
