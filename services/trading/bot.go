// Package trading owns the bot lifecycle state machine and the scan
// orchestrator. All mutable bot state lives in one mutex-guarded aggregate;
// timer callbacks, manual commands and the status feed never touch it
// directly.
package trading

import (
	"context"
	"log"
	"sync"
	"time"

	"alpacabot/models"
	"alpacabot/services/broker"
	"alpacabot/services/session"

	"github.com/shopspring/decimal"
)

// StatusPublisher pushes status events to subscribers. Broadcast stamps the
// envelope time; StartRealtime/StopRealtime control the 1-second cadence.
type StatusPublisher interface {
	Broadcast(eventType string, data interface{})
	StartRealtime()
	StopRealtime()
}

// Notifier delivers outbound notifications. All methods are fire-and-forget;
// the bot never depends on delivery success.
type Notifier interface {
	NotifyBotStarted(sess models.Session)
	NotifyBotStopped(stats *models.DailyStats)
	NotifyTradeBuy(symbol string, shares int64, price, value decimal.Decimal, strategy string)
	NotifyTradeSell(symbol string, shares int64, price, value, pnl decimal.Decimal, strategy string)
	NotifyAllPositionsClosed(totalPnL decimal.Decimal, count int)
	NotifyError(errMsg, context string)
}

// TradeLogger persists executed trades and aggregates daily statistics.
type TradeLogger interface {
	RecordEntries(batch *models.TradeBatchResult, strategy string) error
	RecordExit(exit models.ClosedPosition, sess models.Session, strategy string) error
	DailyStats(day time.Time) (*models.DailyStats, error)
}

// Deps collects the bot's collaborators.
type Deps struct {
	Screener broker.Screener
	Executor broker.TradeExecutor
	Monitor  broker.PositionMonitor
	Accounts broker.AccountProvider
	Notifier Notifier
	Feed     StatusPublisher
	Trades   TradeLogger
	Location *time.Location
}

// Bot is the trading-session orchestrator.
type Bot struct {
	mu           sync.RWMutex
	isRunning    bool
	session      models.Session
	lastUpdate   *time.Time
	positions    []models.Position
	accountValue decimal.Decimal
	todayPnL     decimal.Decimal
	qualifying   []models.Candidate
	qualified    map[string]bool

	// scanMu enforces at-most-one scan in flight, independent of the state
	// lock: a scan spans several external calls and must not be re-entered.
	scanMu sync.Mutex

	loc *time.Location
	now func() time.Time

	screener broker.Screener
	executor broker.TradeExecutor
	monitor  broker.PositionMonitor
	accounts broker.AccountProvider
	notifier Notifier
	feed     StatusPublisher
	trades   TradeLogger

	jobsStatus func() models.ScheduledJobsStatus
}

// NewBot creates the orchestrator in the closed state.
func NewBot(deps Deps) *Bot {
	return &Bot{
		session:   models.SessionClosed,
		qualified: make(map[string]bool),
		loc:       deps.Location,
		now:       time.Now,
		screener:  deps.Screener,
		executor:  deps.Executor,
		monitor:   deps.Monitor,
		accounts:  deps.Accounts,
		notifier:  deps.Notifier,
		feed:      deps.Feed,
		trades:    deps.Trades,
	}
}

// SetJobsStatusFunc wires the scheduler's trigger bookkeeping into snapshots.
func (b *Bot) SetJobsStatusFunc(fn func() models.ScheduledJobsStatus) {
	b.jobsStatus = fn
}

// IsRunning reports whether the bot is actively trading.
func (b *Bot) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isRunning
}

// CurrentSession returns the state machine's session label.
func (b *Bot) CurrentSession() models.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// ClockSession derives the session from wall-clock time, ignoring overrides.
func (b *Bot) ClockSession() models.Session {
	return session.Current(b.now(), b.loc)
}

// Status returns a full, serializable snapshot of the bot state.
func (b *Bot) Status() models.BotStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	positions := make([]models.Position, len(b.positions))
	copy(positions, b.positions)
	qualifying := make([]models.Candidate, len(b.qualifying))
	copy(qualifying, b.qualifying)

	status := models.BotStatus{
		IsRunning:        b.isRunning,
		CurrentSession:   b.session,
		LastUpdate:       b.lastUpdate,
		Positions:        positions,
		TodayPnL:         b.todayPnL,
		AccountValue:     b.accountValue,
		QualifyingStocks: qualifying,
	}
	if b.jobsStatus != nil {
		status.ScheduledJobs = b.jobsStatus()
	}
	return status
}

// RealtimeTick builds the 1-second status payload for the feed's cadence.
func (b *Bot) RealtimeTick() models.RealtimeStatus {
	now := b.now().In(b.loc)

	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.RealtimeStatus{
		Timestamp:              now.Format("3:04:05 PM"),
		CurrentSession:         b.session,
		IsRunning:              b.isRunning,
		SecondsUntilNextMinute: session.SecondsUntilNextMinute(now),
		Positions:              len(b.positions),
		QualifyingStocks:       len(b.qualifying),
	}
}

// HandlePreMarketStart enters the pre-market session. The qualifying list is
// preserved: it persists from pre-market into market hours.
func (b *Bot) HandlePreMarketStart(ctx context.Context) {
	log.Println("Starting pre-market session")

	b.mu.Lock()
	b.isRunning = true
	b.session = models.SessionPreMarket
	b.mu.Unlock()

	b.feed.StartRealtime()
	b.publishSnapshot()
	b.notifier.NotifyBotStarted(models.SessionPreMarket)

	go b.Scan(ctx)
}

// HandleMarketStart enters the market session, carrying over any residual
// pre-market qualifying stocks.
func (b *Bot) HandleMarketStart(ctx context.Context) {
	log.Println("Starting market hours session")

	b.mu.Lock()
	b.isRunning = true
	b.session = models.SessionMarket
	b.mu.Unlock()

	b.feed.StartRealtime()
	b.publishSnapshot()
	b.notifier.NotifyBotStarted(models.SessionMarket)

	go b.Scan(ctx)
}

// HandleMarketClose finalizes the day: report, stats, stop notification,
// then state reset. The reset happens regardless of report or stats errors.
func (b *Bot) HandleMarketClose(ctx context.Context) {
	log.Println("Running market close cleanup")

	b.refreshStatus(ctx)

	if report, err := b.accounts.DailyReport(ctx); err != nil {
		log.Printf("Daily report error: %v", err)
		b.publishMessage(models.MessageError, "Daily report failed: "+err.Error())
	} else {
		b.feed.Broadcast(models.EventDailyReport, models.DailyReport{Report: report})
	}

	var stats *models.DailyStats
	if b.trades != nil {
		var err error
		stats, err = b.trades.DailyStats(b.now().In(b.loc))
		if err != nil {
			log.Printf("Daily stats error: %v", err)
			stats = nil
		}
	}
	b.notifier.NotifyBotStopped(stats)

	b.mu.Lock()
	b.isRunning = false
	b.session = models.SessionClosed
	b.qualifying = nil
	b.qualified = make(map[string]bool)
	b.mu.Unlock()

	b.feed.StopRealtime()
	b.publishSnapshot()
}

// StartManually starts the bot if the clock is inside trading hours and
// reports whether a transition happened. Outside trading hours it emits a
// warning message and leaves the state untouched.
func (b *Bot) StartManually(ctx context.Context) bool {
	switch b.ClockSession() {
	case models.SessionPreMarket:
		b.HandlePreMarketStart(ctx)
		return true
	case models.SessionMarket:
		b.HandleMarketStart(ctx)
		return true
	default:
		b.publishMessage(models.MessageWarning,
			"Market is closed. Bot will start automatically during trading hours.")
		return false
	}
}

// StopManually halts trading until the next transition, scheduled or manual.
func (b *Bot) StopManually() {
	b.mu.Lock()
	b.isRunning = false
	b.session = models.SessionManualStop
	b.mu.Unlock()

	b.feed.StopRealtime()
	b.publishSnapshot()
	b.publishMessage(models.MessageInfo, "Bot manually stopped")
	b.notifier.NotifyBotStopped(nil)

	log.Println("Bot manually stopped")
}

// CloseAllPositions liquidates everything via the executor. Session state is
// not affected.
func (b *Bot) CloseAllPositions(ctx context.Context) error {
	result, err := b.accounts.CloseAllPositions(ctx)
	if err != nil {
		log.Printf("Close all positions error: %v", err)
		b.publishMessage(models.MessageError, "Error closing positions: "+err.Error())
		b.notifier.NotifyError(err.Error(), "Close All Positions")
		return err
	}

	log.Printf("Closed %d positions", result.PositionsClosed)
	b.recordExits(result.ClosedPositions, strategyCloseAll)
	if result.PositionsClosed > 0 {
		b.notifier.NotifyAllPositionsClosed(result.TotalPnL, result.PositionsClosed)
	}
	b.publishMessage(models.MessageSuccess, "All positions closed")

	b.refreshStatus(ctx)
	return nil
}

// HandleMinuteTick is the scheduler's per-minute entry point. The heartbeat
// goes out whether or not the bot is running; the scan only runs when it is.
func (b *Bot) HandleMinuteTick(ctx context.Context) {
	b.mu.RLock()
	running, sess := b.isRunning, b.session
	b.mu.RUnlock()

	b.feed.Broadcast(models.EventScannerHeartbeat, models.ScannerHeartbeat{
		Timestamp: b.now().In(b.loc).Format("3:04:05 PM"),
		IsActive:  running,
		Session:   sess,
	})

	if !running {
		return
	}
	b.Scan(ctx)
}

// refreshStatus pulls account value, P&L and positions from the broker,
// prunes qualifying stocks that are now held, and pushes a full snapshot.
// Failures leave the previous mirror in place; the snapshot still goes out
// so earlier mutations in the same tick reach subscribers.
func (b *Bot) refreshStatus(ctx context.Context) {
	defer b.publishSnapshot()

	account, err := b.accounts.Account(ctx)
	if err != nil {
		log.Printf("Error updating account status: %v", err)
		b.publishMessage(models.MessageError, "Account refresh failed: "+err.Error())
		return
	}
	positions, err := b.accounts.Positions(ctx)
	if err != nil {
		log.Printf("Error updating positions: %v", err)
		b.publishMessage(models.MessageError, "Positions refresh failed: "+err.Error())
		return
	}

	now := b.now()
	b.mu.Lock()
	b.accountValue = account.PortfolioValue
	b.todayPnL = account.UnrealizedPL
	b.positions = positions.Positions
	b.lastUpdate = &now
	b.pruneQualifyingLocked()
	b.mu.Unlock()
}

func (b *Bot) publishSnapshot() {
	b.feed.Broadcast(models.EventBotStatus, b.Status())
}

func (b *Bot) publishMessage(severity, text string) {
	b.feed.Broadcast(models.EventMessage, models.StatusMessage{Type: severity, Text: text})
}
