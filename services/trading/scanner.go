package trading

import (
	"context"
	"fmt"
	"log"

	"alpacabot/models"
)

// Strategy labels attached to trade notifications and log records.
const (
	strategyPreMarket = "Pre-market Pattern"
	strategyMarket    = "Market Hours Pattern"
	strategyMACDExit  = "MACD Exit"
	strategyCloseAll  = "Close All Positions"
)

// Scan runs one full scan cycle: screen, dedupe, execute new entries, emit
// the scan result, and (during market hours) monitor positions. If a scan is
// already in flight the call returns immediately.
func (b *Bot) Scan(ctx context.Context) {
	if !b.scanMu.TryLock() {
		log.Println("Scan already in progress, skipping")
		return
	}
	defer b.scanMu.Unlock()

	b.mu.RLock()
	running, sess := b.isRunning, b.session
	b.mu.RUnlock()

	if !running {
		return
	}
	if sess != models.SessionPreMarket && sess != models.SessionMarket {
		return
	}

	candidates, err := b.screener.Screen(ctx, sess)
	if err != nil {
		log.Printf("Scanner error: %v", err)
		b.feed.Broadcast(models.EventScannerError, models.ScannerError{
			Timestamp: b.now().In(b.loc).Format("3:04:05 PM"),
			Error:     err.Error(),
		})
		return
	}

	newOpportunities, totalQualifying := b.acceptCandidates(candidates)

	if len(newOpportunities) > 0 {
		b.enterPositions(ctx, newOpportunities, sess)
	}

	b.feed.Broadcast(models.EventScanResults, models.ScanResult{
		Timestamp:        b.now().In(b.loc).Format("3:04:05 PM"),
		Session:          sess,
		NewOpportunities: len(newOpportunities),
		TotalQualifying:  totalQualifying,
	})

	if sess == models.SessionMarket {
		b.monitorPositions(ctx)
	}

	b.refreshStatus(ctx)
}

// acceptCandidates filters the screener output against held positions and
// everything already qualified today, then admits the rest. A symbol is
// qualified at most once per day.
func (b *Bot) acceptCandidates(candidates []models.Candidate) ([]models.Candidate, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	held := make(map[string]bool, len(b.positions))
	for _, p := range b.positions {
		held[p.Symbol] = true
	}

	var accepted []models.Candidate
	for _, c := range candidates {
		if held[c.Symbol] || b.qualified[c.Symbol] {
			continue
		}
		b.qualified[c.Symbol] = true
		b.qualifying = append(b.qualifying, c)
		accepted = append(accepted, c)
	}
	return accepted, len(b.qualifying)
}

// pruneQualifyingLocked drops qualifying stocks that have become held
// positions, typically because this scan just bought them. The qualified set
// keeps the symbol so it cannot requalify today. Caller holds b.mu.
func (b *Bot) pruneQualifyingLocked() {
	if len(b.qualifying) == 0 {
		return
	}
	held := make(map[string]bool, len(b.positions))
	for _, p := range b.positions {
		held[p.Symbol] = true
	}

	kept := b.qualifying[:0]
	for _, c := range b.qualifying {
		if !held[c.Symbol] {
			kept = append(kept, c)
		}
	}
	b.qualifying = kept
}

// enterPositions sends the new opportunities to the executor and records
// what filled.
func (b *Bot) enterPositions(ctx context.Context, stocks []models.Candidate, sess models.Session) {
	strategy := strategyMarket
	if sess == models.SessionPreMarket {
		strategy = strategyPreMarket
	}

	result, err := b.executor.ExecuteTrades(ctx, models.TradeRequest{
		Stocks:             stocks,
		Session:            sess,
		AllocationStrategy: models.AllocationEvenSplit,
	})
	if err != nil {
		log.Printf("Trade execution error: %v", err)
		b.publishMessage(models.MessageError, "Trade execution failed: "+err.Error())
		b.notifier.NotifyError(err.Error(), "Trade Execution")
		return
	}

	log.Printf("Executed %d trades, %d failed, $%s allocated",
		result.SuccessfulTrades, result.FailedTrades, result.TotalAllocated.StringFixed(2))

	if b.trades != nil {
		if err := b.trades.RecordEntries(result, strategy); err != nil {
			log.Printf("Trade log error: %v", err)
		}
	}
	for _, t := range result.Trades {
		b.notifier.NotifyTradeBuy(t.Symbol, t.Shares, t.EntryPrice, t.Allocation, strategy)
	}

	b.publishMessage(models.MessageInfo,
		fmt.Sprintf("Real-time scan found %d new opportunities", len(stocks)))
}

// monitorPositions runs the exit-signal check during market hours.
func (b *Bot) monitorPositions(ctx context.Context) {
	b.mu.RLock()
	open := len(b.positions)
	b.mu.RUnlock()
	if open == 0 {
		return
	}

	result, err := b.monitor.MonitorPositions(ctx)
	if err != nil {
		log.Printf("Position monitor error: %v", err)
		b.publishMessage(models.MessageError, "Position monitoring failed: "+err.Error())
		return
	}

	if result.ExitsTriggered > 0 {
		b.publishMessage(models.MessageWarning,
			fmt.Sprintf("MACD exit triggered for %d positions", result.ExitsTriggered))
	}
	b.recordExits(result.ClosedPositions, strategyMACDExit)
	for _, w := range result.Warnings {
		log.Printf("Monitor warning: %s", w)
	}
}

// recordExits logs SELL rows and sends sell notifications for exit fills.
func (b *Bot) recordExits(exits []models.ClosedPosition, strategy string) {
	if len(exits) == 0 {
		return
	}

	b.mu.RLock()
	sess := b.session
	b.mu.RUnlock()

	for _, e := range exits {
		if b.trades != nil {
			if err := b.trades.RecordExit(e, sess, strategy); err != nil {
				log.Printf("Trade log error: %v", err)
			}
		}
		b.notifier.NotifyTradeSell(e.Symbol, e.Shares, e.Price, e.Value, e.PnL, strategy)
	}
}
