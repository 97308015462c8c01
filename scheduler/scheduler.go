package scheduler

// Package scheduler provides scheduled job management for the trading bot.
// It handles:
// - Session transition triggers (pre-market, market open, market close)
// - The per-minute scanner tick and heartbeat
// - Auto-mode toggling (daily triggers on/off; the minute tick is permanent)
//
// The main scheduler is implemented in jobs.go
