package models

import "encoding/json"

// Status event types pushed to websocket subscribers. Consumers switch on
// Type and decode Data into the matching payload struct.
const (
	EventBotStatus        = "botStatus"
	EventRealtimeStatus   = "realtimeStatus"
	EventScanResults      = "scanResults"
	EventScannerHeartbeat = "scannerHeartbeat"
	EventScannerError     = "scannerError"
	EventMessage          = "message"
	EventDailyReport      = "dailyReport"
)

// StatusEvent is the wire envelope for all subscriber pushes.
type StatusEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// Message severities.
const (
	MessageInfo    = "info"
	MessageSuccess = "success"
	MessageWarning = "warning"
	MessageError   = "error"
)

// StatusMessage is a user-facing notice (info, success, warning, error).
type StatusMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RealtimeStatus is the 1-second tick emitted while the bot is running.
type RealtimeStatus struct {
	Timestamp              string  `json:"timestamp"`
	CurrentSession         Session `json:"currentSession"`
	IsRunning              bool    `json:"isRunning"`
	SecondsUntilNextMinute int     `json:"secondsUntilNextMinute"`
	Positions              int     `json:"positions"`
	QualifyingStocks       int     `json:"qualifyingStocks"`
}

// ScanResult is emitted exactly once per completed scan, empty or not.
type ScanResult struct {
	Timestamp        string  `json:"timestamp"`
	Session          Session `json:"session"`
	NewOpportunities int     `json:"newOpportunities"`
	TotalQualifying  int     `json:"totalQualifying"`
}

// ScannerHeartbeat is emitted on every minute tick, running or not.
type ScannerHeartbeat struct {
	Timestamp string  `json:"timestamp"`
	IsActive  bool    `json:"isActive"`
	Session   Session `json:"session"`
}

// ScannerError surfaces a scan-loop failure to subscribers.
type ScannerError struct {
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// DailyReport carries the end-of-day report payload opaquely.
type DailyReport struct {
	Report json.RawMessage `json:"report"`
}
