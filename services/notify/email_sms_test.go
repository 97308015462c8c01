package notify

import (
	"strings"
	"testing"
	"time"

	"alpacabot/models"

	"github.com/shopspring/decimal"
)

func TestFormatBotStarted(t *testing.T) {
	msg := FormatBotStarted(models.SessionPreMarket, "4:00:00 AM")

	if !strings.Contains(msg, "STARTED") {
		t.Errorf("message missing STARTED: %q", msg)
	}
	if !strings.Contains(msg, "premarket session") {
		t.Errorf("message missing session: %q", msg)
	}
	if !strings.Contains(msg, "4:00:00 AM ET") {
		t.Errorf("message missing timestamp: %q", msg)
	}
}

func TestFormatBotStoppedWithStats(t *testing.T) {
	stats := &models.DailyStats{
		TotalTrades:   4,
		WinningTrades: 3,
		LosingTrades:  1,
		WinRate:       75,
		TotalPnL:      decimal.NewFromFloat(123.45),
		Volume:        decimal.NewFromInt(20000),
	}
	msg := FormatBotStopped(stats, "4:00:00 PM")

	for _, want := range []string{"STOPPED", "P&L: $123.45", "Trades: 4", "Win rate: 75.0%", "Volume: $20000"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %q", want, msg)
		}
	}
}

func TestFormatBotStoppedWithoutStats(t *testing.T) {
	msg := FormatBotStopped(nil, "10:15:00 AM")

	if !strings.Contains(msg, "Trading session complete.") {
		t.Errorf("manual stop message missing sign-off: %q", msg)
	}
	if strings.Contains(msg, "P&L") {
		t.Errorf("manual stop message should have no summary: %q", msg)
	}
}

func TestServiceDisabledWithoutCredentials(t *testing.T) {
	svc := NewEmailSMSService("smtp.gmail.com", 587, "", "", "", true, time.UTC)

	if svc.Enabled {
		t.Error("service should disable itself without credentials")
	}
	if svc.Configured() {
		t.Error("service should not report configured")
	}
	if err := svc.SendSMSNow("test"); err == nil {
		t.Error("SendSMSNow should fail while disabled")
	}
}
