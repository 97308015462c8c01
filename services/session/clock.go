// Package session derives the current trading session from wall-clock time.
package session

import (
	"time"

	"alpacabot/models"
)

// Session boundaries in minutes from midnight, US equities schedule.
// Lower bounds inclusive, upper bounds exclusive: 09:30:00 is market.
const (
	preMarketOpen = 4 * 60
	marketOpen    = 9*60 + 30
	marketClose   = 16 * 60
	afterHoursEnd = 20 * 60
)

// Current returns the session label for t evaluated in loc.
// Weekends are always closed. ManualStop is never derived here; it is an
// override owned by the bot's state machine.
func Current(t time.Time, loc *time.Location) models.Session {
	t = t.In(loc)

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return models.SessionClosed
	}

	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= preMarketOpen && m < marketOpen:
		return models.SessionPreMarket
	case m >= marketOpen && m < marketClose:
		return models.SessionMarket
	case m >= marketClose && m < afterHoursEnd:
		return models.SessionAfterHours
	default:
		return models.SessionClosed
	}
}

// SecondsUntilNextMinute reports the seconds remaining until the next
// minute boundary, used by the realtime status tick.
func SecondsUntilNextMinute(t time.Time) int {
	return 60 - t.Second()
}

// NextSession describes the upcoming session change for display purposes.
type NextSession struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Next returns the upcoming session change following t.
func Next(t time.Time, loc *time.Location) NextSession {
	t = t.In(loc)

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return NextSession{Name: "premarket", Time: "Monday 4:00 AM"}
	}

	switch Current(t, loc) {
	case models.SessionPreMarket:
		return NextSession{Name: "market", Time: "9:30 AM"}
	case models.SessionMarket:
		return NextSession{Name: "close", Time: "4:00 PM"}
	case models.SessionAfterHours:
		return NextSession{Name: "premarket", Time: "4:00 AM (next day)"}
	default:
		if t.Hour() < 4 {
			return NextSession{Name: "premarket", Time: "4:00 AM"}
		}
		return NextSession{Name: "premarket", Time: "4:00 AM (next day)"}
	}
}
