package session

import (
	"testing"
	"time"

	"alpacabot/models"
)

func etLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

func TestCurrentSessionTable(t *testing.T) {
	loc := etLocation(t)

	// 2026-09-01 is a Tuesday.
	cases := []struct {
		name string
		hour int
		min  int
		sec  int
		want models.Session
	}{
		{"before premarket", 3, 59, 59, models.SessionClosed},
		{"premarket open boundary", 4, 0, 0, models.SessionPreMarket},
		{"mid premarket", 7, 15, 0, models.SessionPreMarket},
		{"last premarket minute", 9, 29, 59, models.SessionPreMarket},
		{"market open boundary", 9, 30, 0, models.SessionMarket},
		{"mid market", 12, 0, 0, models.SessionMarket},
		{"last market second", 15, 59, 59, models.SessionMarket},
		{"market close boundary", 16, 0, 0, models.SessionAfterHours},
		{"mid afterhours", 18, 30, 0, models.SessionAfterHours},
		{"afterhours end boundary", 20, 0, 0, models.SessionClosed},
		{"late evening", 23, 0, 0, models.SessionClosed},
		{"midnight", 0, 0, 0, models.SessionClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := time.Date(2026, 9, 1, tc.hour, tc.min, tc.sec, 0, loc)
			if got := Current(now, loc); got != tc.want {
				t.Errorf("Current(%02d:%02d:%02d) = %s, want %s", tc.hour, tc.min, tc.sec, got, tc.want)
			}
		})
	}
}

func TestCurrentSessionWeekend(t *testing.T) {
	loc := etLocation(t)

	// 2026-09-05 is a Saturday, 2026-09-06 a Sunday.
	for _, day := range []int{5, 6} {
		now := time.Date(2026, 9, day, 12, 0, 0, 0, loc)
		if got := Current(now, loc); got != models.SessionClosed {
			t.Errorf("weekend day %d: Current = %s, want closed", day, got)
		}
	}
}

func TestCurrentConvertsToLocation(t *testing.T) {
	loc := etLocation(t)

	// 14:00 UTC on a Tuesday is 10:00 ET (EDT), which is market hours.
	now := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	if got := Current(now, loc); got != models.SessionMarket {
		t.Errorf("Current(14:00 UTC) = %s, want market", got)
	}
}

func TestSecondsUntilNextMinute(t *testing.T) {
	loc := etLocation(t)

	cases := []struct {
		sec  int
		want int
	}{
		{0, 60},
		{1, 59},
		{30, 30},
		{59, 1},
	}
	for _, tc := range cases {
		now := time.Date(2026, 9, 1, 10, 0, tc.sec, 0, loc)
		if got := SecondsUntilNextMinute(now); got != tc.want {
			t.Errorf("SecondsUntilNextMinute(:%02d) = %d, want %d", tc.sec, got, tc.want)
		}
	}
}

func TestNext(t *testing.T) {
	loc := etLocation(t)

	cases := []struct {
		name string
		now  time.Time
		want NextSession
	}{
		{"premarket", time.Date(2026, 9, 1, 5, 0, 0, 0, loc), NextSession{"market", "9:30 AM"}},
		{"market", time.Date(2026, 9, 1, 11, 0, 0, 0, loc), NextSession{"close", "4:00 PM"}},
		{"afterhours", time.Date(2026, 9, 1, 17, 0, 0, 0, loc), NextSession{"premarket", "4:00 AM (next day)"}},
		{"early morning", time.Date(2026, 9, 1, 2, 0, 0, 0, loc), NextSession{"premarket", "4:00 AM"}},
		{"weekend", time.Date(2026, 9, 5, 12, 0, 0, 0, loc), NextSession{"premarket", "Monday 4:00 AM"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Next(tc.now, loc); got != tc.want {
				t.Errorf("Next = %+v, want %+v", got, tc.want)
			}
		})
	}
}
