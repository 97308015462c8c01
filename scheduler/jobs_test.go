package scheduler

import (
	"context"
	"testing"
	"time"
)

type noopBot struct{}

func (noopBot) HandlePreMarketStart(ctx context.Context) {}
func (noopBot) HandleMarketStart(ctx context.Context)    {}
func (noopBot) HandleMarketClose(ctx context.Context)    {}
func (noopBot) HandleMinuteTick(ctx context.Context)     {}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := NewScheduler(noopBot{}, loc)
	s.registerDailyTriggers()
	s.cron.Cron(cronEveryMinute).Tag(tagMinuteScanner).Do(func() {})
	return s
}

func TestJobsStatusAllActive(t *testing.T) {
	s := newTestScheduler(t)

	status := s.JobsStatus()
	if status.PreMarket != "active" || status.Market != "active" ||
		status.Cleanup != "active" || status.MinuteScanner != "active" {
		t.Errorf("jobs status = %+v, want all active", status)
	}
	if !s.AutoModeEnabled() {
		t.Error("auto mode should be enabled after registration")
	}
}

func TestDisableAutoModeKeepsMinuteScanner(t *testing.T) {
	s := newTestScheduler(t)

	s.DisableAutoMode()

	status := s.JobsStatus()
	if status.PreMarket != "inactive" || status.Market != "inactive" || status.Cleanup != "inactive" {
		t.Errorf("daily triggers not removed: %+v", status)
	}
	if status.MinuteScanner != "active" {
		t.Error("minute scanner must survive auto-mode disable")
	}
	if s.AutoModeEnabled() {
		t.Error("auto mode should report disabled")
	}
}

func TestEnableAutoModeIsIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	s.EnableAutoMode()
	s.EnableAutoMode()

	jobs, err := s.cron.FindJobsByTag(tagPreMarket)
	if err != nil {
		t.Fatalf("find jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("got %d pre-market jobs, want 1", len(jobs))
	}
}

func TestDisableThenEnableRestoresTriggers(t *testing.T) {
	s := newTestScheduler(t)

	s.DisableAutoMode()
	s.EnableAutoMode()

	status := s.JobsStatus()
	if status.PreMarket != "active" || status.Market != "active" || status.Cleanup != "active" {
		t.Errorf("daily triggers not restored: %+v", status)
	}
}
