package scheduler

import (
	"context"
	"log"
	"time"

	"alpacabot/models"

	"github.com/go-co-op/gocron"
)

// Cron expressions for the trading day, evaluated in the trading timezone.
// Weekdays only; weekend firings never happen.
const (
	cronPreMarket   = "0 4 * * 1-5"  // 4:00 AM ET
	cronMarketOpen  = "30 9 * * 1-5" // 9:30 AM ET
	cronMarketClose = "0 16 * * 1-5" // 4:00 PM ET
	cronEveryMinute = "* * * * 1-5"
)

// Job tags, used for auto-mode removal and status reporting.
const (
	tagPreMarket     = "premarket"
	tagMarket        = "market"
	tagCleanup       = "cleanup"
	tagMinuteScanner = "minute_scanner"
)

// BotHandler is the set of transitions the scheduler drives.
type BotHandler interface {
	HandlePreMarketStart(ctx context.Context)
	HandleMarketStart(ctx context.Context)
	HandleMarketClose(ctx context.Context)
	HandleMinuteTick(ctx context.Context)
}

// Scheduler manages the bot's scheduled triggers
type Scheduler struct {
	cron *gocron.Scheduler
	bot  BotHandler
}

// NewScheduler creates a new scheduler instance. Schedules are evaluated in
// the given location so ET wall-clock times track DST.
func NewScheduler(bot BotHandler, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: gocron.NewScheduler(loc),
		bot:  bot,
	}
}

// Start registers all triggers and starts the scheduler
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	s.registerDailyTriggers()

	// The minute scanner is permanent: it fires whether or not auto mode is
	// on, and the bot decides internally whether to scan.
	s.cron.Cron(cronEveryMinute).Tag(tagMinuteScanner).Do(s.wrap("minute scanner", s.bot.HandleMinuteTick))

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// EnableAutoMode re-registers the daily session triggers.
func (s *Scheduler) EnableAutoMode() {
	if s.autoModeEnabled() {
		return
	}
	s.registerDailyTriggers()
	log.Println("Auto mode enabled")
}

// DisableAutoMode removes the daily session triggers. The minute scanner
// keeps running.
func (s *Scheduler) DisableAutoMode() {
	s.cron.RemoveByTag(tagPreMarket)
	s.cron.RemoveByTag(tagMarket)
	s.cron.RemoveByTag(tagCleanup)
	log.Println("Auto mode disabled")
}

// AutoModeEnabled reports whether the daily triggers are registered.
func (s *Scheduler) AutoModeEnabled() bool {
	return s.autoModeEnabled()
}

// JobsStatus reports trigger liveness for status snapshots.
func (s *Scheduler) JobsStatus() models.ScheduledJobsStatus {
	return models.ScheduledJobsStatus{
		PreMarket:     jobState(s.hasTag(tagPreMarket)),
		Market:        jobState(s.hasTag(tagMarket)),
		Cleanup:       jobState(s.hasTag(tagCleanup)),
		MinuteScanner: jobState(s.hasTag(tagMinuteScanner)),
	}
}

func (s *Scheduler) registerDailyTriggers() {
	s.cron.Cron(cronPreMarket).Tag(tagPreMarket).Do(s.wrap("pre-market start", s.bot.HandlePreMarketStart))
	s.cron.Cron(cronMarketOpen).Tag(tagMarket).Do(s.wrap("market open", s.bot.HandleMarketStart))
	s.cron.Cron(cronMarketClose).Tag(tagCleanup).Do(s.wrap("market close", s.bot.HandleMarketClose))
}

func (s *Scheduler) autoModeEnabled() bool {
	return s.hasTag(tagPreMarket) || s.hasTag(tagMarket) || s.hasTag(tagCleanup)
}

func (s *Scheduler) hasTag(tag string) bool {
	jobs, err := s.cron.FindJobsByTag(tag)
	return err == nil && len(jobs) > 0
}

// wrap isolates each firing so a panic in one trigger cannot take down the
// scheduler loop.
func (s *Scheduler) wrap(name string, fn func(ctx context.Context)) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Recovered from panic in %s job: %v", name, r)
			}
		}()
		fn(context.Background())
	}
}

func jobState(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
