package controllers

import (
	"net/http"
	"time"

	"alpacabot/models"
	"alpacabot/scheduler"
	"alpacabot/services"
	"alpacabot/services/broker"
	"alpacabot/services/notify"
	"alpacabot/services/session"
	"alpacabot/services/trading"

	"github.com/gin-gonic/gin"
)

// BotController handles bot status and command requests
type BotController struct {
	bot      *trading.Bot
	accounts broker.AccountProvider
	sched    *scheduler.Scheduler
	sms      *notify.EmailSMSService
	loc      *time.Location
}

// NewBotController creates a new bot controller
func NewBotController(bot *trading.Bot, accounts broker.AccountProvider, sched *scheduler.Scheduler, sms *notify.EmailSMSService, loc *time.Location) *BotController {
	return &BotController{
		bot:      bot,
		accounts: accounts,
		sched:    sched,
		sms:      sms,
		loc:      loc,
	}
}

// GetStatus returns the full bot status snapshot
// GET /api/status
func (bc *BotController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, bc.bot.Status())
}

// GetAccount returns the brokerage account summary
// GET /api/account
func (bc *BotController) GetAccount(c *gin.Context) {
	account, err := bc.accounts.Account(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetPositions returns the open positions
// GET /api/positions
func (bc *BotController) GetPositions(c *gin.Context) {
	positions, err := bc.accounts.Positions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, positions)
}

// GetOrders returns recent orders
// GET /api/orders
func (bc *BotController) GetOrders(c *gin.Context) {
	orders, err := bc.accounts.Orders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetTradingStatus returns the current session and upcoming transition
// GET /api/trading-status
func (bc *BotController) GetTradingStatus(c *gin.Context) {
	now := time.Now().In(bc.loc)
	next := session.Next(now, bc.loc)

	c.JSON(http.StatusOK, gin.H{
		"currentTime":     now.Format("3:04:05 PM"),
		"clockSession":    session.Current(now, bc.loc),
		"botSession":      bc.bot.CurrentSession(),
		"isRunning":       bc.bot.IsRunning(),
		"nextSession":     next.Name,
		"nextSessionTime": next.Time,
		"autoMode":        bc.sched.AutoModeEnabled(),
	})
}

// StartBot manually starts the bot if inside trading hours
// POST /api/start
func (bc *BotController) StartBot(c *gin.Context) {
	if bc.bot.StartManually(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Bot started",
			"session": bc.bot.CurrentSession(),
		})
		return
	}
	c.JSON(http.StatusConflict, gin.H{
		"error": "Market is closed. Bot will start automatically during trading hours.",
	})
}

// StopBot manually stops the bot until the next transition
// POST /api/stop
func (bc *BotController) StopBot(c *gin.Context) {
	bc.bot.StopManually()
	c.JSON(http.StatusOK, gin.H{"message": "Bot stopped"})
}

// CloseAllPositions liquidates every open position
// POST /api/close-all-positions
func (bc *BotController) CloseAllPositions(c *gin.Context) {
	if err := bc.bot.CloseAllPositions(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All positions closed"})
}

// ToggleAutoMode enables or disables the scheduled session triggers
// POST /api/toggle-auto-mode
func (bc *BotController) ToggleAutoMode(c *gin.Context) {
	if bc.sched.AutoModeEnabled() {
		bc.sched.DisableAutoMode()
	} else {
		bc.sched.EnableAutoMode()
	}
	c.JSON(http.StatusOK, gin.H{
		"autoMode":      bc.sched.AutoModeEnabled(),
		"scheduledJobs": bc.sched.JobsStatus(),
	})
}

// HandleWebSocket upgrades to the status feed websocket
// GET /ws
func (bc *BotController) HandleWebSocket(c *gin.Context) {
	services.GlobalStatusFeed.HandleWebSocket(c.Writer, c.Request)
}

// GetSMSStatus returns the notifier configuration state
// GET /api/sms/status
func (bc *BotController) GetSMSStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured": bc.sms.Configured(),
		"enabled":    bc.sms.Enabled,
	})
}

// SendTestSMS sends a test notification synchronously
// POST /api/sms/test
func (bc *BotController) SendTestSMS(c *gin.Context) {
	msg := "AlpacaBot test message\n" + time.Now().In(bc.loc).Format("3:04:05 PM") + " ET"
	if err := bc.sms.SendSMSNow(msg); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test SMS sent"})
}

// ToggleSMS enables or disables notifications at runtime
// POST /api/sms/toggle
func (bc *BotController) ToggleSMS(c *gin.Context) {
	if !bc.sms.Configured() {
		c.JSON(http.StatusConflict, gin.H{"error": "Email-SMS credentials not configured"})
		return
	}
	bc.sms.Enabled = !bc.sms.Enabled
	c.JSON(http.StatusOK, gin.H{"enabled": bc.sms.Enabled})
}

// GetDailyReport generates the end-of-day report on demand
// GET /api/daily-report
func (bc *BotController) GetDailyReport(c *gin.Context) {
	report, err := bc.accounts.DailyReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.DailyReport{Report: report})
}
