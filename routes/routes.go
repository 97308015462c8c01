package routes

import (
	"time"

	"alpacabot/controllers"
	"alpacabot/middleware"
	"alpacabot/scheduler"
	"alpacabot/services/broker"
	"alpacabot/services/notify"
	"alpacabot/services/tradelog"
	"alpacabot/services/trading"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, bot *trading.Bot, accounts broker.AccountProvider,
	sched *scheduler.Scheduler, trades *tradelog.Service, sms *notify.EmailSMSService, loc *time.Location) {

	// Initialize controllers
	botController := controllers.NewBotController(bot, accounts, sched, sms, loc)
	tradeLogController := controllers.NewTradeLogController(trades, loc)

	// Status feed websocket
	router.GET("/ws", botController.HandleWebSocket)

	api := router.Group("/api")
	{
		// Status routes
		api.GET("/status", botController.GetStatus)
		api.GET("/account", botController.GetAccount)
		api.GET("/positions", botController.GetPositions)
		api.GET("/orders", botController.GetOrders)
		api.GET("/trading-status", botController.GetTradingStatus)
		api.GET("/daily-report", botController.GetDailyReport)

		// Bot commands, rate limited
		commands := api.Group("")
		commands.Use(middleware.CommandRateLimitMiddleware())
		{
			commands.POST("/start", botController.StartBot)
			commands.POST("/stop", botController.StopBot)
			commands.POST("/close-all-positions", botController.CloseAllPositions)
			commands.POST("/toggle-auto-mode", botController.ToggleAutoMode)
		}

		// Trade history routes
		trades := api.Group("/trades")
		{
			trades.GET("", tradeLogController.GetTrades)
			trades.GET("/daily-stats", tradeLogController.GetDailyStats)
			trades.GET("/export", tradeLogController.ExportTrades)
		}

		// SMS notification admin routes
		sms := api.Group("/sms")
		{
			sms.GET("/status", botController.GetSMSStatus)
			sms.POST("/test", botController.SendTestSMS)
			sms.POST("/toggle", botController.ToggleSMS)
		}
	}
}
