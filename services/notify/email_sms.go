// Package notify delivers trading notifications over an email-to-SMS
// gateway (e.g. 8139812277@vtext.com). Delivery is fire-and-forget: the
// trading core never waits on or reacts to notification failures.
package notify

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"alpacabot/models"

	"github.com/shopspring/decimal"
)

const smtpTimeout = 15 * time.Second

// EmailSMSService sends short notifications through an SMTP relay to a
// carrier email-to-SMS address.
type EmailSMSService struct {
	server   string
	port     int
	user     string
	password string
	smsEmail string
	loc      *time.Location

	// Enabled can be toggled at runtime via the SMS admin endpoints.
	Enabled bool
}

// NewEmailSMSService builds the notifier. If credentials are missing the
// service starts disabled and only logs messages.
func NewEmailSMSService(server string, port int, user, password, smsEmail string, enabled bool, loc *time.Location) *EmailSMSService {
	if user == "" || smsEmail == "" {
		if enabled {
			log.Println("Email-SMS notifications not configured, disabling")
		}
		enabled = false
	}
	return &EmailSMSService{
		server:   server,
		port:     port,
		user:     user,
		password: password,
		smsEmail: smsEmail,
		loc:      loc,
		Enabled:  enabled,
	}
}

// Configured reports whether credentials are present.
func (s *EmailSMSService) Configured() bool {
	return s.user != "" && s.smsEmail != ""
}

// SendSMS dispatches one message. Delivery happens in the background;
// failures are logged, never returned to the caller's control flow.
func (s *EmailSMSService) SendSMS(message string) {
	if !s.Enabled {
		log.Printf("Email-SMS disabled, message: %s", message)
		return
	}
	go func() {
		if err := s.deliver(message); err != nil {
			log.Printf("Failed to send Email-SMS: %v", err)
		}
	}()
}

// SendSMSNow delivers synchronously, for the test endpoint.
func (s *EmailSMSService) SendSMSNow(message string) error {
	if !s.Enabled {
		return fmt.Errorf("email-SMS notifications disabled")
	}
	return s.deliver(message)
}

func (s *EmailSMSService) etTime() string {
	return time.Now().In(s.loc).Format("3:04:05 PM")
}

// NotifyBotStarted announces a session start.
func (s *EmailSMSService) NotifyBotStarted(sess models.Session) {
	s.SendSMS(FormatBotStarted(sess, s.etTime()))
}

// NotifyBotStopped announces a stop, with a daily summary when available.
func (s *EmailSMSService) NotifyBotStopped(stats *models.DailyStats) {
	s.SendSMS(FormatBotStopped(stats, s.etTime()))
}

// NotifyTradeBuy announces a filled entry.
func (s *EmailSMSService) NotifyTradeBuy(symbol string, shares int64, price, value decimal.Decimal, strategy string) {
	s.SendSMS(fmt.Sprintf("BUY ORDER EXECUTED\n%s\n%d shares @ $%s\nTotal: $%s\nStrategy: %s\n%s ET",
		symbol, shares, price.StringFixed(2), value.StringFixed(2), strategy, s.etTime()))
}

// NotifyTradeSell announces a filled exit with its realized result.
func (s *EmailSMSService) NotifyTradeSell(symbol string, shares int64, price, value, pnl decimal.Decimal, strategy string) {
	result := "WIN"
	if pnl.IsNegative() {
		result = "LOSS"
	}
	s.SendSMS(fmt.Sprintf("SELL ORDER EXECUTED\n%s\n%d shares @ $%s\nTotal: $%s\nP&L: $%s (%s)\nStrategy: %s\n%s ET",
		symbol, shares, price.StringFixed(2), value.StringFixed(2), pnl.StringFixed(2), result, strategy, s.etTime()))
}

// NotifyAllPositionsClosed announces a full liquidation.
func (s *EmailSMSService) NotifyAllPositionsClosed(totalPnL decimal.Decimal, count int) {
	s.SendSMS(fmt.Sprintf("ALL POSITIONS CLOSED\nPositions: %d\nRealized P&L: $%s\n%s ET",
		count, totalPnL.StringFixed(2), s.etTime()))
}

// NotifyError surfaces a trading error over SMS.
func (s *EmailSMSService) NotifyError(errMsg, context string) {
	s.SendSMS(fmt.Sprintf("AlpacaBot ERROR\nContext: %s\n%s\n%s ET", context, errMsg, s.etTime()))
}

// FormatBotStarted builds the session-start message body.
func FormatBotStarted(sess models.Session, etTime string) string {
	return fmt.Sprintf("AlpacaBot STARTED\n%s session\n%s ET\nReady to trade", sess, etTime)
}

// FormatBotStopped builds the stop message, appending the daily summary
// when stats are present (scheduled close) and a plain sign-off when not
// (manual stop).
func FormatBotStopped(stats *models.DailyStats, etTime string) string {
	msg := fmt.Sprintf("AlpacaBot STOPPED\n%s ET\n", etTime)
	if stats == nil {
		return msg + "Trading session complete."
	}
	return msg + fmt.Sprintf("Daily summary:\nP&L: $%s\nTrades: %d\nWin rate: %.1f%%\nVolume: $%s",
		stats.TotalPnL.StringFixed(2), stats.TotalTrades, stats.WinRate, stats.Volume.StringFixed(0))
}

// deliver sends one mail with an empty subject so carriers render it as a
// bare SMS. Connection handling follows the usual 587 STARTTLS / 465
// implicit TLS split.
func (s *EmailSMSService) deliver(body string) error {
	addr := net.JoinHostPort(s.server, strconv.Itoa(s.port))

	var conn net.Conn
	var err error
	if s.port == 465 {
		conn, err = tls.DialWithDialer(&net.Dialer{Timeout: smtpTimeout}, "tcp", addr, &tls.Config{ServerName: s.server})
	} else {
		conn, err = net.DialTimeout("tcp", addr, smtpTimeout)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.server)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.server}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.password != "" {
		auth := smtp.PlainAuth("", s.user, s.password, s.server)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.user); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(s.smsEmail); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: \r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n",
		s.user, s.smsEmail)
	if _, err := w.Write([]byte(headers + body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}
