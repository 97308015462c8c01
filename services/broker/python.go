package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"alpacabot/models"
)

// Collaborator script names, relative to the scripts directory.
const (
	scriptPreMarketScreener = "run_premarket_screener.py"
	scriptMarketScreener    = "run_market_hours_screener.py"
	scriptExecuteTrades     = "execute_trades.py"
	scriptMonitorPositions  = "monitor_positions.py"
	scriptAccountInfo       = "get_account_info.py"
	scriptPositions         = "get_positions.py"
	scriptOrders            = "get_orders.py"
	scriptCloseAll          = "close_all_positions.py"
	scriptDailyReport       = "generate_daily_report.py"
)

// PythonBridge runs the Python collaborator scripts as subprocesses,
// exchanging JSON over stdin/stdout. Every call is bounded by a timeout so
// a hung script cannot stall the scheduler.
type PythonBridge struct {
	pythonBin  string
	scriptsDir string
	timeout    time.Duration
}

// NewPythonBridge creates a bridge for the given interpreter and script dir.
func NewPythonBridge(pythonBin, scriptsDir string, timeout time.Duration) *PythonBridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PythonBridge{
		pythonBin:  pythonBin,
		scriptsDir: scriptsDir,
		timeout:    timeout,
	}
}

// Verify checks the Python environment and required dependencies are usable.
func (b *PythonBridge) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.pythonBin, "-c",
		`import alpaca_trade_api, yfinance; print("Python environment OK")`)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("python environment test failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	log.Printf("Python test: %s", strings.TrimSpace(string(out)))
	return nil
}

// run executes a script, feeding input as JSON on stdin when non-nil and
// decoding stdout JSON into out.
func (b *PythonBridge) run(ctx context.Context, kind Kind, script string, input, out interface{}) error {
	scriptPath := filepath.Join(b.scriptsDir, script)
	if _, err := os.Stat(scriptPath); err != nil {
		return &Error{Kind: kind, Script: script, Err: fmt.Errorf("script not found: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.pythonBin, scriptPath)

	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return &Error{Kind: kind, Script: script, Err: fmt.Errorf("encode input: %w", err)}
		}
		cmd.Stdin = bytes.NewReader(payload)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &Error{Kind: kind, Script: script, Err: fmt.Errorf("timed out after %v", b.timeout)}
		}
		return &Error{Kind: kind, Script: script,
			Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}

	if out != nil {
		if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), out); err != nil {
			return &Error{Kind: kind, Script: script, Err: fmt.Errorf("decode output: %w", err)}
		}
	}
	return nil
}

// Screen runs the screener for the given session.
func (b *PythonBridge) Screen(ctx context.Context, sess models.Session) ([]models.Candidate, error) {
	var script string
	switch sess {
	case models.SessionPreMarket:
		script = scriptPreMarketScreener
	case models.SessionMarket:
		script = scriptMarketScreener
	default:
		return nil, &Error{Kind: KindScreener, Script: "",
			Err: fmt.Errorf("no screener for session %q", sess)}
	}

	var candidates []models.Candidate
	if err := b.run(ctx, KindScreener, script, nil, &candidates); err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Session = sess
	}
	return candidates, nil
}

// ExecuteTrades enters positions for the requested candidates.
func (b *PythonBridge) ExecuteTrades(ctx context.Context, req models.TradeRequest) (*models.TradeBatchResult, error) {
	var result models.TradeBatchResult
	if err := b.run(ctx, KindExecution, scriptExecuteTrades, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MonitorPositions checks open positions for exit signals.
func (b *PythonBridge) MonitorPositions(ctx context.Context) (*models.MonitorResult, error) {
	var result models.MonitorResult
	if err := b.run(ctx, KindMonitor, scriptMonitorPositions, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Account returns the brokerage account summary.
func (b *PythonBridge) Account(ctx context.Context) (*models.AccountInfo, error) {
	var info models.AccountInfo
	if err := b.run(ctx, KindAccount, scriptAccountInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Positions returns the open positions.
func (b *PythonBridge) Positions(ctx context.Context) (*models.PositionList, error) {
	var list models.PositionList
	if err := b.run(ctx, KindAccount, scriptPositions, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Orders returns recent orders.
func (b *PythonBridge) Orders(ctx context.Context) (*models.OrderList, error) {
	var list models.OrderList
	if err := b.run(ctx, KindAccount, scriptOrders, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CloseAllPositions liquidates every open position.
func (b *PythonBridge) CloseAllPositions(ctx context.Context) (*models.CloseAllResult, error) {
	var result models.CloseAllResult
	if err := b.run(ctx, KindExecution, scriptCloseAll, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DailyReport generates the end-of-day performance report.
func (b *PythonBridge) DailyReport(ctx context.Context) (models.RawReport, error) {
	var report json.RawMessage
	if err := b.run(ctx, KindReport, scriptDailyReport, nil, &report); err != nil {
		return nil, err
	}
	return report, nil
}
