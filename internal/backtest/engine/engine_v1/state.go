package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/internal/utils"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	tradesFileName = "trades.parquet"
	equityFileName = "equity.parquet"
)

// BacktestState owns the cash, the single long position, the trade ledger and
// the equity curve of one simulation. Cash and cost basis are kept as decimals
// so a buy followed by a sell at the same price restores cash exactly.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType

	initialCapital decimal.Decimal
	slippage       float64
	cash           decimal.Decimal
	shares         int64
	totalCost      decimal.Decimal
	tradeSeq       int
	equitySeq      int
}

func NewBacktestState(initialCapital float64, slippage float64, logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to open database", err)
	}

	capital := decimal.NewFromFloat(initialCapital)

	return &BacktestState{
		db:             db,
		logger:         logger,
		sq:             squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		initialCapital: capital,
		slippage:       slippage,
		cash:           capital,
		totalCost:      decimal.Zero,
	}, nil
}

// Initialize creates the ledger tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			seq INTEGER,
			id TEXT,
			type TEXT,
			symbol TEXT,
			date TIMESTAMP,
			executed_price DOUBLE,
			quantity BIGINT,
			reason TEXT,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to create trades table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			seq INTEGER,
			date TIMESTAMP,
			equity DOUBLE,
			cash DOUBLE,
			shares BIGINT,
			close DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to create equity table", err)
	}

	return nil
}

func (b *BacktestState) Cash() float64 {
	return b.cash.InexactFloat64()
}

func (b *BacktestState) Position() types.Position {
	return types.Position{
		Shares:    b.shares,
		TotalCost: b.totalCost.InexactFloat64(),
	}
}

// Equity values the account at price.
func (b *BacktestState) Equity(price float64) float64 {
	return b.cash.Add(decimal.NewFromInt(b.shares).Mul(decimal.NewFromFloat(price))).InexactFloat64()
}

// Buy adds quantity shares at price moved up by the slippage.
func (b *BacktestState) Buy(symbol string, date time.Time, price float64, quantity int64, reason string) (types.Trade, error) {
	if quantity < 1 {
		return types.Trade{}, errors.Newf(errors.ErrCodeOrderTooSmall, "order quantity %d is below one share", quantity)
	}

	executedPrice := decimal.NewFromFloat(utils.BuyExecutionPrice(price, b.slippage))
	cost := executedPrice.Mul(decimal.NewFromInt(quantity))

	if cost.GreaterThan(b.cash) {
		return types.Trade{}, errors.Newf(errors.ErrCodeInsufficientFunds,
			"cost %s exceeds cash %s", cost.StringFixed(2), b.cash.StringFixed(2))
	}

	trade := types.Trade{
		ID:            uuid.New().String(),
		Type:          types.TradeTypeBuy,
		Symbol:        symbol,
		Date:          date,
		ExecutedPrice: executedPrice.InexactFloat64(),
		Quantity:      quantity,
		Reason:        reason,
	}

	if err := b.insertTrade(trade); err != nil {
		return types.Trade{}, err
	}

	b.cash = b.cash.Sub(cost)
	b.shares += quantity
	b.totalCost = b.totalCost.Add(cost)

	return trade, nil
}

// Sell liquidates the whole position at price moved down by the slippage.
// The realized pnl is the revenue minus the accumulated cost basis.
func (b *BacktestState) Sell(symbol string, date time.Time, price float64, reason string) (types.Trade, error) {
	if b.shares <= 0 {
		return types.Trade{}, errors.New(errors.ErrCodeNoHoldings, "no shares to sell")
	}

	executedPrice := decimal.NewFromFloat(utils.SellExecutionPrice(price, b.slippage))
	revenue := executedPrice.Mul(decimal.NewFromInt(b.shares))
	pnl := revenue.Sub(b.totalCost)

	trade := types.Trade{
		ID:            uuid.New().String(),
		Type:          types.TradeTypeSell,
		Symbol:        symbol,
		Date:          date,
		ExecutedPrice: executedPrice.InexactFloat64(),
		Quantity:      b.shares,
		Reason:        reason,
		PnL:           pnl.InexactFloat64(),
	}

	if err := b.insertTrade(trade); err != nil {
		return types.Trade{}, err
	}

	b.cash = b.cash.Add(revenue)
	b.shares = 0
	b.totalCost = decimal.Zero

	return trade, nil
}

// RecordEquity appends the account value at close to the equity curve.
func (b *BacktestState) RecordEquity(date time.Time, close float64) (types.EquityPoint, error) {
	point := types.EquityPoint{
		Date:   date,
		Equity: b.Equity(close),
		Cash:   b.Cash(),
		Shares: b.shares,
		Close:  close,
	}

	_, err := b.sq.
		Insert("equity").
		Columns("seq", "date", "equity", "cash", "shares", "close").
		Values(b.equitySeq, point.Date, point.Equity, point.Cash, point.Shares, point.Close).
		RunWith(b.db).
		Exec()
	if err != nil {
		return types.EquityPoint{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to insert equity point", err)
	}

	b.equitySeq++

	return point, nil
}

func (b *BacktestState) insertTrade(trade types.Trade) error {
	_, err := b.sq.
		Insert("trades").
		Columns("seq", "id", "type", "symbol", "date", "executed_price", "quantity", "reason", "pnl").
		Values(
			b.tradeSeq, trade.ID, string(trade.Type), trade.Symbol, trade.Date,
			trade.ExecutedPrice, trade.Quantity, trade.Reason, trade.PnL,
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to insert trade", err)
	}

	b.tradeSeq++

	return nil
}

// GetAllTrades returns the ledger in execution order.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	rows, err := b.sq.
		Select("id", "type", "symbol", "date", "executed_price", "quantity", "reason", "pnl").
		From("trades").
		OrderBy("seq ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var tradeType string

		if err := rows.Scan(
			&trade.ID, &tradeType, &trade.Symbol, &trade.Date,
			&trade.ExecutedPrice, &trade.Quantity, &trade.Reason, &trade.PnL,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to scan trade", err)
		}

		trade.Type = types.TradeType(tradeType)
		trade.Date = trade.Date.UTC()
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to read trades", err)
	}

	return trades, nil
}

// GetEquityCurve returns the recorded equity points in step order.
func (b *BacktestState) GetEquityCurve() ([]types.EquityPoint, error) {
	rows, err := b.sq.
		Select("date", "equity", "cash", "shares", "close").
		From("equity").
		OrderBy("seq ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to query equity curve", err)
	}
	defer rows.Close()

	var points []types.EquityPoint

	for rows.Next() {
		var point types.EquityPoint
		if err := rows.Scan(&point.Date, &point.Equity, &point.Cash, &point.Shares, &point.Close); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to scan equity point", err)
		}

		point.Date = point.Date.UTC()
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to read equity curve", err)
	}

	return points, nil
}

// GetTradeResult aggregates the ledger. WinRate is left nil without sells.
func (b *BacktestState) GetTradeResult() (types.TradeResult, error) {
	var result types.TradeResult

	err := b.sq.
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE type = 'SELL')",
			"COUNT(*) FILTER (WHERE type = 'SELL' AND pnl > 0)",
			"COALESCE(SUM(pnl), 0.0)",
		).
		From("trades").
		RunWith(b.db).
		QueryRow().
		Scan(&result.NumberOfTrades, &result.NumberOfSells, &result.NumberOfWinningTrades, &result.RealizedPnL)
	if err != nil {
		return types.TradeResult{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to calculate trade result", err)
	}

	if result.NumberOfSells > 0 {
		winRate := float64(result.NumberOfWinningTrades) / float64(result.NumberOfSells)
		result.WinRate = &winRate
	}

	curve, err := b.GetEquityCurve()
	if err != nil {
		return types.TradeResult{}, err
	}

	result.MaxDrawdown = MaxDrawdown(curve)

	return result, nil
}

// MaxDrawdown is the largest fall from a running equity peak, as a fraction
// of that peak.
func MaxDrawdown(curve []types.EquityPoint) float64 {
	var peak, maxDrawdown float64

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak <= 0 {
			continue
		}

		if drawdown := (peak - point.Equity) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// Write exports the ledger and the equity curve to parquet files in path and
// returns their locations.
func (b *BacktestState) Write(path string) (tradesPath string, equityPath string, err error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestResultsFailed, "failed to create directory", err)
	}

	// Squirrel has no COPY support
	tradesPath = filepath.Join(path, tradesFileName)

	_, err = b.db.Exec(fmt.Sprintf(
		`COPY (SELECT id, type, symbol, date, executed_price, quantity, reason, pnl FROM trades ORDER BY seq) TO '%s' (FORMAT PARQUET)`,
		tradesPath,
	))
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestResultsFailed, "failed to export trades to parquet", err)
	}

	equityPath = filepath.Join(path, equityFileName)

	_, err = b.db.Exec(fmt.Sprintf(
		`COPY (SELECT date, equity, cash, shares, close FROM equity ORDER BY seq) TO '%s' (FORMAT PARQUET)`,
		equityPath,
	))
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestResultsFailed, "failed to export equity curve to parquet", err)
	}

	b.logger.Debug("Exported backtest results to parquet",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
	)

	return tradesPath, equityPath, nil
}

// Cleanup drops the ledger, restores the initial capital and reinitializes.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to cleanup tables", err)
	}

	b.cash = b.initialCapital
	b.shares = 0
	b.totalCost = decimal.Zero
	b.tradeSeq = 0
	b.equitySeq = 0

	return b.Initialize()
}

func (b *BacktestState) Close() error {
	return b.db.Close()
}
