package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// Style definitions.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Faint(true).Width(16)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderReport formats a backtest report as a bordered summary.
func RenderReport(report types.BacktestReport) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s backtest", report.Symbol)),
		"",
		row("Period", fmt.Sprintf("%s to %s", report.StartDate.Format(time.DateOnly), report.EndDate.Format(time.DateOnly))),
		row("Initial capital", fmt.Sprintf("$%.2f", report.InitialCapital)),
		row("Final equity", fmt.Sprintf("$%.2f", report.FinalEquity)),
		row("Return", FormatPct(report.ReturnPct)),
	}

	for _, b := range report.Benchmarks {
		lines = append(lines, row(b.Symbol, fmt.Sprintf("%s (alpha %s)", FormatPct(b.ReturnPct), FormatPct(b.AlphaPct))))
	}

	winRate := "n/a"
	if report.TradeResult.WinRate != nil {
		winRate = fmt.Sprintf("%.1f%%", *report.TradeResult.WinRate*100)
	}

	lines = append(lines,
		row("Trades", fmt.Sprintf("%d (%d sells)", report.TradeResult.NumberOfTrades, report.TradeResult.NumberOfSells)),
		row("Win rate", winRate),
		row("Max drawdown", fmt.Sprintf("%.2f%%", report.TradeResult.MaxDrawdown*100)),
		row("Open position", fmt.Sprintf("%d shares", report.FinalPosition.Shares)),
	)

	if report.TradesFilePath != "" {
		lines = append(lines, row("Trades file", report.TradesFilePath))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderTrades lists the ledger one trade per line.
func RenderTrades(trades []types.Trade) string {
	if len(trades) == 0 {
		return labelStyle.UnsetWidth().Render("No trades")
	}

	var sb strings.Builder

	for _, t := range trades {
		side := positiveStyle.Render(string(t.Type))
		if t.Type == types.TradeTypeSell {
			side = negativeStyle.Render(string(t.Type))
		}

		fmt.Fprintf(&sb, "%s %-4s %5d @ %10.2f", t.Date.Format(time.DateOnly), side, t.Quantity, t.ExecutedPrice)

		if t.Type == types.TradeTypeSell {
			fmt.Fprintf(&sb, "  pnl %s", FormatMoney(t.PnL))
		}

		fmt.Fprintf(&sb, "  %s\n", t.Reason)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatPct renders a signed percentage, green when positive and red when
// negative.
func FormatPct(v float64) string {
	return signed(v, fmt.Sprintf("%+.2f%%", v))
}

func FormatMoney(v float64) string {
	return signed(v, fmt.Sprintf("%+.2f", v))
}

func signed(v float64, text string) string {
	switch {
	case v > 0:
		return positiveStyle.Render(text)
	case v < 0:
		return negativeStyle.Render(text)
	default:
		return text
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}
