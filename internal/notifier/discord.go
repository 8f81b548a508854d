package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"go.uber.org/zap"
)

// Embed colours.
const (
	ColorSuccess = 0x2ecc71
	ColorDanger  = 0xe74c3c
	ColorWarning = 0xf1c40f
	ColorInfo    = 0x3498db
	ColorAlert   = 0xffa500
)

const footerTimeFormat = "2006-01-02 15:04:05"

// DiscordConfig configures the webhook target.
type DiscordConfig struct {
	WebhookURL string
	// UserID is mentioned in every message when set.
	UserID    string
	AvatarURL string
	Timeout   time.Duration
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordPayload struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []discordEmbed `json:"embeds"`
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	config DiscordConfig
	client *resty.Client
	logger *logger.Logger
	now    func() time.Time
}

var _ Notifier = (*DiscordNotifier)(nil)

func NewDiscordNotifier(config DiscordConfig, logger *logger.Logger) (*DiscordNotifier, error) {
	if config.WebhookURL == "" {
		return nil, errors.New(errors.ErrCodeNotifierNotConfigured, "discord webhook url is empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		config: config,
		client: resty.New().SetTimeout(config.Timeout),
		logger: logger,
		now:    time.Now,
	}, nil
}

// SeverityColor maps a signal severity onto an embed colour.
func SeverityColor(severity types.Severity) int {
	switch severity {
	case types.SeveritySuccess:
		return ColorSuccess
	case types.SeverityDanger:
		return ColorDanger
	case types.SeverityWarning:
		return ColorWarning
	default:
		return ColorInfo
	}
}

func severityIcon(severity types.Severity) string {
	switch severity {
	case types.SeveritySuccess:
		return "🟢"
	case types.SeverityDanger:
		return "🔴"
	case types.SeverityWarning:
		return "🟠"
	default:
		return "⚪"
	}
}

func (d *DiscordNotifier) NotifySignal(ctx context.Context, notification SignalNotification) error {
	signal := notification.Signal
	footer := "Stock Sentinel • " + d.now().Format(footerTimeFormat)

	description := fmt.Sprintf("**Strategy:** EMA/ATR trend\n**Reason:** %s", signal.Reason)

	if notification.Regime != "" {
		description += fmt.Sprintf("\n**Macro:** %s", notification.Regime)
	}

	if notification.SizingMessage != "" {
		description += fmt.Sprintf("\n**Sizing:** %s", notification.SizingMessage)
	}

	if advice := notification.Advice; advice != nil {
		description += fmt.Sprintf("\n\n**AI Analyst Verdict:**\n%s", advice.Comment)

		if advice.Model != "" {
			parts := strings.Split(advice.Model, "/")
			footer += " • AI: " + parts[len(parts)-1]
		}
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("%s %s Signal: %s", severityIcon(signal.Severity), notification.Symbol, signal.Type),
		Description: description,
		Color:       SeverityColor(signal.Severity),
		Fields: []discordField{
			{Name: "Price", Value: fmt.Sprintf("$%.2f", signal.Price), Inline: true},
			{Name: "EMA 20", Value: fmt.Sprintf("$%.2f", signal.EMA), Inline: true},
			{Name: "RSI", Value: fmt.Sprintf("%.1f", signal.RSI), Inline: true},
			{Name: "Stop Loss", Value: fmt.Sprintf("$%.2f", signal.StopLoss), Inline: true},
		},
		Footer: &discordFooter{Text: footer},
	}

	return d.post(ctx, "Stock Sentinel", embed)
}

func (d *DiscordNotifier) NotifyAlert(ctx context.Context, alert types.Alert) error {
	embed := discordEmbed{
		Title:       fmt.Sprintf("⚠️ %s Anomaly Detected", alert.Symbol),
		Description: strings.Join(alert.Messages, "\n"),
		Color:       ColorAlert,
		Fields: []discordField{
			{Name: "Price", Value: fmt.Sprintf("$%.2f", alert.Price), Inline: true},
			{Name: "Change", Value: fmt.Sprintf("%.2f%%", alert.ChangePct), Inline: true},
		},
		Footer: &discordFooter{Text: "Stock Sentinel Watchdog • " + d.now().Format(footerTimeFormat)},
	}

	return d.post(ctx, "Sentinel Watchdog", embed)
}

func (d *DiscordNotifier) NotifyReport(ctx context.Context, report types.BacktestReport) error {
	color := ColorSuccess
	if report.ReturnPct < 0 {
		color = ColorDanger
	}

	fields := []discordField{
		{Name: "Initial Capital", Value: fmt.Sprintf("$%.2f", report.InitialCapital), Inline: true},
		{Name: "Final Equity", Value: fmt.Sprintf("$%.2f", report.FinalEquity), Inline: true},
		{Name: "Return", Value: fmt.Sprintf("%.2f%%", report.ReturnPct), Inline: true},
	}

	for _, b := range report.Benchmarks {
		fields = append(fields, discordField{
			Name:   b.Symbol,
			Value:  fmt.Sprintf("%.2f%% (alpha %+.2f%%)", b.ReturnPct, b.AlphaPct),
			Inline: true,
		})
	}

	winRate := "n/a"
	if report.TradeResult.WinRate != nil {
		winRate = fmt.Sprintf("%.1f%%", *report.TradeResult.WinRate*100)
	}

	fields = append(fields,
		discordField{Name: "Trades", Value: fmt.Sprintf("%d", report.TradeResult.NumberOfTrades), Inline: true},
		discordField{Name: "Win Rate", Value: winRate, Inline: true},
		discordField{Name: "Max Drawdown", Value: fmt.Sprintf("%.2f%%", report.TradeResult.MaxDrawdown*100), Inline: true},
	)

	embed := discordEmbed{
		Title: fmt.Sprintf("📊 %s Backtest %s to %s", report.Symbol,
			report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02")),
		Color:  color,
		Fields: fields,
		Footer: &discordFooter{Text: "Stock Sentinel Backtest • " + d.now().Format(footerTimeFormat)},
	}

	return d.post(ctx, "Stock Sentinel", embed)
}

func (d *DiscordNotifier) post(ctx context.Context, username string, embed discordEmbed) error {
	payload := discordPayload{
		Username:  username,
		AvatarURL: d.config.AvatarURL,
		Embeds:    []discordEmbed{embed},
	}

	if d.config.UserID != "" {
		payload.Content = fmt.Sprintf("<@%s>", d.config.UserID)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(d.config.WebhookURL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "discord: send", err)
	}

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeNotificationFailed, "discord: unexpected status %d", resp.StatusCode())
	}

	d.logger.Debug("Discord notification sent", zap.String("title", embed.Title))

	return nil
}
