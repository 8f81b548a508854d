package advisor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
)

const systemPrompt = "You are a concise financial analyst with web search capabilities."

var verdictPattern = regexp.MustCompile(`(?i)\b(disagree|agree|caution)\b|不同意|同意|謹慎`)

// BuildPrompt renders the user prompt for a signal.
func BuildPrompt(symbol string, signal types.Signal, advisoryCtx AdvisoryContext, language Language) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a senior algorithmic trader and technical analyst.\n")
	fmt.Fprintf(&b, "Analyze the following trade signal for %s on a weekly timeframe", symbol)

	if !advisoryCtx.Date.IsZero() {
		fmt.Fprintf(&b, " as of %s. Only consider information available on or before that date", advisoryCtx.Date.Format("2006-01-02"))
	}

	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Target: %s\n", symbol)
	fmt.Fprintf(&b, "Current Price: $%.2f\n", signal.Price)
	fmt.Fprintf(&b, "Signal: %s\n", signal.Type)
	fmt.Fprintf(&b, "Reason: %s\n\n", signal.Reason)
	b.WriteString("Technical Indicators:\n")
	fmt.Fprintf(&b, "- EMA 20: $%.2f\n", signal.EMA)
	fmt.Fprintf(&b, "- RSI 14: %.1f\n", signal.RSI)
	fmt.Fprintf(&b, "- ATR Stop Loss: $%.2f\n", signal.StopLoss)

	if len(advisoryCtx.News) > 0 {
		b.WriteString("\nRecent News:\n")

		for _, item := range advisoryCtx.News {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	b.WriteString("\nTask:\n")
	b.WriteString("1. Evaluate the signal quality based on technicals.\n")
	b.WriteString("2. Incorporate recent news or fundamentals.\n")
	b.WriteString("3. Check for risks such as upcoming earnings, lawsuits or industry trends.\n")
	b.WriteString("4. Provide a confidence score (Low/Medium/High) and concise advice.\n\n")
	b.WriteString("Format output as:\n")
	b.WriteString("**Verdict:** [Agree / Disagree / Caution]\n")
	b.WriteString("**Analysis:** [Your concise analysis]\n\n")
	fmt.Fprintf(&b, "IMPORTANT: %s", languageInstruction(language))

	return b.String()
}

func languageInstruction(language Language) string {
	if language == LanguageTraditionalChinese {
		return "Respond in Traditional Chinese (繁體中文). Keep the verdict keyword and financial terminology such as EMA and RSI in English."
	}

	return "Respond in English."
}

// ParseVerdict extracts the verdict from an advisor response. The line
// mentioning "verdict" is searched first, then the whole text; the first
// keyword found wins.
func ParseVerdict(content string) (types.Verdict, error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(strings.ToLower(line), "verdict") {
			continue
		}

		if verdict, ok := matchVerdict(line); ok {
			return verdict, nil
		}
	}

	if verdict, ok := matchVerdict(content); ok {
		return verdict, nil
	}

	return "", errors.Newf(errors.ErrCodeAdvisoryBadResponse, "no verdict in advisor response %q", truncate(content, 80))
}

func matchVerdict(text string) (types.Verdict, bool) {
	match := verdictPattern.FindString(text)

	switch strings.ToLower(match) {
	case "disagree", "不同意":
		return types.VerdictDisagree, true
	case "agree", "同意":
		return types.VerdictAgree, true
	case "caution", "謹慎":
		return types.VerdictCaution, true
	default:
		return "", false
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}
