package advisor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
)

// Language selects the response language of the advisor.
type Language string

const (
	LanguageEnglish            Language = "en"
	LanguageTraditionalChinese Language = "zh_tw"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.0-flash-exp:free"
	DefaultTimeout = 10 * time.Second
)

// Config is read once at startup and copied into the advisor; the advisor
// never reads the environment itself.
type Config struct {
	APIKey      string        `validate:"required"`
	Model       string        `validate:"required"`
	Language    Language      `validate:"oneof=en zh_tw"`
	BaseURL     string        `validate:"required,url"`
	Timeout     time.Duration `validate:"gt=0"`
	Temperature float64       `validate:"gte=0,lte=2"`
	MaxTokens   int           `validate:"gt=0"`
	// WebSearch enables the OpenRouter web plugin so the model can look up
	// recent news on its own.
	WebSearch bool
	// MinInterval spaces out consecutive requests.
	MinInterval time.Duration `validate:"gte=0"`
	SiteURL     string
	AppName     string
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       DefaultModel,
		Language:    LanguageEnglish,
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		Temperature: 0.7,
		MaxTokens:   300,
		WebSearch:   true,
		MinInterval: time.Second,
		SiteURL:     "https://github.com/rxtech-lab/stock-sentinel",
		AppName:     "Stock Sentinel",
	}
}

// ParseLanguage maps free-form language settings onto a Language.
// Anything Chinese becomes zh_tw; everything else is English.
func ParseLanguage(s string) Language {
	switch s {
	case "zh", "zh_tw", "zh-tw", "chinese":
		return LanguageTraditionalChinese
	default:
		return LanguageEnglish
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeAdvisoryNotConfigured, "invalid advisor configuration", err)
	}

	return nil
}
