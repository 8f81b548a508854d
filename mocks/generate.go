package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_advisor.go -package=mocks github.com/rxtech-lab/stock-sentinel/internal/advisor Advisor
//go:generate mockgen -destination=./mock_news_provider.go -package=mocks github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider NewsProvider
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/stock-sentinel/internal/notifier Notifier
