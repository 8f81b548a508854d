package errors

// ErrorCode identifies the category and cause of an Error.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown   ErrorCode = 1
	ErrCodeCancelled ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidLookback      ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInvalidQuantity      ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataUnavailable       ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeBenchmarkUnavailable  ErrorCode = 203
	ErrCodeDataSourceUnavailable ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeSignalFailed        ErrorCode = 401

	// Trading errors (500-599)
	ErrCodeInsufficientFunds ErrorCode = 500
	ErrCodeNoHoldings        ErrorCode = 501
	ErrCodeOrderTooSmall     ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestNotLoaded     ErrorCode = 600
	ErrCodeBacktestConfigError   ErrorCode = 601
	ErrCodeBacktestStateFailed   ErrorCode = 602
	ErrCodeBacktestNoDatasource  ErrorCode = 603
	ErrCodeBacktestResultsFailed ErrorCode = 604

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Advisory errors (800-899)
	ErrCodeAdvisoryUnavailable   ErrorCode = 800
	ErrCodeAdvisoryBadResponse   ErrorCode = 801
	ErrCodeAdvisoryNotConfigured ErrorCode = 802

	// Notification errors (900-999)
	ErrCodeNotificationFailed    ErrorCode = 900
	ErrCodeNotifierNotConfigured ErrorCode = 901
)
