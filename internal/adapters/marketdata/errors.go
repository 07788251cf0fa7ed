package marketdata

import "errors"

// Sentinel errors for market data collection.
var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrSymbolNotFound   = errors.New("symbol not found")
)
