package common

import (
	"errors"
	"fmt"
)

var (
	// ErrQuoteUnavailable is returned when no quote source has data for a code
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrNoHoldingsExtractor is returned when screenshot OCR is not configured
	ErrNoHoldingsExtractor = errors.New("holdings extractor not configured")

	// ErrNoData is returned when an endpoint answers without a payload
	ErrNoData = errors.New("no data in response")
)

// APIError represents a non-200 answer from an upstream endpoint
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Source, e.Message, e.StatusCode, e.Endpoint)
}
