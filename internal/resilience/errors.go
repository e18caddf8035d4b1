// Package resilience provides typed provider failures and retry helpers
// shared by the external API clients.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindRateLimited     Kind = "rate_limited"
	KindInvalidResponse Kind = "invalid_response"
	KindTimeout         Kind = "timeout"
)

// ProviderError is a typed failure from an external provider call.
// StatusCode is zero when the failure happened below the HTTP layer.
type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a typed provider failure.
func NewProviderError(provider string, kind Kind, statusCode int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// ClassifyStatus maps an HTTP status code to a failure kind.
func ClassifyStatus(statusCode int) Kind {
	switch statusCode {
	case 429, 529:
		return KindRateLimited
	case 408, 504:
		return KindTimeout
	default:
		return KindInvalidResponse
	}
}

// ClassifyTransportError maps a transport-level error to a failure kind.
func ClassifyTransportError(err error) Kind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// IsRateLimited reports whether the error chain contains a capacity or
// rate-limit failure (HTTP 429/529).
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}

// IsTransient reports whether the error is safe to retry.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case KindNetwork, KindTimeout, KindRateLimited:
			return true
		}
		return pe.StatusCode >= 500 && pe.StatusCode < 600
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
