// Package common defines shared sentinel errors used across the CiviLog
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound = errors.New("not found")

	// Connectivity: the service was unreachable at probe time.
	ErrOffline = errors.New("no connectivity")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")

	// Reference data: live fetch failed and no cache or fallback exists.
	ErrNoData = errors.New("no data available")
)
