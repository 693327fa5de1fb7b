// Package govern enforces a byte budget on serialized tool responses.
//
// Every outward response passes through a [Limiter] before reaching the
// caller. A response over budget is reported, never silently truncated, so
// the requester can be told to narrow the query.
package govern

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxKB is the default response budget in kilobytes.
const DefaultMaxKB = 10

// TooLargeError reports a response that exceeded the configured budget.
type TooLargeError struct {
	// Size is the actual serialized size in bytes.
	Size int

	// Limit is the configured budget in bytes.
	Limit int
}

// Error returns the formatted error message.
func (e *TooLargeError) Error() string {
	return fmt.Sprintf("response too large (%dKB, limit %dKB); refine the query to reduce results",
		e.Size/1024, e.Limit/1024)
}

// Limiter guards responses against a maximum serialized size. The limit is
// explicit configuration threaded through the constructor; there is no
// process-global state.
type Limiter struct {
	maxBytes int
}

// NewLimiter creates a limiter with a budget of maxKB kilobytes. Zero or
// negative values fall back to DefaultMaxKB.
func NewLimiter(maxKB int) Limiter {
	if maxKB <= 0 {
		maxKB = DefaultMaxKB
	}
	return Limiter{maxBytes: maxKB * 1024}
}

// MaxBytes returns the configured budget in bytes.
func (l Limiter) MaxBytes() int {
	return l.maxBytes
}

// Guard serializes v to indented JSON and returns the text if it fits the
// budget. A payload of exactly the limit passes; one byte over fails with a
// *TooLargeError carrying both sizes.
func (l Limiter) Guard(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("govern: serialize response: %w", err)
	}
	if len(data) > l.maxBytes {
		return "", &TooLargeError{Size: len(data), Limit: l.maxBytes}
	}
	return string(data), nil
}
