// Package cohere provides a Cohere chat API client that writes short
// empathetic replies to how a user says they feel.
package cohere

import (
	"errors"
	"time"
)

// ErrMissingAPIKey is returned when no Cohere API key is configured.
var ErrMissingAPIKey = errors.New("missing COHERE_API_KEY")

// Config holds Cohere API configuration.
type Config struct {
	APIKey  string
	Model   string        // Defaults to DefaultModel
	Timeout time.Duration // Defaults to DefaultTimeout
}
