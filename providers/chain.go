package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/archlens/archlens/providers/contracts"
	"github.com/archlens/archlens/providers/models"
)

// DefaultAttemptTimeout is the reference per-backend timeout. It applies to
// each attempt separately, not cumulatively across the chain.
const DefaultAttemptTimeout = 120 * time.Second

// FallbackChain tries an ordered list of backends until one responds. Prior
// failures are logged but not surfaced unless every backend fails, in which
// case the first error is reported.
type FallbackChain struct {
	clients        []contracts.IGenerativeClient
	attemptTimeout time.Duration
}

// NewFallbackChain builds a chain over the given backends in priority order.
// A non-positive timeout falls back to DefaultAttemptTimeout.
func NewFallbackChain(attemptTimeout time.Duration, clients ...contracts.IGenerativeClient) contracts.IGenerativeClient {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &FallbackChain{
		clients:        clients,
		attemptTimeout: attemptTimeout,
	}
}

func (fc *FallbackChain) Name() string {
	return "chain"
}

// IsAvailable reports whether any backend in the chain is available.
func (fc *FallbackChain) IsAvailable(ctx context.Context) bool {
	for _, client := range fc.clients {
		if client.IsAvailable(ctx) {
			return true
		}
	}
	return false
}

func (fc *FallbackChain) Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error) {
	if len(fc.clients) == 0 {
		return nil, fmt.Errorf("%w: no backends configured", models.ErrUnavailable)
	}

	var firstErr error
	for _, client := range fc.clients {
		if err := ctx.Err(); err != nil {
			if firstErr != nil {
				return nil, firstErr
			}
			return nil, fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}

		if !client.IsAvailable(ctx) {
			err := fmt.Errorf("%w: %s not available", models.ErrUnavailable, client.Name())
			logrus.WithField("backend", client.Name()).Debug("skipping unavailable backend")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		// Each backend gets its own timeout budget.
		attemptCtx, cancel := context.WithTimeout(ctx, fc.attemptTimeout)
		response, err := client.Generate(attemptCtx, request)
		cancel()

		if err == nil {
			return response, nil
		}

		logrus.WithFields(logrus.Fields{
			"backend": client.Name(),
			"error":   err,
		}).Warn("backend attempt failed, trying next")
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}
