package contracts

import (
	"context"

	"github.com/archlens/archlens/providers/models"
)

// IGenerativeClient is the capability interface implemented by every
// text-generation backend and by the fallback chain itself.
type IGenerativeClient interface {
	// Name identifies the backend in logs and usage reports.
	Name() string

	// IsAvailable reports whether the backend can currently serve requests.
	// It must be cheap; a short probe with its own timeout is acceptable.
	IsAvailable(ctx context.Context) bool

	// Generate produces a completion for the request. Failures wrap one of
	// models.ErrUnavailable, models.ErrTimeout or models.ErrMalformedResponse.
	Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error)
}
