package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/providers/models"
)

// fakeBackend is a scriptable chain member.
type fakeBackend struct {
	name      string
	available bool
	err       error
	content   string
	delay     time.Duration
	calls     int
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) IsAvailable(ctx context.Context) bool { return b.available }

func (b *fakeBackend) Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error) {
	b.calls++
	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, models.ErrTimeout
		case <-time.After(b.delay):
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return &models.GenerateResponse{Content: b.content, Model: b.name}, nil
}

func TestFallbackChain_FirstAvailableBackendWins(t *testing.T) {
	primary := &fakeBackend{name: "primary", available: true, content: "from primary"}
	secondary := &fakeBackend{name: "secondary", available: true, content: "from secondary"}

	chain := NewFallbackChain(time.Second, primary, secondary)
	response, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "from primary", response.Content)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls)
}

func TestFallbackChain_SkipsUnavailableBackends(t *testing.T) {
	down := &fakeBackend{name: "down", available: false}
	up := &fakeBackend{name: "up", available: true, content: "from up"}

	chain := NewFallbackChain(time.Second, down, up)
	response, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "from up", response.Content)
	assert.Zero(t, down.calls)
}

func TestFallbackChain_FallsThroughOnError(t *testing.T) {
	failing := &fakeBackend{name: "failing", available: true, err: models.ErrMalformedResponse}
	healthy := &fakeBackend{name: "healthy", available: true, content: "recovered"}

	chain := NewFallbackChain(time.Second, failing, healthy)
	response, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "recovered", response.Content)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
}

func TestFallbackChain_FirstErrorReportedWhenAllFail(t *testing.T) {
	first := &fakeBackend{name: "first", available: true, err: models.ErrMalformedResponse}
	second := &fakeBackend{name: "second", available: true, err: models.ErrUnavailable}

	chain := NewFallbackChain(time.Second, first, second)
	response, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})

	assert.Nil(t, response)
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestFallbackChain_UnavailableFirstBackendStillReportsItsError(t *testing.T) {
	down := &fakeBackend{name: "down", available: false}
	failing := &fakeBackend{name: "failing", available: true, err: models.ErrTimeout}

	chain := NewFallbackChain(time.Second, down, failing)
	_, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})

	// The skip of the unavailable backend is the first recorded failure
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestFallbackChain_PerAttemptTimeout(t *testing.T) {
	slow := &fakeBackend{name: "slow", available: true, delay: 200 * time.Millisecond, content: "late"}
	fast := &fakeBackend{name: "fast", available: true, content: "on time"}

	chain := NewFallbackChain(20*time.Millisecond, slow, fast)
	response, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	// The slow backend's timeout budget does not starve the next attempt
	assert.Equal(t, "on time", response.Content)
	assert.Equal(t, 1, slow.calls)
}

func TestFallbackChain_NoBackendsConfigured(t *testing.T) {
	chain := NewFallbackChain(time.Second)
	_, err := chain.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestFallbackChain_IsAvailable(t *testing.T) {
	down := &fakeBackend{name: "down", available: false}
	up := &fakeBackend{name: "up", available: true}

	assert.False(t, NewFallbackChain(time.Second, down).IsAvailable(context.Background()))
	assert.True(t, NewFallbackChain(time.Second, down, up).IsAvailable(context.Background()))
}
