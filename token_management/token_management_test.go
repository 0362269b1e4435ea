package token_management

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsage_Accumulates(t *testing.T) {
	usage := NewTokenUsage()

	usage.UsedTokens(10, 5)
	usage.UsedTokens(3, 2)

	total, input, output := usage.CurrentUsage()
	assert.Equal(t, 20, total)
	assert.Equal(t, 13, input)
	assert.Equal(t, 7, output)

	usage.Clear()
	total, input, output = usage.CurrentUsage()
	assert.Zero(t, total)
	assert.Zero(t, input)
	assert.Zero(t, output)
}

func TestTokenUsage_ConcurrentUpdates(t *testing.T) {
	usage := NewTokenUsage()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usage.UsedTokens(2, 1)
		}()
	}
	wg.Wait()

	total, input, output := usage.CurrentUsage()
	assert.Equal(t, 150, total)
	assert.Equal(t, 100, input)
	assert.Equal(t, 50, output)
}
