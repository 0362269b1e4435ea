package token_management

import (
	"fmt"
	"sync"

	"github.com/archlens/archlens/constants/lipgloss"
	"github.com/archlens/archlens/token_management/contracts"
)

type tokenUsage struct {
	mutex           sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

// NewTokenUsage creates a token usage tracker for one analysis run.
func NewTokenUsage() contracts.ITokenUsage {
	return &tokenUsage{}
}

// UsedTokens accumulates the token count for the run.
func (tu *tokenUsage) UsedTokens(inputTokens int, outputTokens int) {
	tu.mutex.Lock()
	defer tu.mutex.Unlock()

	tu.usedInputToken += inputTokens
	tu.usedOutputToken += outputTokens
	tu.usedToken += inputTokens + outputTokens
}

func (tu *tokenUsage) CurrentUsage() (total int, input int, output int) {
	tu.mutex.Lock()
	defer tu.mutex.Unlock()

	return tu.usedToken, tu.usedInputToken, tu.usedOutputToken
}

func (tu *tokenUsage) DisplayUsage(providerName string, modelName string) {
	total, input, output := tu.CurrentUsage()
	if total == 0 {
		return
	}

	usageInfo := fmt.Sprintf("Tokens Used: %d (input: %d, output: %d) - Backend: %s - Model: %s",
		total, input, output, providerName, modelName)
	fmt.Println(lipgloss.BoxStyle.Render(usageInfo))
}

func (tu *tokenUsage) Clear() {
	tu.mutex.Lock()
	defer tu.mutex.Unlock()

	tu.usedToken = 0
	tu.usedInputToken = 0
	tu.usedOutputToken = 0
}
