package contracts

// ITokenUsage accumulates prompt/completion token counts reported by the
// generative backends over one run. Implementations must be safe for
// concurrent use; analyses report from parallel workers.
type ITokenUsage interface {
	UsedTokens(inputTokens int, outputTokens int)
	CurrentUsage() (total int, input int, output int)
	DisplayUsage(providerName string, modelName string)
	Clear()
}
