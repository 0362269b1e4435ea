package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/archlens/archlens/arch_analyzer"
	"github.com/archlens/archlens/code_parser"
	code_parser_contracts "github.com/archlens/archlens/code_parser/contracts"
	"github.com/archlens/archlens/config"
	"github.com/archlens/archlens/constants/lipgloss"
	"github.com/archlens/archlens/providers"
	contracts_provider "github.com/archlens/archlens/providers/contracts"
	"github.com/archlens/archlens/providers/mock"
	"github.com/archlens/archlens/providers/ollama"
	"github.com/archlens/archlens/providers/openai"
	"github.com/archlens/archlens/token_management"
	token_contracts "github.com/archlens/archlens/token_management/contracts"
)

// RootDependencies holds the wired collaborators every subcommand needs.
type RootDependencies struct {
	Config          *config.Config
	Cwd             string
	Parser          code_parser_contracts.ICodeParser
	Backend         contracts_provider.IGenerativeClient
	Cache           *arch_analyzer.AnalysisCache
	TokenManagement token_contracts.ITokenUsage
}

// rootCmd: archlens
var rootCmd = &cobra.Command{
	Use:   "archlens",
	Short: "Derive architecture models from source repositories.",
	Long: `archlens scans a source repository, combines static dependency extraction
with generative analysis passes, and produces a reconciled architecture model
with C4-flavored diagrams. Results are cached by content hash so unchanged
files never trigger repeat backend calls.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	config.InitFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads configuration and wires the shared dependencies.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(rootCmd, cwd)

	tokenUsage := token_management.NewTokenUsage()

	// Backend priority: local model, hosted API, deterministic mock.
	backend := providers.NewFallbackChain(
		time.Duration(cfg.Analysis.RequestTimeoutSeconds)*time.Second,
		ollama.NewOllamaClient(&ollama.OllamaConfig{
			BaseURL:    cfg.Analysis.BackendEndpoint,
			Model:      cfg.Analysis.PreferredModel,
			TokenUsage: tokenUsage,
		}),
		openai.NewOpenAIClient(&openai.OpenAIConfig{
			BaseURL:    cfg.Analysis.OpenAIBaseURL,
			Model:      "gpt-4o",
			ApiKey:     cfg.Analysis.ApiKey,
			TokenUsage: tokenUsage,
		}),
		mock.NewMockClient(),
	)

	cache, err := arch_analyzer.NewAnalysisCache(cfg.Analysis.CacheDir)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error initializing analysis cache: %v", err)))
		return nil
	}

	return &RootDependencies{
		Config:          cfg,
		Cwd:             cwd,
		Parser:          code_parser.NewCodeParser(cfg.Analysis.TargetLanguages),
		Backend:         backend,
		Cache:           cache,
		TokenManagement: tokenUsage,
	}
}
