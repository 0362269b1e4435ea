package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/archlens/archlens/arch_analyzer"
	"github.com/archlens/archlens/arch_analyzer/agents"
	"github.com/archlens/archlens/arch_analyzer/contracts"
	"github.com/archlens/archlens/arch_analyzer/models"
	"github.com/archlens/archlens/constants/lipgloss"
	"github.com/archlens/archlens/diagram"
	"github.com/archlens/archlens/utils"
)

// analyzeCmd: archlens analyze [path]
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source repository and generate its architecture model.",
	Long: `The 'analyze' subcommand scans the given directory (default: current
directory), runs static dependency extraction plus the generative analysis
passes over every discovered component, reconciles the results and writes the
architecture model, a PlantUML diagram and a Mermaid diagram to the output
directory.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			os.Exit(1)
		}

		target := rootDependencies.Cwd
		if len(args) > 0 {
			target = args[0]
		}
		if err := handleAnalyzeCommand(rootDependencies, target); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func handleAnalyzeCommand(rootDependencies *RootDependencies, target string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("failed to resolve target path: %w", err)
	}

	projectName := rootDependencies.Config.ProjectName
	if projectName == "" {
		projectName = filepath.Base(absTarget)
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerScan, _ := spinner.Start("Scanning source tree...")
	components, err := rootDependencies.Parser.DiscoverComponents(absTarget)
	spinnerScan.Stop()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("failed to scan source tree: %w", err)
	}

	analysisCfg := rootDependencies.Config.Analysis

	var analysisAgents []contracts.IAnalysisAgent
	if analysisCfg.EnableGenerativeAnalysis {
		analysisAgents = []contracts.IAnalysisAgent{
			agents.NewStructuralAgent(rootDependencies.Backend, analysisCfg.PreferredModel, analysisCfg.Temperature),
			agents.NewRelationshipAgent(rootDependencies.Backend, analysisCfg.PreferredModel, analysisCfg.Temperature),
			agents.NewResponsibilityAgent(rootDependencies.Backend, analysisCfg.PreferredModel, analysisCfg.Temperature),
		}
	}

	orchestrator := arch_analyzer.NewOrchestrator(analysisAgents, rootDependencies.Cache, arch_analyzer.Options{
		ProjectName:       projectName,
		Concurrency:       analysisCfg.Concurrency,
		ForceRefresh:      analysisCfg.ForceCacheRefresh,
		GenerativeEnabled: analysisCfg.EnableGenerativeAnalysis,
	})

	spinnerAnalyze, _ := spinner.Start(fmt.Sprintf("Analyzing %d components...", len(components)))
	snapshot, err := orchestrator.Run(ctx, components)
	spinnerAnalyze.Stop()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeOutputs(rootDependencies, snapshot); err != nil {
		return err
	}

	printSummary(rootDependencies, snapshot, orchestrator.State())
	rootDependencies.TokenManagement.DisplayUsage("backend chain", analysisCfg.PreferredModel)
	return nil
}

// writeOutputs persists the model and the diagram sources to the output dir.
func writeOutputs(rootDependencies *RootDependencies, snapshot *models.ArchitectureSnapshot) error {
	outputDir := rootDependencies.Config.Analysis.OutputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	modelData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode architecture model: %w", err)
	}
	modelPath := filepath.Join(outputDir, "architecture.json")
	if err := os.WriteFile(modelPath, modelData, 0644); err != nil {
		return fmt.Errorf("failed to write architecture model: %w", err)
	}

	renderers := []diagram.Renderer{
		diagram.NewPlantUMLRenderer(),
		diagram.NewMermaidRenderer(),
	}
	for _, renderer := range renderers {
		source := renderer.Render(snapshot)
		path := filepath.Join(outputDir, "architecture"+renderer.FileExtension())
		if err := os.WriteFile(path, []byte(source), 0644); err != nil {
			return fmt.Errorf("failed to write %s diagram: %w", renderer.Name(), err)
		}
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Architecture model written to %s", outputDir)))
	return nil
}

func printSummary(rootDependencies *RootDependencies, snapshot *models.ArchitectureSnapshot, state arch_analyzer.RunState) {
	health := snapshot.Analysis.SystemHealth

	summary := fmt.Sprintf(
		"Project: %s\nComponents: %d\nRelationships: %d\nHealth: %s (%.2f)\nFallback results: %d\nState: %s",
		snapshot.Metadata.ProjectName,
		snapshot.Metadata.TotalComponents,
		len(snapshot.Relationships),
		health.HealthLevel, health.OverallScore,
		health.FallbackResults,
		state,
	)
	fmt.Println(lipgloss.BoxStyle.Render(summary))

	for _, recommendation := range snapshot.Analysis.Recommendations {
		fmt.Println(lipgloss.Yellow.Render("• " + recommendation))
	}

	// Mermaid preview renders inline; PlantUML needs an external renderer.
	mermaid := diagram.NewMermaidRenderer().Render(snapshot)
	fmt.Println(lipgloss.Info.Render("Diagram preview:"))
	utils.PrintHighlighted(mermaid, "mermaid", rootDependencies.Config.Theme)
}
