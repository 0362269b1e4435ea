package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/archlens/archlens/constants/lipgloss"
	"github.com/archlens/archlens/utils"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the analysis result cache.",
	Long: `The 'reset-cache' command removes all persisted analysis results.
Cached entries are keyed by content hash, so a reset is only needed to force
fresh generative analysis of unchanged files or to recover from a corrupted
cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		var force bool
		var stats bool

		// Parse flags
		force, _ = cmd.Flags().GetBool("force")
		stats, _ = cmd.Flags().GetBool("stats")

		// Handle reset-cache command
		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics before reset")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	// Show cache statistics if requested
	if showStats {
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		cacheStats, err := rootDependencies.Cache.Stats()
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
			return
		}

		if dir, ok := cacheStats["cache_dir"].(string); ok {
			fmt.Printf("  Cache Directory: %s\n", dir)
		}
		if entries, ok := cacheStats["disk_entries"].(int); ok {
			fmt.Printf("  Cached Results: %d\n", entries)
		}
		if size, ok := cacheStats["total_size"].(int64); ok {
			fmt.Printf("  Total Size: %.2f MB\n", float64(size)/(1024*1024))
		}

		// Only show stats, skip the actual reset
		return
	}

	// Confirm reset for full cache reset (if not forced)
	if !force {
		reader := bufio.NewReader(os.Stdin)
		accepted, err := utils.ConfirmPrompt("Are you sure you want to reset the analysis cache?", reader)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting user prompt: %v", err)))
			return
		}
		if !accepted {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	// Reset the cache
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting analysis cache...")

	err := rootDependencies.Cache.Clear()
	if err != nil {
		spinnerInstance.Stop()
		fmt.Print("\r")
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	spinnerInstance.Stop()
	fmt.Print("\r")
	fmt.Println(lipgloss.Green.Render("✓ Analysis cache has been successfully reset!"))
}
