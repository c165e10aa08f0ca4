package cmd

import (
	"fmt"
	"time"

	"github.com/meysamhadeli/patchpilot/code_analyzer"
	"github.com/meysamhadeli/patchpilot/config"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the structure cache of PatchPilot",
	Long: `The 'reset-cache' command removes the cached structure summaries kept under the data
directory, together with the in-process configuration and ignore-file caches. Use --older-than or --max-files to
prune the cache instead of clearing it.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		maxFiles, _ := cmd.Flags().GetInt("max-files")

		handleResetCacheCommand(cmd, force, stats, code_analyzer.CacheCleanupOptions{MaxAge: olderThan, MaxFiles: maxFiles})
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")
	resetCacheCmd.Flags().Duration("older-than", 0, "Only remove entries older than this duration (e.g. 72h)")
	resetCacheCmd.Flags().Int("max-files", 0, "Only remove the oldest entries beyond this count")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(cmd *cobra.Command, force bool, showStats bool, cleanup code_analyzer.CacheCleanupOptions) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}
	defer rootDependencies.Close()

	if rootDependencies.CacheManager == nil {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return
	}

	// Show cache statistics if requested
	if showStats {
		printCacheStats(rootDependencies.CacheManager)
		return
	}

	spinner := newSpinner()

	if cleanup.MaxAge > 0 || cleanup.MaxFiles > 0 {
		spinnerInstance, _ := spinner.Start("Pruning structure cache...")
		removed, err := rootDependencies.CacheManager.CleanupCache(cleanup)
		_ = spinnerInstance.Stop()
		fmt.Print("\r")
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error pruning cache: %v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d cache entries.", removed)))
		return
	}

	// Confirm reset for full cache reset (if not forced)
	if !force && !confirm("Are you sure you want to reset the entire structure cache?") {
		fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
		return
	}

	spinnerInstance, _ := spinner.Start("Resetting structure cache...")
	err := rootDependencies.CacheManager.ClearCache()
	config.ClearConfigCache()
	utils.ClearIgnoreCache()
	_ = spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("✓ Structure cache has been successfully reset!"))
}

func printCacheStats(cacheManager *code_analyzer.CacheManager) {
	cacheStats, err := cacheManager.GetCacheStats()
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
		return
	}

	fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
	if dir, ok := cacheStats["cache_dir"].(string); ok {
		fmt.Printf("  Cache Directory: %s\n", dir)
	}
	if files, ok := cacheStats["cache_files"].(int); ok {
		fmt.Printf("  Cached Files: %d\n", files)
	}
	if size, ok := cacheStats["total_size"].(int64); ok {
		fmt.Printf("  Total Size: %.2f MB\n", float64(size)/(1024*1024))
	}
	if hitRate, ok := cacheStats["hit_rate"].(float64); ok {
		fmt.Printf("  Hit Rate: %.1f%%\n", hitRate)
	}
	if lastReset, ok := cacheStats["last_reset"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, lastReset); err == nil {
			fmt.Printf("  Since: %s\n", parsed.Local().Format("2006-01-02 15:04"))
		}
	}
}
