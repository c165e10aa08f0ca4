package cmd

import (
	"fmt"
	"time"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// exportCmd: patchpilot export [file]
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export every chat, file and setting to a JSON document.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		target := fmt.Sprintf("patchpilot-export-%s.json", time.Now().Format("2006-01-02"))
		if len(args) == 1 {
			target = args[0]
		}

		data, err := rootDependencies.Store.Export(cmd.Context())
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error exporting chats: %v", err)))
			return
		}
		if err := afero.WriteFile(afero.NewOsFs(), target, data, 0644); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error writing %s: %v", target, err)))
			return
		}

		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Exported to %s", target)))
	},
}

// importCmd: patchpilot import <file>
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace every chat, file and setting with an exported JSON document.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		data, err := afero.ReadFile(afero.NewOsFs(), args[0])
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading %s: %v", args[0], err)))
			return
		}

		if !force && !confirm("Importing replaces all existing chats. Continue?") {
			fmt.Println(lipgloss.Yellow.Render("Import cancelled."))
			return
		}

		if err := rootDependencies.Store.Import(cmd.Context(), data); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error importing chats: %v", err)))
			return
		}

		stats := rootDependencies.Store.Stats(cmd.Context())
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Imported %d chats with %d files", stats.TotalChats, stats.TotalFiles)))
	},
}

func init() {
	importCmd.Flags().BoolP("force", "f", false, "Import without confirmation")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
