package cmd

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/spf13/cobra"
)

// statusCmd: patchpilot status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the inference backend and show the installed models.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		spinner, _ := newSpinner().Start("Checking inference backend...")
		status := rootDependencies.Assistant.Status(cmd.Context())
		_ = spinner.Stop()
		fmt.Print("\r")

		if rootDependencies.Backend != nil {
			provider := rootDependencies.Backend.Provider()
			fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Provider: %s - Model: %s", provider.Name(), provider.Model())))
		}
		printBackendStatus(rootDependencies, status.Available, status.Error, status.HasCodeModel())
		if len(status.Models) > 0 {
			fmt.Println(lipgloss.BoxStyle.Render("Models:\n" + strings.Join(status.Models, "\n")))
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
