package cmd

import (
	"errors"
	"fmt"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/providers"
	"github.com/spf13/cobra"
)

// pullCmd: patchpilot pull [model]
var pullCmd = &cobra.Command{
	Use:   "pull [model]",
	Short: "Install a model into the local Ollama server (the configured model by default).",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		if rootDependencies.Backend == nil {
			fmt.Println(lipgloss.Red.Render("No inference backend is configured."))
			return
		}

		model := rootDependencies.Config.AIProviderConfig.Model
		if len(args) == 1 {
			model = args[0]
		}

		spinner, _ := newSpinner().Start(fmt.Sprintf("Installing %s, this can take a while...", model))
		err := rootDependencies.Backend.InstallModel(cmd.Context(), model)
		_ = spinner.Stop()
		fmt.Print("\r")

		if err != nil {
			if errors.Is(err, providers.ErrInstallUnsupported) {
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("%v, use the 'ollama' provider to install models.", err)))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Successfully installed model: %s", model)))
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
