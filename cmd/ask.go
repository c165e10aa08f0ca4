package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/project_context"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/spf13/cobra"
)

// askCmd: patchpilot ask <question>
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-off question without touching the saved chats.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		handleAskCommand(ctx, rootDependencies, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func handleAskCommand(ctx context.Context, rootDependencies *RootDependencies, question string) {
	renderer := utils.NewMarkdownRenderer(os.Stdout, rootDependencies.Config.Theme)

	answer := ""
	if rootDependencies.Backend != nil {
		spinner, _ := newSpinner().Start(providerSpinnerText(rootDependencies))
		var err error
		answer, err = rootDependencies.Backend.Ask(ctx, question)
		_ = spinner.Stop()
		fmt.Print("\r")
		if err != nil {
			rootDependencies.Logger.Warn().Err(err).Msg("ask failed, answering in basic mode")
			answer = ""
		}
	}

	if strings.TrimSpace(answer) == "" {
		fmt.Println(lipgloss.BasicModeBadge.Render("BASIC MODE"))
		answer = project_context.NoFilesResponse(question).Content
	}

	if err := renderer.Render(ctx, answer); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error rendering markdown: %v", err)))
	}
}
