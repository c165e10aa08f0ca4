package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// analyzeCmd: patchpilot analyze <path>
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-directory>",
	Short: "Analyze a file or a directory in a new chat.",
	Long: `The 'analyze' subcommand starts a new chat, adds the given file or every code file of the
given directory to it and prints the analysis. The chat is saved and can be continued with 'chat'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := handleAnalyzeCommand(ctx, rootDependencies, args[0]); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func handleAnalyzeCommand(ctx context.Context, rootDependencies *RootDependencies, target string) error {
	state := &chatState{
		rootDependencies: rootDependencies,
		renderer:         utils.NewMarkdownRenderer(os.Stdout, rootDependencies.Config.Theme),
	}

	info, err := afero.NewOsFs().Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", target, err)
	}

	if _, err := rootDependencies.Sessions.NewChat(ctx); err != nil {
		return err
	}

	if !info.IsDir() {
		if err := state.addFile(ctx, target); err != nil {
			return err
		}
		files := rootDependencies.Sessions.Files()
		return state.analyzeFile(ctx, files[len(files)-1].ID)
	}

	if err := state.addDirectory(ctx, target); err != nil {
		return err
	}
	state.ask(ctx, "Please analyze this project")
	return nil
}
