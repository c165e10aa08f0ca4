package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meysamhadeli/patchpilot/assistant"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/project_context"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
	"github.com/meysamhadeli/patchpilot/session"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// chatCmd: patchpilot chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat about the files of the current chat session.",
	Long: `The 'chat' subcommand opens a session-based assistant. Files and directories added to a chat
become its project context: the directory tree, the per-file structure and a summary are sent with
every question. Chats, their files and settings are kept between runs. When the inference backend
cannot be reached, answers come from built-in analysis templates and are marked as basic mode.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()
		handleChatCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatState is what the REPL remembers between two prompts.
type chatState struct {
	rootDependencies *RootDependencies
	reader           *bufio.Reader
	renderer         *utils.MarkdownRenderer
	lastActions      []context_models.Action
}

func newSpinner() *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)
}

func handleChatCommand(rootDependencies *RootDependencies) {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go utils.GracefulShutdown(ctx, cancel, func() {
		rootDependencies.TokenManagement.ClearToken()
	})

	state := &chatState{
		rootDependencies: rootDependencies,
		reader:           bufio.NewReader(os.Stdin),
		renderer:         utils.NewMarkdownRenderer(os.Stdout, rootDependencies.Config.Theme),
	}

	fmt.Println(lipgloss.BoxStyle.Render("/help  Help for chat commands"))

	spinnerStatus, _ := newSpinner().Start("Checking inference backend...")
	status := rootDependencies.Assistant.Status(ctx)
	spinnerStatus.Stop()
	fmt.Print("\r")
	printBackendStatus(rootDependencies, status.Available, status.Error, status.HasCodeModel())
	printCurrentChat(rootDependencies)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Get user input with context cancellation support
		userInput, err := utils.InputPromptWithContext(ctx, state.reader)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		if userInput == "" {
			fmt.Print("\r")
			continue
		}

		if strings.HasPrefix(userInput, "/") {
			if exit := state.runCommand(ctx, userInput); exit {
				return
			}
			continue
		}

		state.ask(ctx, userInput)
	}
}

// ask sends one message through the assistant and prints the reply.
func (state *chatState) ask(ctx context.Context, userInput string) {
	rootDependencies := state.rootDependencies
	current := rootDependencies.Sessions.Current()

	var reply *assistant.Reply
	err := state.withProgress(providerSpinnerText(rootDependencies), func() error {
		var err error
		reply, err = rootDependencies.Assistant.Ask(ctx, userInput)
		return err
	})
	if err != nil {
		if errors.Is(err, session.ErrRequestInFlight) {
			fmt.Println(lipgloss.Yellow.Render("⏳ Still answering the previous message in this chat."))
			return
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if session.IsDefaultName(current.Name) && reply.Committed {
		filename := ""
		if files := rootDependencies.Sessions.Files(); len(files) == 1 {
			filename = files[0].Name
		}
		if _, err := rootDependencies.Sessions.AutoName(ctx, current.ID, filename, userInput); err != nil {
			rootDependencies.Logger.Warn().Err(err).Str("chat_id", current.ID).Msg("failed to name chat")
		}
	}

	state.printReply(ctx, reply)
}

// withProgress runs operation under a spinner that follows the assistant's progress ticks.
func (state *chatState) withProgress(text string, operation func() error) error {
	drainProgress(state.rootDependencies.Progress)

	spinner, _ := newSpinner().Start(text)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		for {
			select {
			case progress := <-state.rootDependencies.Progress:
				spinner.UpdateText(fmt.Sprintf("%s (%d%%)", progress.Message, progress.Percent))
			case <-done:
				return
			}
		}
	}()

	err := operation()
	close(done)
	<-stopped
	_ = spinner.Stop()
	fmt.Print("\r")
	return err
}

func drainProgress(progress <-chan assistant.Progress) {
	for {
		select {
		case <-progress:
		default:
			return
		}
	}
}

func (state *chatState) printReply(ctx context.Context, reply *assistant.Reply) {
	rootDependencies := state.rootDependencies

	fmt.Println()
	if reply.BasicMode {
		fmt.Println(lipgloss.BasicModeBadge.Render("BASIC MODE"))
	}

	if err := state.renderer.Render(ctx, reply.Content); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(lipgloss.Yellow.Render("Output cancelled by user"))
			return
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error rendering markdown: %v", err)))
	}

	state.lastActions = reply.Actions
	if len(reply.Actions) > 0 {
		labels := make([]string, 0, len(reply.Actions))
		for index, action := range reply.Actions {
			labels = append(labels, fmt.Sprintf("[%d] %s", index+1, action.Label))
		}
		fmt.Println(lipgloss.Muted.Render("Follow-ups (/do <n>): " + strings.Join(labels, "  ")))
	}

	if !reply.Committed {
		fmt.Println(lipgloss.Yellow.Render("The chat changed while this answer was produced; it was not saved."))
	}

	if rootDependencies.Backend != nil && !reply.BasicMode {
		rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.Provider, rootDependencies.Config.AIProviderConfig.Model)
	}
}

func providerSpinnerText(rootDependencies *RootDependencies) string {
	if rootDependencies.Backend == nil {
		return "Preparing a basic mode answer..."
	}
	switch rootDependencies.Config.AIProviderConfig.Provider {
	case "openai":
		return "ChatGPT is processing your request..."
	case "eino-ollama", "ollama":
		return "Local AI is working..."
	default:
		return "AI is thinking..."
	}
}

func printBackendStatus(rootDependencies *RootDependencies, available bool, statusError string, hasCodeModel bool) {
	model := rootDependencies.Config.AIProviderConfig.Model
	if available {
		message := fmt.Sprintf("✔️ %s is ready (%s)", rootDependencies.Config.AIProviderConfig.Provider, model)
		fmt.Println(lipgloss.Green.Render(message))
		if !hasCodeModel {
			fmt.Println(lipgloss.Muted.Render("No code model installed; try 'ollama pull codellama:7b-instruct' for better answers."))
		}
		return
	}

	fmt.Println(lipgloss.BasicModeBadge.Render("BASIC MODE") + " " + lipgloss.Yellow.Render("The inference backend is not reachable."))
	if statusError != "" {
		fmt.Println(lipgloss.Muted.Render(statusError))
	}
	fmt.Println(lipgloss.Muted.Render(fmt.Sprintf("Start it with 'ollama serve' and 'ollama pull %s' for full answers.", model)))
}

func printCurrentChat(rootDependencies *RootDependencies) {
	current := rootDependencies.Sessions.Current()
	info := fmt.Sprintf("💬 %s - %d messages, %d files", current.Name, len(current.Messages), current.FileCount)
	fmt.Println(lipgloss.Info.Render(info))

	if current.FileCount == 0 {
		commands := make([]string, 0, 3)
		for _, action := range project_context.UploadActions() {
			if command, ok := actionCommands[action]; ok {
				commands = append(commands, command)
			}
		}
		fmt.Println(lipgloss.Muted.Render("Add code with " + strings.Join(commands, ", ")))
	}
}
