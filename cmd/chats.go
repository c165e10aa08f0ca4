package cmd

import (
	"fmt"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/spf13/cobra"
)

// chatsCmd: patchpilot chats
var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List saved chats and storage statistics.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		printChats(rootDependencies.Sessions.Chats(), rootDependencies.Sessions.CurrentID())
		printStorageStats(rootDependencies.Store.Stats(cmd.Context()))
	},
}

// clearChatsCmd: patchpilot chats clear
var clearChatsCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every chat, file and setting.",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		if !force && !confirm("Are you sure you want to delete all chats, files and settings?") {
			fmt.Println(lipgloss.Yellow.Render("Clear cancelled."))
			return
		}

		if err := rootDependencies.Store.ClearAll(cmd.Context()); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error clearing storage: %v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render("✓ All chats have been deleted."))
	},
}

func init() {
	clearChatsCmd.Flags().BoolP("force", "f", false, "Clear without confirmation")
	chatsCmd.AddCommand(clearChatsCmd)
	rootCmd.AddCommand(chatsCmd)
}
