package cmd

import (
	"fmt"
	"strings"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/storage/models"
)

func printChats(chats []models.ChatSession, currentID string) {
	lines := make([]string, 0, len(chats))
	for index, chat := range chats {
		marker := "  "
		if chat.ID == currentID {
			marker = "▶ "
		}
		lines = append(lines, fmt.Sprintf("%s%d. %s - %d messages, %d files, %s",
			marker, index+1, chat.Name, len(chat.Messages), chat.FileCount, chat.LastModified.Local().Format("2006-01-02 15:04")))
	}
	fmt.Println(lipgloss.BoxStyle.Render(strings.Join(lines, "\n")))
}

func printSettings(settings models.Settings) {
	onOff := func(value bool) string {
		if value {
			return "on"
		}
		return "off"
	}
	lines := []string{
		fmt.Sprintf("sidebar       %s", onOff(settings.SidebarOpen)),
		fmt.Sprintf("file-tracker  %s", onOff(settings.FileTrackerOpen)),
		fmt.Sprintf("internet      %s", onOff(settings.InternetAccess)),
		fmt.Sprintf("theme         %s", settings.Theme),
	}
	fmt.Println(lipgloss.BoxStyle.Render(strings.Join(lines, "\n")))
}

func printStorageStats(stats models.StorageStats) {
	info := fmt.Sprintf("Chats: %d - Messages: %d - Files: %d - File Size: %d KB",
		stats.TotalChats, stats.TotalMessages, stats.TotalFiles, stats.TotalFileSizeKB)
	fmt.Println(lipgloss.BoxStyle.Render(info))
}

func printIngestStats(stats analyzer_models.IngestStats) {
	message := fmt.Sprintf("✔️ %s: %d of %d code files added (%d files seen)",
		stats.Name, stats.ProcessedFiles, stats.CodeFiles, stats.TotalFiles)
	fmt.Println(lipgloss.Green.Render(message))

	if len(stats.Errors) > 0 {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("⚠️  %d files could not be read:", len(stats.Errors))))
		for _, failure := range stats.Errors {
			fmt.Println(lipgloss.Muted.Render("  " + failure))
		}
	}
}
