package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meysamhadeli/patchpilot/assistant"
	"github.com/meysamhadeli/patchpilot/code_analyzer"
	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/project_context"
	"github.com/meysamhadeli/patchpilot/session"
	"github.com/meysamhadeli/patchpilot/storage/models"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/spf13/afero"
)

const chatHelp = `/clear                      Clear screen
/exit                       Exit from patchpilot
/token                      Token information
/clear-token                Clear token from session
/status                     Inference backend status
/new                        Start a new chat
/chats                      List chats
/switch <n|id>              Switch to another chat
/rename <name>              Rename the current chat
/delete [n|id]              Delete a chat (the current one by default)
/add <file> [file...]       Add files to the current chat
/add-dir <directory>        Add every code file of a directory
/new-file <name>            Add an empty file
/edit <file> [source]       Replace a file's content from disk
/remove <file>              Remove a file from the current chat
/files                      List files using the display mode
/tree                       Show the project tree
/outline <file>             Show the syntax outline of a file
/analyze <file>             Review a single file
/do <n>                     Run a suggested follow-up
/display-mode               Show current file display mode
/set-display-mode <mode>    Set file display mode (info/relevant/full)
/settings                   Show settings
/set <key> <value>          Change a setting (sidebar, file-tracker, internet, theme)
/stats                      Storage statistics`

// runCommand handles one slash command and reports whether the REPL should exit.
func (state *chatState) runCommand(ctx context.Context, input string) bool {
	rootDependencies := state.rootDependencies
	command, argument, _ := strings.Cut(input, " ")
	argument = strings.TrimSpace(argument)

	var err error
	switch command {
	case "/help":
		fmt.Println(lipgloss.BoxStyle.Render(chatHelp))
	case "/clear":
		fmt.Print("\033[2J\033[H")
	case "/exit":
		return true
	case "/token":
		rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.Provider, rootDependencies.Config.AIProviderConfig.Model)
	case "/clear-token":
		rootDependencies.TokenManagement.ClearToken()
	case "/status":
		status := rootDependencies.Assistant.Status(ctx)
		printBackendStatus(rootDependencies, status.Available, status.Error, status.HasCodeModel())
		if len(status.Models) > 0 {
			fmt.Println(lipgloss.Muted.Render("Models: " + strings.Join(status.Models, ", ")))
		}
	case "/new":
		var chat models.ChatSession
		if chat, err = rootDependencies.Sessions.NewChat(ctx); err == nil {
			state.lastActions = nil
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Started %s", chat.Name)))
		}
	case "/chats":
		printChats(rootDependencies.Sessions.Chats(), rootDependencies.Sessions.CurrentID())
	case "/switch":
		err = state.switchChat(ctx, argument)
	case "/rename":
		err = rootDependencies.Sessions.RenameChat(ctx, rootDependencies.Sessions.CurrentID(), argument)
	case "/delete":
		err = state.deleteChat(ctx, argument)
	case "/add":
		if paths := strings.Fields(argument); len(paths) > 1 {
			err = state.addFiles(ctx, paths)
		} else {
			err = state.addFile(ctx, argument)
		}
	case "/add-dir":
		err = state.addDirectory(ctx, argument)
	case "/new-file":
		err = state.newFile(ctx, argument)
	case "/edit":
		err = state.editFile(ctx, argument)
	case "/remove":
		err = state.removeFile(ctx, argument)
	case "/files":
		state.printFiles(ctx)
	case "/tree":
		tree := rootDependencies.Analyzer.BuildTree(rootDependencies.Sessions.Files())
		fmt.Println(project_context.RenderTree(tree))
		fmt.Println(lipgloss.Muted.Render(fmt.Sprintf("%d files", code_analyzer.CountTreeFiles(tree))))
	case "/outline":
		err = state.printOutline(argument)
	case "/analyze":
		err = state.analyzeFile(ctx, argument)
	case "/do":
		state.runFollowUp(ctx, argument)
	case "/display-mode":
		fmt.Printf("Current file display mode: %s\n", rootDependencies.Config.FileDisplayMode)
		fmt.Println("Available modes:")
		fmt.Println("  info     - Show only file path, language and line count")
		fmt.Println("  relevant - Show the syntax outline of every file")
		fmt.Println("  full     - Show complete file content")
	case "/set-display-mode":
		if argument == "info" || argument == "relevant" || argument == "full" {
			rootDependencies.Config.FileDisplayMode = argument
			fmt.Printf("File display mode set to: %s\n", argument)
		} else {
			fmt.Println("Invalid display mode. Use 'info', 'relevant', or 'full'.")
		}
	case "/settings":
		printSettings(rootDependencies.Sessions.Settings())
	case "/set":
		err = state.updateSetting(ctx, argument)
	case "/stats":
		printStorageStats(rootDependencies.Store.Stats(ctx))
	default:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, type /help for the list.", command)))
	}

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
	return false
}

// resolveChat accepts a 1-based position in the chat list or a chat id.
func resolveChat(chats []models.ChatSession, key string) (string, error) {
	if key == "" {
		return "", errors.New("a chat number or id is required")
	}
	if position, err := strconv.Atoi(key); err == nil {
		if position < 1 || position > len(chats) {
			return "", fmt.Errorf("%w: %s", session.ErrChatNotFound, key)
		}
		return chats[position-1].ID, nil
	}
	return key, nil
}

func (state *chatState) switchChat(ctx context.Context, key string) error {
	sessions := state.rootDependencies.Sessions
	chatID, err := resolveChat(sessions.Chats(), key)
	if err != nil {
		return err
	}
	if err := sessions.SelectChat(ctx, chatID); err != nil {
		return err
	}
	state.lastActions = nil
	printCurrentChat(state.rootDependencies)
	return nil
}

func (state *chatState) deleteChat(ctx context.Context, key string) error {
	sessions := state.rootDependencies.Sessions
	chatID := sessions.CurrentID()
	if key != "" {
		var err error
		if chatID, err = resolveChat(sessions.Chats(), key); err != nil {
			return err
		}
	}

	chat, err := sessions.Chat(chatID)
	if err != nil {
		return err
	}
	confirmed, err := utils.ConfirmPrompt(fmt.Sprintf("Delete '%s' and its files?", chat.Name), state.reader)
	if err != nil || !confirmed {
		return err
	}

	if err := sessions.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, session.ErrLastChat) {
			return errors.New("cannot delete the last chat, create a new one first")
		}
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Deleted %s", chat.Name)))
	printCurrentChat(state.rootDependencies)
	return nil
}

func (state *chatState) readLocalFile(localPath string) (string, error) {
	if localPath == "" {
		return "", errors.New("a file path is required")
	}
	if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(state.rootDependencies.Cwd, localPath)
	}
	content, err := afero.ReadFile(afero.NewOsFs(), localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return string(content), nil
}

func (state *chatState) addFile(ctx context.Context, localPath string) error {
	content, err := state.readLocalFile(localPath)
	if err != nil {
		return err
	}

	name := filepath.Base(localPath)
	if !code_analyzer.IsCodeFile(name) {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("⚠️  %s is not a recognised code file, adding it anyway.", name)))
	}

	filePath := ""
	if utils.HasSeparator(localPath) && !filepath.IsAbs(localPath) {
		filePath = filepath.ToSlash(filepath.Clean(localPath))
	}

	file := state.rootDependencies.Analyzer.NewFile(name, filePath, content)
	added, err := state.rootDependencies.Sessions.AddFile(ctx, file)
	if err != nil {
		return err
	}

	verb := "Added"
	if added.IsModified {
		verb = "Replaced"
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ %s %s (%d lines)", verb, added.Location(), added.Lines())))
	return nil
}

// addFiles reads several files at once. Files outside the code allow-list are skipped.
func (state *chatState) addFiles(ctx context.Context, paths []string) error {
	entries := make([]analyzer_models.DirectoryEntry, 0, len(paths))
	sources := make(map[string]string, len(paths))
	for _, localPath := range paths {
		entry := analyzer_models.DirectoryEntry{Name: filepath.Base(localPath)}
		if !filepath.IsAbs(localPath) {
			entry.RelativePath = filepath.ToSlash(filepath.Clean(localPath))
		}
		entries = append(entries, entry)
		sources[entry.RelativePath+"|"+entry.Name] = localPath
	}

	read := func(entry analyzer_models.DirectoryEntry) (string, error) {
		return state.readLocalFile(sources[entry.RelativePath+"|"+entry.Name])
	}

	result := state.rootDependencies.Analyzer.IngestEntries(ctx, entries, read)
	for _, file := range result.Files {
		if _, err := state.rootDependencies.Sessions.AddFile(ctx, file); err != nil {
			return err
		}
	}

	if result.Stats.Name == "" {
		result.Stats.Name = "Selection"
	}
	printIngestStats(result.Stats)
	return nil
}

func (state *chatState) addDirectory(ctx context.Context, directory string) error {
	if directory == "" {
		return errors.New("a directory path is required")
	}
	if !filepath.IsAbs(directory) {
		directory = filepath.Join(state.rootDependencies.Cwd, directory)
	}

	spinner, _ := newSpinner().Start(fmt.Sprintf("Reading %s...", directory))
	result, err := state.rootDependencies.Analyzer.IngestDirectory(ctx, directory)
	_ = spinner.Stop()
	fmt.Print("\r")
	if err != nil {
		return err
	}

	if err := state.rootDependencies.Sessions.AddDirectory(ctx, result); err != nil {
		return err
	}

	printIngestStats(result.Stats)
	return nil
}

func (state *chatState) newFile(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("a file name is required")
	}
	file := state.rootDependencies.Analyzer.NewFile(filepath.Base(name), "", "")
	if _, err := state.rootDependencies.Sessions.AddFile(ctx, file); err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Created %s, fill it with /edit %s <source>", file.Name, file.Name)))
	return nil
}

func (state *chatState) findFile(key string) (analyzer_models.File, error) {
	if key == "" {
		return analyzer_models.File{}, errors.New("a file id, path or name is required")
	}
	file, found := state.rootDependencies.Sessions.FindFile(utils.NormalizePath(key))
	if !found {
		return analyzer_models.File{}, fmt.Errorf("%w: %s", session.ErrFileNotFound, key)
	}
	return file, nil
}

func (state *chatState) editFile(ctx context.Context, argument string) error {
	key, source, _ := strings.Cut(argument, " ")
	file, err := state.findFile(key)
	if err != nil {
		return err
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = filepath.FromSlash(file.Location())
	}
	content, err := state.readLocalFile(source)
	if err != nil {
		return err
	}

	edited, err := state.rootDependencies.Sessions.EditFile(ctx, file.ID, content)
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Updated %s (%d lines)", edited.Location(), edited.Lines())))
	return nil
}

func (state *chatState) removeFile(ctx context.Context, key string) error {
	file, err := state.findFile(key)
	if err != nil {
		return err
	}
	if err := state.rootDependencies.Sessions.RemoveFile(ctx, file.ID); err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Removed %s", file.Location())))
	return nil
}

func (state *chatState) printOutline(key string) error {
	file, err := state.findFile(key)
	if err != nil {
		return err
	}
	entries := state.rootDependencies.Analyzer.Outline(file)
	if len(entries) == 0 {
		fmt.Println(lipgloss.Muted.Render("No declarations found."))
		return nil
	}
	fmt.Println(code_analyzer.FormatOutline(entries))
	return nil
}

func (state *chatState) analyzeFile(ctx context.Context, key string) error {
	file, err := state.findFile(key)
	if err != nil {
		return err
	}

	current := state.rootDependencies.Sessions.Current()
	var reply *assistant.Reply
	err = state.withProgress(fmt.Sprintf("Reviewing %s...", file.Name), func() error {
		var err error
		reply, err = state.rootDependencies.Assistant.AnalyzeFile(ctx, file)
		return err
	})
	if err != nil {
		return err
	}

	if session.IsDefaultName(current.Name) && reply.Committed {
		if _, err := state.rootDependencies.Sessions.AutoName(ctx, current.ID, file.Name, ""); err != nil {
			state.rootDependencies.Logger.Warn().Err(err).Str("chat_id", current.ID).Msg("failed to name chat")
		}
	}

	state.printReply(ctx, reply)
	return nil
}

func (state *chatState) runFollowUp(ctx context.Context, argument string) {
	n, err := strconv.Atoi(argument)
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render("Usage: /do <n>"))
		return
	}

	prompt, hint, ok := followUp(state.lastActions, n)
	switch {
	case !ok:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No follow-up number %d.", n)))
	case hint != "":
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Use %s", hint)))
	default:
		fmt.Println(lipgloss.Muted.Render("> " + prompt))
		state.ask(ctx, prompt)
	}
}

func (state *chatState) printFiles(ctx context.Context) {
	files := state.rootDependencies.Sessions.Files()
	if len(files) == 0 {
		fmt.Println(lipgloss.Muted.Render("No files in this chat. Use /add or /add-dir."))
		return
	}

	for _, file := range files {
		marker := ""
		if file.IsModified {
			marker = " (modified)"
		}
		header := fmt.Sprintf("%s %s - %s, %d lines, %d bytes%s",
			project_context.FileIcon(file.Extension), file.Location(), project_context.LanguageName(file.Extension), file.Lines(), file.Size, marker)
		fmt.Println(lipgloss.Info.Render(header))

		switch state.rootDependencies.Config.FileDisplayMode {
		case "relevant":
			if outline := code_analyzer.FormatOutline(state.rootDependencies.Analyzer.Outline(file)); outline != "" {
				fmt.Println(lipgloss.Muted.Render(outline))
			} else if code_analyzer.SupportsStructure(file.Extension) {
				structure := state.rootDependencies.Analyzer.AnalyzeStructure(file)
				fmt.Println(lipgloss.Muted.Render(fmt.Sprintf("%d functions, %d classes, %d imports, %d comment lines",
					len(structure.Functions), len(structure.Classes), len(structure.Imports), structure.Comments)))
			}
		case "full":
			fence := fmt.Sprintf("```%s\n%s\n```", file.Extension, file.Content)
			if err := state.renderer.Render(ctx, fence); err != nil {
				return
			}
		}
	}
}

func (state *chatState) updateSetting(ctx context.Context, argument string) error {
	key, value, _ := strings.Cut(argument, " ")
	value = strings.ToLower(strings.TrimSpace(value))

	toggle := func(target *bool) error {
		switch value {
		case "on", "true", "yes":
			*target = true
		case "off", "false", "no":
			*target = false
		default:
			return fmt.Errorf("expected on or off, got '%s'", value)
		}
		return nil
	}

	var updateErr error
	settings, err := state.rootDependencies.Sessions.UpdateSettings(ctx, func(settings *models.Settings) {
		switch key {
		case "sidebar":
			updateErr = toggle(&settings.SidebarOpen)
		case "file-tracker":
			updateErr = toggle(&settings.FileTrackerOpen)
		case "internet":
			updateErr = toggle(&settings.InternetAccess)
		case "theme":
			if value != "dark" && value != "light" {
				updateErr = fmt.Errorf("theme must be dark or light, got '%s'", value)
				return
			}
			settings.Theme = value
		default:
			updateErr = fmt.Errorf("unknown setting '%s'", key)
		}
	})
	if updateErr != nil {
		return updateErr
	}
	if err != nil {
		return err
	}
	printSettings(settings)
	return nil
}
