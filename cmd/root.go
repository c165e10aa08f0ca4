package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/meysamhadeli/patchpilot/assistant"
	"github.com/meysamhadeli/patchpilot/code_analyzer"
	analyzer_contracts "github.com/meysamhadeli/patchpilot/code_analyzer/contracts"
	"github.com/meysamhadeli/patchpilot/config"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/project_context"
	"github.com/meysamhadeli/patchpilot/providers"
	"github.com/meysamhadeli/patchpilot/session"
	"github.com/meysamhadeli/patchpilot/storage"
	storage_contracts "github.com/meysamhadeli/patchpilot/storage/contracts"
	"github.com/meysamhadeli/patchpilot/token_management"
	token_contracts "github.com/meysamhadeli/patchpilot/token_management/contracts"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	databaseFileName = "patchpilot.db"
	logFileName      = "patchpilot.log"
	filesDirName     = "files"
	cacheDirName     = "cache"
	progressBuffer   = 16
)

// RootDependencies holds every service a subcommand needs. It is built once per invocation.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          zerolog.Logger
	Analyzer        analyzer_contracts.ICodeAnalyzer
	CacheManager    *code_analyzer.CacheManager
	Store           storage_contracts.IChatStore
	Sessions        *session.Manager
	TokenManagement token_contracts.ITokenManagement
	Backend         *providers.Backend
	Assistant       *assistant.Service
	Progress        <-chan assistant.Progress

	logFile io.Closer
}

// Close releases the store and the log file.
func (rootDependencies *RootDependencies) Close() {
	if rootDependencies.Store != nil {
		if err := rootDependencies.Store.Close(); err != nil {
			rootDependencies.Logger.Error().Err(err).Msg("failed to close store")
		}
	}
	if rootDependencies.logFile != nil {
		_ = rootDependencies.logFile.Close()
	}
}

var rootCmd = &cobra.Command{
	Use:   "patchpilot",
	Short: "Chat with a local language model about your code.",
	Long: `PatchPilot keeps per-chat sets of source files, builds a project context from them
(directory tree, per-file structure, summary) and answers questions about the code using a
local Ollama model or a hosted provider. When no model is reachable it keeps working in basic
mode with built-in analysis templates.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()
		handleChatCommand(rootDependencies)
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads the configuration and wires the services. It prints the failure and
// returns nil when the application cannot start.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies, err := buildRootDependencies(cmd)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}
	return rootDependencies
}

func buildRootDependencies(cmd *cobra.Command) (*RootDependencies, error) {
	rootDependencies := &RootDependencies{}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get the current working directory: %w", err)
	}
	rootDependencies.Cwd = cwd

	rootDependencies.Config, err = config.LoadConfigWithCache(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}
	cfg := rootDependencies.Config

	if err := os.MkdirAll(filepath.Join(cfg.DataDir, filesDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	rootDependencies.Logger, rootDependencies.logFile, err = newLogger(cfg, debug)
	if err != nil {
		return nil, err
	}
	logger := rootDependencies.Logger

	osFs := afero.NewOsFs()

	if cfg.EnableCache {
		cacheManager, err := code_analyzer.NewCacheManager(osFs, filepath.Join(cfg.DataDir, cacheDirName))
		if err != nil {
			logger.Warn().Err(err).Msg("structure cache disabled")
		} else {
			rootDependencies.CacheManager = cacheManager
		}
	}
	rootDependencies.Analyzer = code_analyzer.NewCodeAnalyzer(osFs, rootDependencies.CacheManager, logger)

	blobFs := afero.NewBasePathFs(osFs, filepath.Join(cfg.DataDir, filesDirName))
	rootDependencies.Store, err = storage.NewSQLiteStore(filepath.Join(cfg.DataDir, databaseFileName), blobFs, logger)
	if err != nil {
		rootDependencies.Close()
		return nil, err
	}

	rootDependencies.Sessions = session.NewManager(rootDependencies.Store, logger)
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	if err := rootDependencies.Sessions.Load(ctx); err != nil {
		rootDependencies.Close()
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}

	rootDependencies.TokenManagement = token_management.NewTokenManager()

	provider, err := providers.ProviderFactory(ctx, cfg.AIProviderConfig, rootDependencies.TokenManagement, logger)
	if err != nil {
		// Without a provider every answer comes from the templates.
		logger.Warn().Err(err).Str("provider", cfg.AIProviderConfig.Provider).Msg("inference backend unavailable")
		config.PrintWarning(fmt.Sprintf("⚠️  %v - running in basic mode", err))
	} else {
		rootDependencies.Backend = providers.NewBackend(provider, logger)
	}

	progress := make(chan assistant.Progress, progressBuffer)
	rootDependencies.Progress = progress
	rootDependencies.Assistant = assistant.NewService(
		rootDependencies.Sessions,
		project_context.NewBuilder(rootDependencies.Analyzer),
		rootDependencies.Backend,
		progress,
		logger,
	)

	return rootDependencies, nil
}

// newLogger writes JSON logs to the data directory, or human-readable logs to stderr in debug mode.
func newLogger(cfg *config.Config, debug bool) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if debug {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger(), nil, nil
	}

	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zerolog.New(logFile).Level(level).With().Timestamp().Logger(), logFile, nil
}
