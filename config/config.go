package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	DataDir          string                      `mapstructure:"data_dir" validate:"required"`
	LogLevel         string                      `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	FileDisplayMode  string                      `mapstructure:"file_display_mode" validate:"oneof=info relevant full"`
	EnableCache      bool                        `mapstructure:"enable_cache"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config" validate:"required"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:         "1.0.0",
	Theme:           "dracula",
	DataDir:         DefaultDataDir(),
	LogLevel:        "info",
	FileDisplayMode: "info",
	EnableCache:     true,
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:    providers.ProviderOllama,
		BaseURL:     "http://localhost:11434/api",
		Model:       providers.DefaultModel,
		Temperature: nil,
		APIKey:      "",
	},
}

// ConfigFileName is the base name looked up in the working directory.
const ConfigFileName = "patchpilot-config"

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

var validate = validator.New()

// DefaultDataDir is ~/.patchpilot, or .patchpilot in the working directory when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".patchpilot"
	}
	return filepath.Join(home, ".patchpilot")
}

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName(ConfigFileName)
		viper.AddConfigPath(cwd)

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("error reading config file: %w", err)
				}
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the rules declared on Config and its provider section.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				messages = append(messages, fmt.Sprintf("%s must satisfy '%s %s' (got '%v')", e.Namespace(), e.Tag(), e.Param(), e.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
		}
		return err
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("data_dir", DefaultConfig.DataDir)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("file_display_mode", DefaultConfig.FileDisplayMode)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.APIKey)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("data_dir", "DATA_DIR")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("file_display_mode", "FILE_DISPLAY_MODE")
	_ = viper.BindEnv("enable_cache", "ENABLE_CACHE")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.api_key", "API_KEY")
}

// bindFlags binds the CLI flags to configuration values. Only flags set on the command line
// override the file and the environment.
func bindFlags(rootCmd *cobra.Command) {
	bindings := map[string]string{
		"theme":                          "theme",
		"data_dir":                       "data_dir",
		"log_level":                      "log_level",
		"file_display_mode":              "file_display_mode",
		"enable_cache":                   "enable_cache",
		"ai_provider_config.provider":    "provider",
		"ai_provider_config.base_url":    "base_url",
		"ai_provider_config.model":       "model",
		"ai_provider_config.temperature": "temperature",
		"ai_provider_config.api_key":     "api_key",
	}

	for key, name := range bindings {
		flag := rootCmd.PersistentFlags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		_ = viper.BindPFlag(key, flag)
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Syntax highlighting theme for replies (e.g., 'dracula', 'monokai', 'github').")
	rootCmd.PersistentFlags().String("data_dir", DefaultConfig.DataDir, "Directory holding the chat database, file contents, structure cache and logs.")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level: trace, debug, info, warn or error.")
	rootCmd.PersistentFlags().Bool("debug", false, "Write logs to stderr instead of the log file.")

	// File display mode configuration
	rootCmd.PersistentFlags().String("file_display_mode", DefaultConfig.FileDisplayMode, "Set file display mode: 'info' (file info only), 'relevant' (syntax outline), 'full' (complete file content)")

	// Cache configuration
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the structure cache")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The inference backend: 'ollama', 'openai' or 'eino-ollama'.")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the inference backend (default is 'http://localhost:11434/api').")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the chat model, such as 'codellama:7b-instruct'.")
	rootCmd.PersistentFlags().Float32("temperature", 0.2, "Adjusts the model's creativity (0-1).")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.APIKey, "The API key used to authenticate with hosted providers.")
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) (*Config, error) {
	var configFilePath string

	// Determine config file path
	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		for _, ext := range []string{"yaml", "yml", "json"} {
			candidate := filepath.Join(cwd, fmt.Sprintf("%s.%s", ConfigFileName, ext))
			if _, err := os.Stat(candidate); err == nil {
				configFilePath = candidate
				break
			}
		}
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config, nil
		}
	}
	cacheMutex.RUnlock()

	config, err := LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config, nil
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// PrintWarning reports a non-fatal configuration problem on stdout.
func PrintWarning(message string) {
	fmt.Println(lipgloss.Yellow.Render(message))
}
