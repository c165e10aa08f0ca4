package contracts

import (
	"context"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/storage/models"
)

// IChatStore persists chats, the current chat id, per-chat file sets and settings.
// Loads never fail: on a storage error they log and return empty or default values.
type IChatStore interface {
	SaveChats(ctx context.Context, chats []models.ChatSession) error
	LoadChats(ctx context.Context) []models.ChatSession
	SaveCurrentChatID(ctx context.Context, chatID string) error
	LoadCurrentChatID(ctx context.Context) (string, bool)
	SaveChatFiles(ctx context.Context, chatID string, files []analyzer_models.File) error
	LoadChatFiles(ctx context.Context, chatID string) []analyzer_models.File
	DeleteChatFiles(ctx context.Context, chatID string) error
	SaveSettings(ctx context.Context, settings models.Settings) error
	LoadSettings(ctx context.Context) models.Settings
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) error
	Stats(ctx context.Context) models.StorageStats
	ClearAll(ctx context.Context) error
	Close() error
}
