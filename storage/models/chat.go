package models

import (
	"time"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
)

// Role tells who wrote a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// MessageKind tags the variant carried by a message.
type MessageKind string

const (
	// KindText is a plain message.
	KindText MessageKind = "text"
	// KindActions carries suggested follow-up actions.
	KindActions MessageKind = "actions"
	// KindFileContext refers to a file of the chat, e.g. an analysis of an uploaded file.
	KindFileContext MessageKind = "file_context"
)

// FileReference points a message at a file of the same chat.
type FileReference struct {
	FileID   string `json:"fileId" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
}

// Message is one entry of a chat history. Actions are set only for KindActions and File only
// for KindFileContext.
type Message struct {
	ID        string                  `json:"id" validate:"required"`
	Type      Role                    `json:"type" validate:"required,oneof=user ai"`
	Kind      MessageKind             `json:"kind" validate:"required,oneof=text actions file_context"`
	Content   string                  `json:"content"`
	Timestamp time.Time               `json:"timestamp"`
	Actions   []context_models.Action `json:"actions,omitempty" validate:"dive"`
	File      *FileReference          `json:"file,omitempty" validate:"omitempty"`
	Intent    context_models.Intent   `json:"intent,omitempty"`
	BasicMode bool                    `json:"basicMode,omitempty"`
}

// ChatSession pairs a message history with the file set of the chat.
type ChatSession struct {
	ID             string                       `json:"id" validate:"required"`
	Name           string                       `json:"name" validate:"required"`
	Messages       []Message                    `json:"messages" validate:"dive"`
	FileCount      int                          `json:"fileCount" validate:"gte=0"`
	LastModified   time.Time                    `json:"lastModified"`
	DirectoryStats *analyzer_models.IngestStats `json:"directoryStats,omitempty"`
}

// Settings are the persisted UI toggles.
type Settings struct {
	SidebarOpen     bool   `json:"sidebarOpen"`
	FileTrackerOpen bool   `json:"fileTrackerOpen"`
	InternetAccess  bool   `json:"internetAccess"`
	Theme           string `json:"theme" validate:"required,oneof=dark light"`
}

// DefaultSettings is the record every loaded Settings is merged over.
func DefaultSettings() Settings {
	return Settings{
		SidebarOpen:     true,
		FileTrackerOpen: true,
		InternetAccess:  false,
		Theme:           "dark",
	}
}

// StorageStats summarises what the store holds.
type StorageStats struct {
	TotalChats      int `json:"totalChats"`
	TotalMessages   int `json:"totalMessages"`
	TotalFiles      int `json:"totalFiles"`
	TotalFileSizeKB int `json:"totalFileSize"`
}

// ExportVersion is the format version written by Export and accepted by Import.
const ExportVersion = "1.0.0"

// ExportDocument is the whole persisted state as a single JSON document.
type ExportDocument struct {
	Version       string                            `json:"version" validate:"required"`
	ExportDate    time.Time                         `json:"exportDate" validate:"required"`
	Chats         []ChatSession                     `json:"chats" validate:"dive"`
	CurrentChatID string                            `json:"currentChatId,omitempty"`
	ChatFiles     map[string][]analyzer_models.File `json:"chatFiles" validate:"dive,keys,required,endkeys,dive"`
	Settings      Settings                          `json:"settings"`
}
