package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/storage/contracts"
	"github.com/meysamhadeli/patchpilot/storage/models"
	"github.com/rs/zerolog"
)

const DefaultChatID = "default-chat"

const welcomeMessage = "🌟 Welcome to **PatchPilot** - your AI coding companion!\n\n" +
	"• 🧠 **Context awareness** - every file you add is part of the conversation\n" +
	"• 📁 **Directory intelligence** - folder structure is understood, not flattened\n" +
	"• 💬 **Natural conversations** - ask anything about your code or programming in general\n\n" +
	"Add files or a directory, then ask away. 🚀"

const greetingMessage = "🌟 Hello! I'm PatchPilot, ready to help with any coding question or project.\n\n" +
	"**Ask me anything:**\n" +
	"• Programming concepts and best practices\n" +
	"• Code review and optimization\n" +
	"• Debugging help\n" +
	"• Architecture advice\n\n" +
	"Add files for project analysis or just start asking questions! 🚀"

var (
	ErrLastChat        = errors.New("the last remaining chat cannot be deleted")
	ErrChatNotFound    = errors.New("chat not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrRequestInFlight = errors.New("a request is already pending for this chat")
	ErrEmptyName       = errors.New("chat name cannot be empty")
)

// Manager owns the chat list, the current chat and its file set, and keeps the store in step with
// every mutation. All mutations work on the latest in-memory state.
type Manager struct {
	store  contracts.IChatStore
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	mutex     sync.Mutex
	chats     []models.ChatSession
	currentID string
	files     []analyzer_models.File
	settings  models.Settings
	inFlight  map[string]bool
}

func NewManager(store contracts.IChatStore, logger zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		settings: models.DefaultSettings(),
		inFlight: map[string]bool{},
	}
}

// Load restores state from the store. On first run it creates the default chat; a saved current
// chat id that no longer exists falls back to the first chat.
func (m *Manager) Load(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.settings = m.store.LoadSettings(ctx)
	m.chats = m.store.LoadChats(ctx)

	if len(m.chats) == 0 {
		m.chats = []models.ChatSession{m.newSession(DefaultChatID, "New Chat", welcomeMessage)}
		m.currentID = DefaultChatID
		m.files = []analyzer_models.File{}
		if err := m.saveChats(ctx); err != nil {
			return err
		}
		return m.saveCurrentID(ctx)
	}

	currentID, ok := m.store.LoadCurrentChatID(ctx)
	if !ok || m.indexOf(currentID) < 0 {
		currentID = m.chats[0].ID
	}
	m.currentID = currentID
	m.files = m.store.LoadChatFiles(ctx, currentID)
	return nil
}

func (m *Manager) newSession(id string, name string, greeting string) models.ChatSession {
	now := m.now()
	return models.ChatSession{
		ID:   id,
		Name: name,
		Messages: []models.Message{{
			ID:        m.newID(),
			Type:      models.RoleAI,
			Kind:      models.KindText,
			Content:   greeting,
			Timestamp: now,
		}},
		LastModified: now,
	}
}

func (m *Manager) indexOf(chatID string) int {
	for index, chat := range m.chats {
		if chat.ID == chatID {
			return index
		}
	}
	return -1
}

func (m *Manager) saveChats(ctx context.Context) error {
	if err := m.store.SaveChats(ctx, m.chats); err != nil {
		m.logger.Error().Err(err).Msg("failed to save chats")
		return fmt.Errorf("save chats: %w", err)
	}
	return nil
}

func (m *Manager) saveCurrentID(ctx context.Context) error {
	if err := m.store.SaveCurrentChatID(ctx, m.currentID); err != nil {
		m.logger.Error().Err(err).Str("chat_id", m.currentID).Msg("failed to save current chat")
		return fmt.Errorf("save current chat: %w", err)
	}
	return nil
}

// Chats returns a copy of the chat list, newest first.
func (m *Manager) Chats() []models.ChatSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]models.ChatSession(nil), m.chats...)
}

// CurrentID returns the id of the selected chat.
func (m *Manager) CurrentID() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.currentID
}

// Current returns the selected chat.
func (m *Manager) Current() models.ChatSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if index := m.indexOf(m.currentID); index >= 0 {
		return m.chats[index]
	}
	return models.ChatSession{}
}

// Chat returns the chat with chatID.
func (m *Manager) Chat(chatID string) (models.ChatSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	index := m.indexOf(chatID)
	if index < 0 {
		return models.ChatSession{}, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	return m.chats[index], nil
}

// NewChat creates "Chat N+1", puts it first and selects it.
func (m *Manager) NewChat(ctx context.Context) (models.ChatSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	chat := m.newSession("chat-"+m.newID(), fmt.Sprintf("Chat %d", len(m.chats)+1), greetingMessage)
	m.chats = append([]models.ChatSession{chat}, m.chats...)
	m.currentID = chat.ID
	m.files = []analyzer_models.File{}

	if err := m.saveChats(ctx); err != nil {
		return chat, err
	}
	return chat, m.saveCurrentID(ctx)
}

// SelectChat makes chatID current and loads its files.
func (m *Manager) SelectChat(ctx context.Context, chatID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.indexOf(chatID) < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	m.currentID = chatID
	m.files = m.store.LoadChatFiles(ctx, chatID)
	return m.saveCurrentID(ctx)
}

// DeleteChat removes a chat and its files. The last remaining chat is never deleted. When the
// current chat is deleted the first remaining chat becomes current.
func (m *Manager) DeleteChat(ctx context.Context, chatID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.chats) <= 1 {
		return ErrLastChat
	}
	index := m.indexOf(chatID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	m.chats = append(m.chats[:index:index], m.chats[index+1:]...)
	delete(m.inFlight, chatID)

	if err := m.store.DeleteChatFiles(ctx, chatID); err != nil {
		m.logger.Warn().Err(err).Str("chat_id", chatID).Msg("failed to delete chat files")
	}
	if err := m.saveChats(ctx); err != nil {
		return err
	}

	if m.currentID == chatID {
		m.currentID = m.chats[0].ID
		m.files = m.store.LoadChatFiles(ctx, m.currentID)
		return m.saveCurrentID(ctx)
	}
	return nil
}

// RenameChat sets a new display name.
func (m *Manager) RenameChat(ctx context.Context, chatID string, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	index := m.indexOf(chatID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	m.chats[index].Name = name
	return m.saveChats(ctx)
}

// AutoName renames chatID with SmartName over the current files.
func (m *Manager) AutoName(ctx context.Context, chatID string, filename string, userMessage string) (string, error) {
	m.mutex.Lock()
	files := append([]analyzer_models.File(nil), m.files...)
	m.mutex.Unlock()

	name := SmartName(files, filename, userMessage)
	return name, m.RenameChat(ctx, chatID, name)
}

// AppendMessage adds message to the end of chatID's history.
func (m *Manager) AppendMessage(ctx context.Context, chatID string, message models.Message) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.appendLocked(ctx, chatID, message)
}

func (m *Manager) appendLocked(ctx context.Context, chatID string, message models.Message) error {
	index := m.indexOf(chatID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	if message.ID == "" {
		message.ID = m.newID()
	}
	if message.Kind == "" {
		message.Kind = models.KindText
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = m.now()
	}

	chat := &m.chats[index]
	chat.Messages = append(chat.Messages, message)
	chat.LastModified = m.now()
	return m.saveChats(ctx)
}

// Settings returns the current settings.
func (m *Manager) Settings() models.Settings {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.settings
}

// UpdateSettings applies update to the settings and persists the result.
func (m *Manager) UpdateSettings(ctx context.Context, update func(*models.Settings)) (models.Settings, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	settings := m.settings
	update(&settings)
	if err := m.store.SaveSettings(ctx, settings); err != nil {
		return m.settings, fmt.Errorf("save settings: %w", err)
	}
	m.settings = settings
	return settings, nil
}
