package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
	"github.com/meysamhadeli/patchpilot/storage/contracts"
	"github.com/meysamhadeli/patchpilot/storage/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

const (
	currentChatKey = "current_chat_id"
	settingsKey    = "settings"
)

// SQLiteStore keeps chats, messages, file metadata and app state in SQLite. File content is
// externalised to a blob filesystem at <chatId>/<fileId>_<name>.
type SQLiteStore struct {
	db     *sql.DB
	blobs  *blobStore
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string, blobFs afero.Fs, logger zerolog.Logger) (contracts.IChatStore, error) {
	store, err := newSQLiteStore(dbPath, blobFs, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newSQLiteStore(dbPath string, blobFs afero.Fs, logger zerolog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		blobs:  &blobStore{fs: blobFs},
		logger: logger.With().Str("component", "storage").Logger(),
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0,
		last_modified TEXT NOT NULL,
		directory_stats TEXT
	);

	CREATE TABLE IF NOT EXISTS messages (
		chat_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		payload TEXT,                       -- JSON for actions, file reference, intent, basic mode
		PRIMARY KEY (chat_id, id),
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
	);

	-- File sets are saved independently of the chat list, so no foreign key to chats.
	CREATE TABLE IF NOT EXISTS chat_files (
		chat_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		extension TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		added_at TEXT NOT NULL,
		last_modified TEXT NOT NULL,
		is_modified INTEGER NOT NULL DEFAULT 0,
		storage_path TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (chat_id, id)
	);

	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, position);
	CREATE INDEX IF NOT EXISTS idx_chat_files_chat ON chat_files(chat_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

type messagePayload struct {
	Actions   []context_models.Action `json:"actions,omitempty"`
	File      *models.FileReference   `json:"file,omitempty"`
	Intent    context_models.Intent   `json:"intent,omitempty"`
	BasicMode bool                    `json:"basicMode,omitempty"`
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveChats replaces the stored chat list, keeping the given order.
func (s *SQLiteStore) SaveChats(ctx context.Context, chats []models.ChatSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chats"); err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}

	if err := insertChats(ctx, tx, chats); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chats: %w", err)
	}
	return nil
}

func insertChats(ctx context.Context, tx execer, chats []models.ChatSession) error {
	for position, chat := range chats {
		var directoryStats sql.NullString
		if chat.DirectoryStats != nil {
			data, err := json.Marshal(chat.DirectoryStats)
			if err != nil {
				return fmt.Errorf("marshal directory stats for chat %s: %w", chat.ID, err)
			}
			directoryStats = sql.NullString{String: string(data), Valid: true}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO chats (id, position, name, file_count, last_modified, directory_stats) VALUES (?, ?, ?, ?, ?, ?)`,
			chat.ID, position, chat.Name, chat.FileCount, formatTime(chat.LastModified), directoryStats)
		if err != nil {
			return fmt.Errorf("insert chat %s: %w", chat.ID, err)
		}

		for index, message := range chat.Messages {
			payload, err := encodePayload(message)
			if err != nil {
				return fmt.Errorf("marshal message %s: %w", message.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO messages (chat_id, id, position, type, kind, content, timestamp, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				chat.ID, message.ID, index, string(message.Type), string(message.Kind), message.Content, formatTime(message.Timestamp), payload)
			if err != nil {
				return fmt.Errorf("insert message %s: %w", message.ID, err)
			}
		}
	}
	return nil
}

func encodePayload(message models.Message) (sql.NullString, error) {
	payload := messagePayload{
		Actions:   message.Actions,
		File:      message.File,
		Intent:    message.Intent,
		BasicMode: message.BasicMode,
	}
	if len(payload.Actions) == 0 && payload.File == nil && payload.Intent == "" && !payload.BasicMode {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodePayload(data string, message *models.Message) error {
	var payload messagePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return err
	}
	message.Actions = payload.Actions
	message.File = payload.File
	message.Intent = payload.Intent
	message.BasicMode = payload.BasicMode
	return nil
}

// LoadChats returns the stored chats in saved order, or an empty list on failure.
func (s *SQLiteStore) LoadChats(ctx context.Context) []models.ChatSession {
	chats, err := s.loadChats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load chats")
		return []models.ChatSession{}
	}
	return chats
}

func (s *SQLiteStore) loadChats(ctx context.Context) ([]models.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, file_count, last_modified, directory_stats FROM chats ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := []models.ChatSession{}
	index := map[string]int{}
	for rows.Next() {
		var chat models.ChatSession
		var lastModified string
		var directoryStats sql.NullString
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.FileCount, &lastModified, &directoryStats); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chat.LastModified = parseTime(lastModified)
		chat.Messages = []models.Message{}
		if directoryStats.Valid {
			var stats analyzer_models.IngestStats
			if err := json.Unmarshal([]byte(directoryStats.String), &stats); err != nil {
				s.logger.Warn().Err(err).Str("chat_id", chat.ID).Msg("dropping unreadable directory stats")
			} else {
				chat.DirectoryStats = &stats
			}
		}
		index[chat.ID] = len(chats)
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	messageRows, err := s.db.QueryContext(ctx, `SELECT chat_id, id, type, kind, content, timestamp, payload FROM messages ORDER BY chat_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer messageRows.Close()

	for messageRows.Next() {
		var chatID, messageType, kind, timestamp string
		var message models.Message
		var payload sql.NullString
		if err := messageRows.Scan(&chatID, &message.ID, &messageType, &kind, &message.Content, &timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		message.Type = models.Role(messageType)
		message.Kind = models.MessageKind(kind)
		message.Timestamp = parseTime(timestamp)
		if payload.Valid {
			if err := decodePayload(payload.String, &message); err != nil {
				s.logger.Warn().Err(err).Str("chat_id", chatID).Str("message_id", message.ID).Msg("dropping unreadable message payload")
			}
		}

		position, ok := index[chatID]
		if !ok {
			continue
		}
		chats[position].Messages = append(chats[position].Messages, message)
	}
	if err := messageRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return chats, nil
}

// SaveCurrentChatID records which chat is selected.
func (s *SQLiteStore) SaveCurrentChatID(ctx context.Context, chatID string) error {
	return s.setState(ctx, currentChatKey, chatID)
}

// LoadCurrentChatID returns the selected chat id, if one was saved.
func (s *SQLiteStore) LoadCurrentChatID(ctx context.Context) (string, bool) {
	value, ok, err := s.getState(ctx, currentChatKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load current chat id")
		return "", false
	}
	return value, ok && value != ""
}

// SaveSettings persists the whole settings record.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	return putSettings(ctx, s.db, settings)
}

func putSettings(ctx context.Context, exec execer, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return putState(ctx, exec, settingsKey, string(data))
}

// LoadSettings merges the persisted record, which may be partial, over the defaults.
func (s *SQLiteStore) LoadSettings(ctx context.Context) models.Settings {
	settings := models.DefaultSettings()

	value, ok, err := s.getState(ctx, settingsKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load settings")
		return settings
	}
	if !ok {
		return settings
	}

	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		s.logger.Error().Err(err).Msg("failed to decode settings")
		return models.DefaultSettings()
	}
	if settings.Theme == "" {
		settings.Theme = models.DefaultSettings().Theme
	}
	return settings
}

func (s *SQLiteStore) setState(ctx context.Context, key string, value string) error {
	return putState(ctx, s.db, key, value)
}

func putState(ctx context.Context, exec execer, key string, value string) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return value, true, nil
}

// Stats counts chats, messages and files and sums file sizes in KB.
func (s *SQLiteStore) Stats(ctx context.Context) models.StorageStats {
	var stats models.StorageStats
	var totalSize int64

	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM chats),
		(SELECT COUNT(*) FROM messages),
		(SELECT COUNT(*) FROM chat_files),
		(SELECT COALESCE(SUM(size), 0) FROM chat_files)`).Scan(&stats.TotalChats, &stats.TotalMessages, &stats.TotalFiles, &totalSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read storage stats")
		return models.StorageStats{}
	}

	stats.TotalFileSizeKB = int((totalSize + 512) / 1024)
	return stats
}

// ClearAll removes every chat, file, blob and state record.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	if err := s.blobs.clear(); err != nil {
		return fmt.Errorf("clear file contents: %w", err)
	}

	s.logger.Info().Msg("storage cleared")
	return nil
}

func clearTables(ctx context.Context, tx execer) error {
	for _, table := range []string{"messages", "chats", "chat_files", "app_state"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
