package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/storage/models"
)

var (
	// ErrUnsupportedVersion is returned by Import for documents of another format version.
	ErrUnsupportedVersion = errors.New("unsupported export version")
	// ErrEmptyChatID is returned when a file set is saved without a chat id.
	ErrEmptyChatID = errors.New("chat id is required")
	// ErrInvalidID is returned for chat or file ids that cannot name a content path.
	ErrInvalidID = errors.New("invalid id")
	// ErrDuplicateID is returned when a chat, message or file id is used twice in one scope.
	ErrDuplicateID = errors.New("duplicate id")
)

var validate = validator.New()

// validateDocument reports every failed rule of doc in one error.
func validateDocument(doc models.ExportDocument) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed rule '%s'", e.StructNamespace(), e.Tag()))
	}
	return fmt.Errorf("invalid export document: %s", strings.Join(messages, "; "))
}

// Export serialises the whole state, file contents included, as an indented JSON document.
func (s *SQLiteStore) Export(ctx context.Context) ([]byte, error) {
	chats, err := s.loadChats(ctx)
	if err != nil {
		return nil, err
	}

	chatFiles, err := s.loadAllChatFiles(ctx)
	if err != nil {
		return nil, err
	}

	currentChatID, _ := s.LoadCurrentChatID(ctx)

	doc := models.ExportDocument{
		Version:       models.ExportVersion,
		ExportDate:    time.Now().UTC(),
		Chats:         chats,
		CurrentChatID: currentChatID,
		ChatFiles:     chatFiles,
		Settings:      s.LoadSettings(ctx),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Import replaces the stored state with an exported document. The document is checked in full
// and its contents staged before anything is written; the database is then replaced in a single
// transaction, so a rejected or failed import leaves the previous state in place.
func (s *SQLiteStore) Import(ctx context.Context, data []byte) error {
	// Settings missing from the document, or only partly present, keep their defaults.
	doc := models.ExportDocument{Settings: models.DefaultSettings()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse export document: %w", err)
	}

	if doc.Version != models.ExportVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}

	if doc.ChatFiles == nil {
		doc.ChatFiles = map[string][]analyzer_models.File{}
	}

	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := checkDocumentIDs(doc); err != nil {
		return err
	}

	batch := s.blobs.newBatch()
	committed := false
	defer func() {
		if !committed {
			batch.discard()
		}
	}()

	storagePaths := make(map[string][]string, len(doc.ChatFiles))
	for chatID, files := range doc.ChatFiles {
		paths, err := stageContents(batch, chatID, files)
		if err != nil {
			return err
		}
		storagePaths[chatID] = paths
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	if err := insertChats(ctx, tx, doc.Chats); err != nil {
		return err
	}
	for chatID, files := range doc.ChatFiles {
		if err := insertChatFiles(ctx, tx, chatID, files, storagePaths[chatID]); err != nil {
			return err
		}
	}
	if doc.CurrentChatID != "" {
		if err := putState(ctx, tx, currentChatKey, doc.CurrentChatID); err != nil {
			return err
		}
	}
	if err := putSettings(ctx, tx, doc.Settings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	committed = true

	if err := batch.replaceAll(); err != nil {
		return fmt.Errorf("replace file contents: %w", err)
	}

	s.logger.Info().Int("chats", len(doc.Chats)).Int("file_sets", len(doc.ChatFiles)).Msg("data imported")
	return nil
}

// checkDocumentIDs rejects what the database or the blob layout would refuse halfway through an
// import: unusable chat or file ids and ids repeated within their scope.
func checkDocumentIDs(doc models.ExportDocument) error {
	chatIDs := make(map[string]bool, len(doc.Chats))
	for _, chat := range doc.Chats {
		if !validBlobID(chat.ID) {
			return fmt.Errorf("%w: chat %q", ErrInvalidID, chat.ID)
		}
		if chatIDs[chat.ID] {
			return fmt.Errorf("%w: chat %q", ErrDuplicateID, chat.ID)
		}
		chatIDs[chat.ID] = true

		messageIDs := make(map[string]bool, len(chat.Messages))
		for _, message := range chat.Messages {
			if messageIDs[message.ID] {
				return fmt.Errorf("%w: message %q of chat %s", ErrDuplicateID, message.ID, chat.ID)
			}
			messageIDs[message.ID] = true
		}
	}

	for chatID, files := range doc.ChatFiles {
		if err := checkFileSet(chatID, files); err != nil {
			return err
		}
	}
	return nil
}
