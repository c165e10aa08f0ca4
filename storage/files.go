package storage

import (
	"context"
	"fmt"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// SaveChatFiles replaces the file set of chatID. Metadata goes to the database and non-empty
// content to the blob store. Contents are staged first and moved into place only after the
// metadata is committed, so a failed save keeps the previous set intact.
func (s *SQLiteStore) SaveChatFiles(ctx context.Context, chatID string, files []analyzer_models.File) error {
	if chatID == "" {
		return ErrEmptyChatID
	}
	if err := checkFileSet(chatID, files); err != nil {
		return err
	}

	batch := s.blobs.newBatch()
	committed := false
	defer func() {
		if !committed {
			batch.discard()
		}
	}()

	storagePaths, err := stageContents(batch, chatID, files)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_files WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("clear files of chat %s: %w", chatID, err)
	}
	if err := insertChatFiles(ctx, tx, chatID, files, storagePaths); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit files: %w", err)
	}
	committed = true

	if err := batch.replaceChats(chatID); err != nil {
		return fmt.Errorf("replace contents of chat %s: %w", chatID, err)
	}
	return nil
}

// checkFileSet rejects ids that cannot name a blob path and ids used twice in one set.
func checkFileSet(chatID string, files []analyzer_models.File) error {
	if !validBlobID(chatID) {
		return fmt.Errorf("%w: chat %q", ErrInvalidID, chatID)
	}
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		if !validBlobID(file.ID) {
			return fmt.Errorf("%w: file %q of chat %s", ErrInvalidID, file.ID, chatID)
		}
		if seen[file.ID] {
			return fmt.Errorf("%w: file %q of chat %s", ErrDuplicateID, file.ID, chatID)
		}
		seen[file.ID] = true
	}
	return nil
}

// stageContents writes every non-empty content into batch. The returned paths line up with
// files; an empty path means the file has no content.
func stageContents(batch *blobBatch, chatID string, files []analyzer_models.File) ([]string, error) {
	storagePaths := make([]string, len(files))
	for index, file := range files {
		if file.Content == "" {
			continue
		}
		storagePath, err := batch.add(chatID, file.ID, file.Name, file.Content)
		if err != nil {
			return nil, fmt.Errorf("write content of %s: %w", file.Name, err)
		}
		storagePaths[index] = storagePath
	}
	return storagePaths, nil
}

func insertChatFiles(ctx context.Context, tx execer, chatID string, files []analyzer_models.File, storagePaths []string) error {
	for position, file := range files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_files (chat_id, id, position, name, path, extension, size, added_at, last_modified, is_modified, storage_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			chatID, file.ID, position, file.Name, file.Path, file.Extension, file.Size,
			formatTime(file.AddedAt), formatTime(file.LastModified), file.IsModified, storagePaths[position])
		if err != nil {
			return fmt.Errorf("insert file %s: %w", file.Name, err)
		}
	}
	return nil
}

// LoadChatFiles returns the file set of chatID with contents re-attached. A missing blob yields
// the file with empty content. Unknown chats and storage errors yield an empty list.
func (s *SQLiteStore) LoadChatFiles(ctx context.Context, chatID string) []analyzer_models.File {
	files, err := s.loadChatFiles(ctx, chatID)
	if err != nil {
		s.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to load chat files")
		return []analyzer_models.File{}
	}
	return files
}

func (s *SQLiteStore) loadChatFiles(ctx context.Context, chatID string) ([]analyzer_models.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, extension, size, added_at, last_modified, is_modified, storage_path
		FROM chat_files WHERE chat_id = ? ORDER BY position`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []analyzer_models.File{}
	for rows.Next() {
		var file analyzer_models.File
		var addedAt, lastModified, storagePath string
		if err := rows.Scan(&file.ID, &file.Name, &file.Path, &file.Extension, &file.Size,
			&addedAt, &lastModified, &file.IsModified, &storagePath); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		file.AddedAt = parseTime(addedAt)
		file.LastModified = parseTime(lastModified)

		if storagePath != "" {
			content, err := s.blobs.read(storagePath)
			if err != nil {
				s.logger.Warn().Err(err).Str("chat_id", chatID).Str("file", file.Name).Msg("file content missing, loading it empty")
			}
			file.Content = content
		}

		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// DeleteChatFiles drops the file set of chatID. Unknown chats are a no-op.
func (s *SQLiteStore) DeleteChatFiles(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_files WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete files of chat %s: %w", chatID, err)
	}
	if err := s.blobs.removeChat(chatID); err != nil {
		return fmt.Errorf("delete contents of chat %s: %w", chatID, err)
	}
	return nil
}

// loadAllChatFiles groups every stored file set by chat id.
func (s *SQLiteStore) loadAllChatFiles(ctx context.Context) (map[string][]analyzer_models.File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT chat_id FROM chat_files ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query chat ids: %w", err)
	}

	var chatIDs []string
	for rows.Next() {
		var chatID string
		if err := rows.Scan(&chatID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat ids: %w", err)
	}

	all := make(map[string][]analyzer_models.File, len(chatIDs))
	for _, chatID := range chatIDs {
		files, err := s.loadChatFiles(ctx, chatID)
		if err != nil {
			return nil, err
		}
		all[chatID] = files
	}
	return all, nil
}
