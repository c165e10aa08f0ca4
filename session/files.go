package session

import (
	"context"
	"fmt"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// Files returns a copy of the current chat's file set.
func (m *Manager) Files() []analyzer_models.File {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]analyzer_models.File{}, m.files...)
}

// sameFile matches by path, or by name when the incoming file has no path.
func sameFile(existing analyzer_models.File, incoming analyzer_models.File) bool {
	if incoming.Path == "" {
		return existing.Name == incoming.Name
	}
	return existing.Path == incoming.Path
}

func (m *Manager) addLocked(file analyzer_models.File) analyzer_models.File {
	for index, existing := range m.files {
		if sameFile(existing, file) {
			file.ID = existing.ID
			file.AddedAt = existing.AddedAt
			file.IsModified = true
			m.files[index] = file
			return file
		}
	}

	if file.ID == "" {
		file.ID = m.newID()
	}
	if file.AddedAt.IsZero() {
		file.AddedAt = m.now()
	}
	m.files = append(m.files, file)
	return file
}

// persistFilesLocked saves the file set and syncs the owning chat's FileCount and LastModified.
func (m *Manager) persistFilesLocked(ctx context.Context) error {
	if err := m.store.SaveChatFiles(ctx, m.currentID, m.files); err != nil {
		m.logger.Error().Err(err).Str("chat_id", m.currentID).Msg("failed to save chat files")
		return fmt.Errorf("save chat files: %w", err)
	}

	if index := m.indexOf(m.currentID); index >= 0 {
		m.chats[index].FileCount = len(m.files)
		m.chats[index].LastModified = m.now()
	}
	return m.saveChats(ctx)
}

// AddFile adds file to the current chat. A file with the same path (or name, when pathless)
// is replaced in place, keeps its id and is marked modified.
func (m *Manager) AddFile(ctx context.Context, file analyzer_models.File) (analyzer_models.File, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	added := m.addLocked(file)
	return added, m.persistFilesLocked(ctx)
}

// AddDirectory adds every ingested file, records the batch stats on the current chat and renames
// it after the directory.
func (m *Manager) AddDirectory(ctx context.Context, result *analyzer_models.IngestResult) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, file := range result.Files {
		m.addLocked(file)
	}

	if index := m.indexOf(m.currentID); index >= 0 {
		name := result.Stats.Name
		if name == "" {
			name = "Project"
		}
		stats := result.Stats
		m.chats[index].Name = name + " Analysis"
		m.chats[index].DirectoryStats = &stats
	}

	return m.persistFilesLocked(ctx)
}

// EditFile replaces the content of a file, keeping its id.
func (m *Manager) EditFile(ctx context.Context, fileID string, content string) (analyzer_models.File, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for index := range m.files {
		if m.files[index].ID != fileID {
			continue
		}
		file := &m.files[index]
		file.Content = content
		file.Size = len(content)
		file.LastModified = m.now()
		file.IsModified = true
		return *file, m.persistFilesLocked(ctx)
	}

	return analyzer_models.File{}, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
}

// RemoveFile drops a file from the current chat.
func (m *Manager) RemoveFile(ctx context.Context, fileID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for index, file := range m.files {
		if file.ID == fileID {
			m.files = append(m.files[:index:index], m.files[index+1:]...)
			return m.persistFilesLocked(ctx)
		}
	}

	return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
}

// FindFile looks a file of the current chat up by id, path or name.
func (m *Manager) FindFile(key string) (analyzer_models.File, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, file := range m.files {
		if file.ID == key || file.Path == key || file.Name == key {
			return file, true
		}
	}
	return analyzer_models.File{}, false
}
