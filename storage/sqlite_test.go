package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
	"github.com/meysamhadeli/patchpilot/storage/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*SQLiteStore, afero.Fs) {
	t.Helper()

	blobs := afero.NewMemMapFs()
	store, err := newSQLiteStore(filepath.Join(t.TempDir(), "patchpilot.db"), blobs, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, blobs
}

var baseTime = time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)

func sampleChats() []models.ChatSession {
	return []models.ChatSession{
		{
			ID:           "chat-2",
			Name:         "proj Analysis",
			FileCount:    2,
			LastModified: baseTime.Add(time.Hour),
			DirectoryStats: &analyzer_models.IngestStats{
				Name: "proj", TotalFiles: 4, CodeFiles: 2, ProcessedFiles: 2,
			},
			Messages: []models.Message{
				{ID: "m1", Type: models.RoleUser, Kind: models.KindText, Content: "review this", Timestamp: baseTime},
				{
					ID: "m2", Type: models.RoleAI, Kind: models.KindActions, Content: "Here is the analysis",
					Timestamp: baseTime.Add(time.Second),
					Actions:   []context_models.Action{{Label: "🔧 Improve All Files", Action: "improve_all"}},
					Intent:    context_models.IntentAnalysis,
					BasicMode: true,
				},
				{
					ID: "m3", Type: models.RoleAI, Kind: models.KindFileContext, Content: "a.py looks fine",
					Timestamp: baseTime.Add(2 * time.Second),
					File:      &models.FileReference{FileID: "f1", FileName: "a.py"},
				},
			},
		},
		{
			ID:           "default-chat",
			Name:         "New Chat",
			LastModified: baseTime,
			Messages: []models.Message{
				{ID: "welcome", Type: models.RoleAI, Kind: models.KindText, Content: "Welcome", Timestamp: baseTime},
			},
		},
	}
}

func sampleFiles() []analyzer_models.File {
	return []analyzer_models.File{
		{
			ID: "f1", Name: "a.py", Path: "src/a.py", Content: "def foo():\n    pass\n",
			Size: 20, Extension: "py", AddedAt: baseTime, LastModified: baseTime,
		},
		{
			ID: "f2", Name: "b.py", Path: "src/util/b.py", Content: "# comment\nimport os\n",
			Size: 20, Extension: "py", AddedAt: baseTime, LastModified: baseTime.Add(time.Minute), IsModified: true,
		},
	}
}

func TestSQLiteStore_ChatsRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	chats := sampleChats()
	require.NoError(t, store.SaveChats(ctx, chats))

	assert.Equal(t, chats, store.LoadChats(ctx))
}

func TestSQLiteStore_SaveChatsReplaces(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChats(ctx, sampleChats()))
	remaining := sampleChats()[1:]
	require.NoError(t, store.SaveChats(ctx, remaining))

	loaded := store.LoadChats(ctx)
	require.Len(t, loaded, 1)
	assert.Equal(t, "default-chat", loaded[0].ID)
	assert.Equal(t, 1, store.Stats(ctx).TotalMessages)
}

func TestSQLiteStore_EmptyStore(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	assert.Empty(t, store.LoadChats(ctx))
	assert.NotNil(t, store.LoadChats(ctx))

	_, ok := store.LoadCurrentChatID(ctx)
	assert.False(t, ok)

	files := store.LoadChatFiles(ctx, "missing")
	assert.NotNil(t, files)
	assert.Empty(t, files)

	assert.NoError(t, store.DeleteChatFiles(ctx, "missing"))
	assert.Equal(t, models.DefaultSettings(), store.LoadSettings(ctx))
}

func TestSQLiteStore_CurrentChatID(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCurrentChatID(ctx, "chat-1"))
	require.NoError(t, store.SaveCurrentChatID(ctx, "chat-2"))

	id, ok := store.LoadCurrentChatID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "chat-2", id)
}

func TestSQLiteStore_ChatFilesRoundTrip(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()

	files := sampleFiles()
	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", files))

	assert.Equal(t, files, store.LoadChatFiles(ctx, "chat-2"))

	content, err := afero.ReadFile(blobs, "/chat-2/f1_a.py")
	require.NoError(t, err)
	assert.Equal(t, "def foo():\n    pass\n", string(content))
}

func TestSQLiteStore_ChatFilesReplaceAndDelete(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", sampleFiles()[:1]))

	loaded := store.LoadChatFiles(ctx, "chat-2")
	require.Len(t, loaded, 1)
	exists, _ := afero.Exists(blobs, "/chat-2/f2_b.py")
	assert.False(t, exists)

	require.NoError(t, store.DeleteChatFiles(ctx, "chat-2"))
	assert.Empty(t, store.LoadChatFiles(ctx, "chat-2"))
	exists, _ = afero.DirExists(blobs, "/chat-2")
	assert.False(t, exists)
}

func TestSQLiteStore_MissingBlobLoadsEmptyContent(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, blobs.Remove("/chat-2/f1_a.py"))

	loaded := store.LoadChatFiles(ctx, "chat-2")

	require.Len(t, loaded, 2)
	assert.Equal(t, "a.py", loaded[0].Name)
	assert.Empty(t, loaded[0].Content)
	assert.Equal(t, "# comment\nimport os\n", loaded[1].Content)
}

func TestSQLiteStore_EmptyChatIDRejected(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.SaveChatFiles(context.Background(), "", sampleFiles())

	assert.ErrorIs(t, err, ErrEmptyChatID)
}

func TestSQLiteStore_SettingsMergeDefaults(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.setState(ctx, settingsKey, `{"sidebarOpen":false,"theme":"light"}`))

	settings := store.LoadSettings(ctx)

	assert.Equal(t, models.Settings{
		SidebarOpen:     false,
		FileTrackerOpen: true,
		InternetAccess:  false,
		Theme:           "light",
	}, settings)

	require.NoError(t, store.setState(ctx, settingsKey, `not json`))
	assert.Equal(t, models.DefaultSettings(), store.LoadSettings(ctx))
}

func TestSQLiteStore_Stats(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChats(ctx, sampleChats()))
	files := sampleFiles()
	files[0].Size = 3000
	files[1].Size = 100
	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", files))

	assert.Equal(t, models.StorageStats{
		TotalChats:      2,
		TotalMessages:   4,
		TotalFiles:      2,
		TotalFileSizeKB: 3,
	}, store.Stats(ctx))
}

func TestSQLiteStore_ClearAll(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChats(ctx, sampleChats()))
	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, store.SaveCurrentChatID(ctx, "chat-2"))

	require.NoError(t, store.ClearAll(ctx))

	assert.Empty(t, store.LoadChats(ctx))
	assert.Empty(t, store.LoadChatFiles(ctx, "chat-2"))
	_, ok := store.LoadCurrentChatID(ctx)
	assert.False(t, ok)
	exists, _ := afero.Exists(blobs, "/chat-2/f1_a.py")
	assert.False(t, exists)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "patchpilot.db")
	blobs := afero.NewMemMapFs()
	ctx := context.Background()

	first, err := newSQLiteStore(dbPath, blobs, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, first.SaveChats(ctx, sampleChats()))
	require.NoError(t, first.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath, blobs, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, sampleChats(), second.LoadChats(ctx))
	assert.Equal(t, sampleFiles(), second.LoadChatFiles(ctx, "chat-2"))
}

func TestSQLiteStore_ExportImportRoundTrip(t *testing.T) {
	source, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, source.SaveChats(ctx, sampleChats()))
	require.NoError(t, source.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, source.SaveCurrentChatID(ctx, "chat-2"))
	require.NoError(t, source.SaveSettings(ctx, models.Settings{SidebarOpen: false, FileTrackerOpen: true, InternetAccess: true, Theme: "light"}))

	data, err := source.Export(ctx)
	require.NoError(t, err)

	var doc models.ExportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, models.ExportVersion, doc.Version)
	assert.False(t, doc.ExportDate.IsZero())

	target, _ := setupTestStore(t)
	require.NoError(t, target.SaveChats(ctx, []models.ChatSession{{ID: "stale", Name: "Stale"}}))
	require.NoError(t, target.Import(ctx, data))

	assert.Equal(t, sampleChats(), target.LoadChats(ctx))
	assert.Equal(t, sampleFiles(), target.LoadChatFiles(ctx, "chat-2"))
	id, _ := target.LoadCurrentChatID(ctx)
	assert.Equal(t, "chat-2", id)
	assert.Equal(t, source.LoadSettings(ctx), target.LoadSettings(ctx))
}

func TestSQLiteStore_ImportRejectsBadDocuments(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveChats(ctx, sampleChats()))

	err := store.Import(ctx, []byte(`{"version":"2.0.0","exportDate":"2024-03-01T10:30:00Z","chats":[]}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	err = store.Import(ctx, []byte(`{"version":"1.0.0","exportDate":"2024-03-01T10:30:00Z","chats":[{"id":"","name":"x","messages":[]}]}`))
	assert.ErrorContains(t, err, "invalid export document")

	err = store.Import(ctx, []byte(`{`))
	assert.Error(t, err)

	assert.Len(t, store.LoadChats(ctx), 2)
}

func TestSQLiteStore_ImportPartialSettings(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, []byte(`{"version":"1.0.0","exportDate":"2024-03-01T10:30:00Z","chats":[],"settings":{"internetAccess":true}}`)))

	settings := store.LoadSettings(ctx)
	assert.True(t, settings.InternetAccess)
	assert.True(t, settings.SidebarOpen)
	assert.Equal(t, "dark", settings.Theme)
}

func seedStore(t *testing.T, store *SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveChats(ctx, sampleChats()))
	require.NoError(t, store.SaveChatFiles(ctx, "chat-2", sampleFiles()))
	require.NoError(t, store.SaveCurrentChatID(ctx, "chat-2"))
}

func assertSeeded(t *testing.T, store *SQLiteStore, blobs afero.Fs) {
	t.Helper()
	ctx := context.Background()

	assert.Equal(t, sampleChats(), store.LoadChats(ctx))
	assert.Equal(t, sampleFiles(), store.LoadChatFiles(ctx, "chat-2"))
	id, _ := store.LoadCurrentChatID(ctx)
	assert.Equal(t, "chat-2", id)
	assert.Equal(t, []string{"/chat-2/f1_a.py", "/chat-2/f2_b.py"}, blobFiles(t, blobs))
}

func blobFiles(t *testing.T, blobs afero.Fs) []string {
	t.Helper()

	paths := []string{}
	require.NoError(t, afero.Walk(blobs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			paths = append(paths, filepath.ToSlash(p))
		}
		return nil
	}))
	return paths
}

func exportDocument(t *testing.T, chats []models.ChatSession, chatFiles map[string][]analyzer_models.File) []byte {
	t.Helper()

	data, err := json.Marshal(models.ExportDocument{
		Version:    models.ExportVersion,
		ExportDate: baseTime,
		Chats:      chats,
		ChatFiles:  chatFiles,
		Settings:   models.DefaultSettings(),
	})
	require.NoError(t, err)
	return data
}

func TestSQLiteStore_FailedImportKeepsState(t *testing.T) {
	welcome := models.Message{ID: "m", Type: models.RoleUser, Kind: models.KindText, Content: "hi", Timestamp: baseTime}
	file := sampleFiles()[0]
	escaping := file
	escaping.ID = "../x"

	tests := []struct {
		name      string
		chats     []models.ChatSession
		chatFiles map[string][]analyzer_models.File
		target    error
		message   string
	}{
		{
			name:      "empty file set key",
			chats:     []models.ChatSession{{ID: "x", Name: "X"}},
			chatFiles: map[string][]analyzer_models.File{"": {file}},
			message:   "invalid export document",
		},
		{
			name:      "parent directory key",
			chats:     []models.ChatSession{{ID: "x", Name: "X"}},
			chatFiles: map[string][]analyzer_models.File{"..": {file}},
			target:    ErrInvalidID,
		},
		{
			name:      "current directory key",
			chatFiles: map[string][]analyzer_models.File{".": {file}},
			target:    ErrInvalidID,
		},
		{
			name:   "chat id with separator",
			chats:  []models.ChatSession{{ID: "a/b", Name: "X"}},
			target: ErrInvalidID,
		},
		{
			name:   "duplicate chat ids",
			chats:  []models.ChatSession{{ID: "d", Name: "A"}, {ID: "d", Name: "B"}},
			target: ErrDuplicateID,
		},
		{
			name:   "duplicate message ids",
			chats:  []models.ChatSession{{ID: "d", Name: "A", Messages: []models.Message{welcome, welcome}}},
			target: ErrDuplicateID,
		},
		{
			name:      "duplicate file ids",
			chats:     []models.ChatSession{{ID: "d", Name: "A"}},
			chatFiles: map[string][]analyzer_models.File{"d": {file, file}},
			target:    ErrDuplicateID,
		},
		{
			name:      "file id with separator",
			chats:     []models.ChatSession{{ID: "d", Name: "A"}},
			chatFiles: map[string][]analyzer_models.File{"d": {escaping}},
			target:    ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, blobs := setupTestStore(t)
			seedStore(t, store)

			err := store.Import(context.Background(), exportDocument(t, tt.chats, tt.chatFiles))

			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.message != "" {
				assert.ErrorContains(t, err, tt.message)
			}
			assertSeeded(t, store, blobs)
		})
	}
}

func TestSQLiteStore_InterruptedImportKeepsState(t *testing.T) {
	store, blobs := setupTestStore(t)
	seedStore(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := exportDocument(t, []models.ChatSession{{ID: "other", Name: "Other"}},
		map[string][]analyzer_models.File{"other": sampleFiles()})

	err := store.Import(ctx, data)

	assert.ErrorIs(t, err, context.Canceled)
	assertSeeded(t, store, blobs)
}

func TestSQLiteStore_ImportReplacesContents(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()
	seedStore(t, store)

	files := sampleFiles()[:1]
	files[0].Content = "print(1)\n"
	data := exportDocument(t, []models.ChatSession{{ID: "other", Name: "Other"}},
		map[string][]analyzer_models.File{"other": files})

	require.NoError(t, store.Import(ctx, data))

	assert.Equal(t, []string{"/other/f1_a.py"}, blobFiles(t, blobs))
	assert.Equal(t, files, store.LoadChatFiles(ctx, "other"))
	assert.Empty(t, store.LoadChatFiles(ctx, "chat-2"))
}

func TestSQLiteStore_InterruptedSaveKeepsFiles(t *testing.T) {
	store, blobs := setupTestStore(t)
	seedStore(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	changed := sampleFiles()[:1]
	changed[0].Content = "changed"

	err := store.SaveChatFiles(ctx, "chat-2", changed)

	assert.ErrorIs(t, err, context.Canceled)
	assertSeeded(t, store, blobs)
}

func TestSQLiteStore_UnsafeIDsRejected(t *testing.T) {
	store, blobs := setupTestStore(t)
	ctx := context.Background()
	seedStore(t, store)

	for _, chatID := range []string{".", "..", "a/b", `a\b`, ".staging"} {
		err := store.SaveChatFiles(ctx, chatID, sampleFiles())
		assert.ErrorIs(t, err, ErrInvalidID, chatID)
	}

	escaping := sampleFiles()
	escaping[1].ID = "../f2"
	assert.ErrorIs(t, store.SaveChatFiles(ctx, "chat-2", escaping), ErrInvalidID)

	assertSeeded(t, store, blobs)
}
