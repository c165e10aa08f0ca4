package storage

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// stagingDir holds contents written ahead of a database commit. Chat ids may not start with a
// dot, so it never collides with a chat directory.
const stagingDir = "/.staging"

// blobStore holds file contents outside the database, one file per chat file. Paths are rooted
// at "/" of fs, which is expected to be scoped to the blob directory (afero.NewBasePathFs).
type blobStore struct {
	fs afero.Fs
}

// validBlobID reports whether id can be used as a single path element under the blob root.
func validBlobID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && !strings.ContainsAny(id, `/\`)
}

func chatDir(chatID string) string {
	return path.Join("/", chatID)
}

func blobPath(chatID string, fileID string, name string) string {
	return path.Join(chatDir(chatID), fmt.Sprintf("%s_%s", fileID, path.Base(name)))
}

func (b *blobStore) write(storagePath string, content string) error {
	if err := b.fs.MkdirAll(path.Dir(storagePath), 0755); err != nil {
		return err
	}
	return afero.WriteFile(b.fs, storagePath, []byte(content), 0644)
}

func (b *blobStore) read(storagePath string) (string, error) {
	data, err := afero.ReadFile(b.fs, storagePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// removeChat deletes every blob of a chat. A chat without blobs is not an error.
func (b *blobStore) removeChat(chatID string) error {
	if chatID == "" {
		return nil
	}
	if !validBlobID(chatID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, chatID)
	}
	if err := b.fs.RemoveAll(chatDir(chatID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *blobStore) clear() error {
	return b.clearExcept("")
}

// clearExcept removes every top-level entry of the blob root but the one named keep.
func (b *blobStore) clearExcept(keep string) error {
	entries, err := afero.ReadDir(b.fs, "/")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		name := path.Join("/", entry.Name())
		if name == keep {
			continue
		}
		if err := b.fs.RemoveAll(name); err != nil {
			return err
		}
	}
	return nil
}

// blobBatch stages contents under a private directory so a failed database write leaves the
// stored blobs untouched. Staged contents reach their final paths only through replaceChats
// or replaceAll, which run after the commit.
type blobBatch struct {
	store  *blobStore
	root   string
	staged map[string]string // final path -> staged path
}

func (b *blobStore) newBatch() *blobBatch {
	return &blobBatch{
		store:  b,
		root:   path.Join(stagingDir, uuid.NewString()),
		staged: map[string]string{},
	}
}

// add stages content and returns the path it will have once the batch is applied.
func (batch *blobBatch) add(chatID string, fileID string, name string, content string) (string, error) {
	final := blobPath(chatID, fileID, name)
	staged := path.Join(batch.root, final)
	if err := batch.store.write(staged, content); err != nil {
		return "", err
	}
	batch.staged[final] = staged
	return final, nil
}

// discard drops everything staged.
func (batch *blobBatch) discard() {
	_ = batch.store.fs.RemoveAll(batch.root)
	batch.removeStagingDirIfEmpty()
}

// replaceChats swaps the blobs of chatIDs for the staged ones.
func (batch *blobBatch) replaceChats(chatIDs ...string) error {
	for _, chatID := range chatIDs {
		if err := batch.store.removeChat(chatID); err != nil {
			return err
		}
	}
	return batch.promote()
}

// replaceAll swaps every stored blob for the staged ones.
func (batch *blobBatch) replaceAll() error {
	if err := batch.store.clearExcept(stagingDir); err != nil {
		return err
	}
	return batch.promote()
}

func (batch *blobBatch) promote() error {
	defer batch.discard()
	for final, staged := range batch.staged {
		if err := batch.store.fs.MkdirAll(path.Dir(final), 0755); err != nil {
			return err
		}
		if err := batch.store.fs.Rename(staged, final); err != nil {
			return fmt.Errorf("move %s into place: %w", final, err)
		}
	}
	return nil
}

func (batch *blobBatch) removeStagingDirIfEmpty() {
	if empty, err := afero.IsEmpty(batch.store.fs, stagingDir); err == nil && empty {
		_ = batch.store.fs.Remove(stagingDir)
	}
}
