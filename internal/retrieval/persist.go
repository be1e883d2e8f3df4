package retrieval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/store"
)

// Persistence discipline: both files are written to a temporary path and
// atomically renamed into place, index first, chunk store second. A crash
// between the two renames leaves a pairing a later load rejects as
// inconsistent instead of silently serving mismatched results.

// loadStore reads a user's persisted index and chunk store. Both nil with a
// nil error means no store exists for the user. A chunk store holding zero
// documents with no index file is the valid empty state left by deleting the
// last document; any other lone file fails with ErrInconsistentStore, as
// does a vector count that disagrees with the total chunk count.
func (m *Manager) loadStore(user string) (*index.Flat, *store.ChunkStore, error) {
	dir := m.userDir(user)
	indexPath := filepath.Join(dir, indexFile)
	chunksPath := filepath.Join(dir, chunksFile)

	haveIndex := fileExists(indexPath)
	haveChunks := fileExists(chunksPath)

	switch {
	case !haveIndex && !haveChunks:
		return nil, nil, nil
	case haveIndex && !haveChunks:
		return nil, nil, fmt.Errorf("user %q: index present without chunk store: %w", user, ErrInconsistentStore)
	case !haveIndex:
		cs, err := store.Load(chunksPath)
		if err != nil {
			return nil, nil, err
		}
		if cs.DocCount() != 0 {
			return nil, nil, fmt.Errorf("user %q: chunk store present without index: %w", user, ErrInconsistentStore)
		}
		return nil, cs, nil
	}

	idx, err := index.Load(indexPath)
	if err != nil {
		return nil, nil, err
	}
	cs, err := store.Load(chunksPath)
	if err != nil {
		return nil, nil, err
	}
	if cs.Len() != idx.Len() {
		return nil, nil, fmt.Errorf("user %q: %d chunks vs %d vectors: %w",
			user, cs.Len(), idx.Len(), ErrInconsistentStore)
	}
	return idx, cs, nil
}

// persist writes the index and chunk store together.
func (m *Manager) persist(user string, idx *index.Flat, cs *store.ChunkStore) error {
	dir := m.userDir(user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	indexPath := filepath.Join(dir, indexFile)
	tmp := indexPath + ".tmp"
	if err := idx.Save(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, indexPath); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}

	return m.persistChunks(dir, cs)
}

// persistEmpty records the empty store state: no index file, a chunk store
// with zero documents.
func (m *Manager) persistEmpty(user string, cs *store.ChunkStore) error {
	dir := m.userDir(user)
	if err := os.Remove(filepath.Join(dir, indexFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove index: %w", err)
	}
	return m.persistChunks(dir, cs)
}

func (m *Manager) persistChunks(dir string, cs *store.ChunkStore) error {
	chunksPath := filepath.Join(dir, chunksFile)
	tmp := chunksPath + ".tmp"
	if err := cs.Save(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, chunksPath); err != nil {
		return fmt.Errorf("commit chunk store: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
