// Package retrieval orchestrates per-user vector indexes and chunk stores:
// ingesting documents, deleting them with a full index rebuild, and answering
// similarity queries. The Manager is the sole owner of a user's persisted
// state and the enforcement point for locking and consistency.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/store"
)

const (
	indexFile  = "vectors.idx"
	chunksFile = "chunks.json"
)

// Result is one retrieved chunk with its distance from the query.
type Result struct {
	DocID    string  `json:"doc_id"`
	Chunk    string  `json:"chunk"`
	Distance float32 `json:"distance"`
}

// Manager coordinates ingest, delete and query over per-user stores rooted
// at dataDir. Mutations take an exclusive per-user lock for the full
// load-mutate-persist cycle; queries take a shared lock. Stores of different
// users are fully independent.
type Manager struct {
	dataDir   string
	provider  embedding.Provider
	chunkSize int
	overlap   int
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewManager creates a manager persisting under dataDir and embedding with
// the given provider.
func NewManager(dataDir string, provider embedding.Provider, chunkSize, overlap int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dataDir:   dataDir,
		provider:  provider,
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    logger,
		locks:     make(map[string]*sync.RWMutex),
	}
}

// Ingest splits text into chunks, embeds them and appends them to the user's
// store, creating the store on first use. A document whose text yields no
// chunks is a no-op, but window settings that cannot chunk non-empty text are
// an error. Returns store.ErrDuplicateDocument if docID is already
// ingested and embedding.ErrProvider if the backend fails; in both cases the
// persisted store is left untouched.
func (m *Manager) Ingest(ctx context.Context, user, docID, text string) error {
	chunks := chunker.Split(text, m.chunkSize, m.overlap)
	if len(chunks) == 0 {
		if len(strings.Fields(text)) > 0 {
			return fmt.Errorf("chunk size %d with overlap %d cannot chunk document %q", m.chunkSize, m.overlap, docID)
		}
		m.logger.Info("document has no indexable content", "user", user, "doc", docID)
		return nil
	}

	lock := m.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	idx, cs, err := m.loadStore(user)
	if err != nil {
		return err
	}
	if cs == nil {
		cs = store.NewChunkStore()
	}
	if _, ok := cs.Chunks(docID); ok {
		return fmt.Errorf("document %q: %w", docID, store.ErrDuplicateDocument)
	}

	vectors, err := m.provider.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed document %q: %w", docID, err)
	}

	if idx == nil {
		idx, err = index.NewFlat(m.provider.Dimension())
		if err != nil {
			return err
		}
	}
	if err := idx.Append(vectors); err != nil {
		return fmt.Errorf("append document %q: %w", docID, err)
	}
	if err := cs.Put(docID, chunks); err != nil {
		return err
	}

	if err := m.persist(user, idx, cs); err != nil {
		return err
	}
	m.logger.Info("ingested document", "user", user, "doc", docID, "chunks", len(chunks))
	return nil
}

// Delete removes a document and rebuilds the user's index from the surviving
// vectors. The rebuild replays vectors already held by the loaded index in
// position order instead of re-embedding the remaining chunks, so no provider
// call is made. When the last document is removed the index file is deleted
// and an empty chunk store is written, the explicit empty-store state.
// Returns store.ErrNotFound if the document is not present.
func (m *Manager) Delete(ctx context.Context, user, docID string) error {
	lock := m.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	idx, cs, err := m.loadStore(user)
	if err != nil {
		return err
	}
	if cs == nil {
		return fmt.Errorf("document %q: %w", docID, store.ErrNotFound)
	}

	refs := cs.PositionMap()
	if _, err := cs.Remove(docID); err != nil {
		return err
	}

	if cs.Len() == 0 {
		if err := m.persistEmpty(user, cs); err != nil {
			return err
		}
		m.logger.Info("deleted last document", "user", user, "doc", docID)
		return nil
	}

	kept := make([][]float32, 0, cs.Len())
	for pos, ref := range refs {
		if ref.DocID != docID {
			kept = append(kept, idx.Vector(pos))
		}
	}
	rebuilt, err := index.NewFlat(idx.Dimension())
	if err != nil {
		return err
	}
	if err := rebuilt.Append(kept); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	if err := m.persist(user, rebuilt, cs); err != nil {
		return err
	}
	m.logger.Info("deleted document", "user", user, "doc", docID, "remaining_chunks", cs.Len())
	return nil
}

// Query embeds text and returns the k nearest chunks across all of the
// user's documents, ascending by distance. A missing or empty store yields
// an empty result, not an error.
func (m *Manager) Query(ctx context.Context, user, text string, k int) ([]Result, error) {
	lock := m.userLock(user)
	lock.RLock()
	defer lock.RUnlock()

	idx, cs, err := m.loadStore(user)
	if err != nil {
		return nil, err
	}
	if cs == nil || idx == nil || cs.Len() == 0 {
		return nil, nil
	}

	query, err := m.provider.EmbedOne(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := idx.Search(query, k)
	if err != nil {
		return nil, err
	}

	refs := cs.PositionMap()
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Position >= len(refs) {
			return nil, fmt.Errorf("position %d outside position map of %d entries: %w",
				hit.Position, len(refs), ErrInconsistentStore)
		}
		ref := refs[hit.Position]
		chunks, ok := cs.Chunks(ref.DocID)
		if !ok || ref.ChunkIndex >= len(chunks) {
			return nil, fmt.Errorf("position %d maps to missing chunk %s/%d: %w",
				hit.Position, ref.DocID, ref.ChunkIndex, ErrInconsistentStore)
		}
		results = append(results, Result{
			DocID:    ref.DocID,
			Chunk:    chunks[ref.ChunkIndex],
			Distance: hit.Distance,
		})
	}
	return results, nil
}

// userLock returns the lock guarding one user's store, creating it lazily.
func (m *Manager) userLock(user string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[user]
	if !ok {
		lock = &sync.RWMutex{}
		m.locks[user] = lock
	}
	return lock
}

// userDir maps a user identifier to its store directory. The identifier is
// escaped so arbitrary emails are filesystem-safe.
func (m *Manager) userDir(user string) string {
	return filepath.Join(m.dataDir, url.PathEscape(user))
}
