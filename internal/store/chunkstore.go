// Package store holds, per user, the mapping from document ID to its ordered
// chunk texts, position-aligned with the user's vector index.
package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// ChunkRef identifies the chunk a vector index position represents.
type ChunkRef struct {
	DocID      string
	ChunkIndex int
}

type document struct {
	ID     string   `json:"id"`
	Chunks []string `json:"chunks"`
}

// ChunkStore maps document IDs to their ordered chunk texts. Documents keep
// insertion order, which fixes the flattening order used for the position map
// and for index rebuilds: iterating documents oldest-first and concatenating
// their chunks yields positions 0..Len()-1.
type ChunkStore struct {
	docs []document
	byID map[string]int
}

// NewChunkStore returns an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{byID: make(map[string]int)}
}

// Put registers a document's chunks. The document must not already be
// present; delete first to re-ingest.
func (s *ChunkStore) Put(docID string, chunks []string) error {
	if _, ok := s.byID[docID]; ok {
		return fmt.Errorf("document %q: %w", docID, ErrDuplicateDocument)
	}
	stored := make([]string, len(chunks))
	copy(stored, chunks)
	s.byID[docID] = len(s.docs)
	s.docs = append(s.docs, document{ID: docID, Chunks: stored})
	return nil
}

// Remove deletes a document and returns its chunks.
func (s *ChunkStore) Remove(docID string) ([]string, error) {
	i, ok := s.byID[docID]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
	removed := s.docs[i].Chunks
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	delete(s.byID, docID)
	for j := i; j < len(s.docs); j++ {
		s.byID[s.docs[j].ID] = j
	}
	return removed, nil
}

// Chunks returns the stored chunk texts for a document.
func (s *ChunkStore) Chunks(docID string) ([]string, bool) {
	i, ok := s.byID[docID]
	if !ok {
		return nil, false
	}
	return s.docs[i].Chunks, true
}

// Docs returns document IDs in insertion order.
func (s *ChunkStore) Docs() []string {
	ids := make([]string, len(s.docs))
	for i, d := range s.docs {
		ids[i] = d.ID
	}
	return ids
}

// DocCount returns the number of stored documents.
func (s *ChunkStore) DocCount() int { return len(s.docs) }

// Len returns the total chunk count across all documents.
func (s *ChunkStore) Len() int {
	n := 0
	for _, d := range s.docs {
		n += len(d.Chunks)
	}
	return n
}

// PositionMap flattens all documents in insertion order, producing the
// position-to-chunk alignment table for the vector index. Entry p names the
// chunk whose vector sits at index position p.
func (s *ChunkStore) PositionMap() []ChunkRef {
	refs := make([]ChunkRef, 0, s.Len())
	for _, d := range s.docs {
		for i := range d.Chunks {
			refs = append(refs, ChunkRef{DocID: d.ID, ChunkIndex: i})
		}
	}
	return refs
}

// Save writes the store to path as JSON, preserving document order.
func (s *ChunkStore) Save(path string) error {
	data, err := json.Marshal(struct {
		Documents []document `json:"documents"`
	}{Documents: s.docs})
	if err != nil {
		return fmt.Errorf("marshal chunk store: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chunk store: %w", err)
	}
	return nil
}

// Load reads a store previously written by Save.
func Load(path string) (*ChunkStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk store: %w", err)
	}
	var payload struct {
		Documents []document `json:"documents"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse chunk store %s: %w", path, err)
	}
	s := NewChunkStore()
	for _, d := range payload.Documents {
		if err := s.Put(d.ID, d.Chunks); err != nil {
			return nil, fmt.Errorf("chunk store %s: %w", path, err)
		}
	}
	return s, nil
}
