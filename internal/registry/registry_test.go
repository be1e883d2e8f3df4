package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestAddGetRemove(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	doc := Document{
		ID:             "doc-1",
		User:           "alice@example.com",
		Name:           "notes.txt",
		SizeKB:         12,
		TotalWords:     340,
		TotalSentences: 28,
		UploadedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.Add(ctx, doc))

	got, err := r.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc, *got)

	require.NoError(t, r.Remove(ctx, "doc-1"))
	_, err = r.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove_Unknown(t *testing.T) {
	r := openTestRegistry(t)
	err := r.Remove(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_PerUser(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"alice@example.com", "alice@example.com", "bob@example.com"} {
		require.NoError(t, r.Add(ctx, Document{
			ID:         []string{"a1", "a2", "b1"}[i],
			User:       user,
			Name:       "doc.txt",
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, err := r.List(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a2", docs[0].ID, "newest first")
	assert.Equal(t, "a1", docs[1].ID)

	docs, err = r.List(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAdd_DuplicateID(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	doc := Document{ID: "doc-1", User: "alice@example.com", Name: "a.txt", UploadedAt: time.Now()}
	require.NoError(t, r.Add(ctx, doc))
	assert.Error(t, r.Add(ctx, doc))
}
