package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) (*Store, *MockEmbedder) {
	t.Helper()

	embedder := NewMockEmbedder(8)
	store, err := NewStore(Config{
		DBPath:   filepath.Join(t.TempDir(), "knowledge.db"),
		Embedder: embedder,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, embedder
}

func TestNewStore_InvalidConfig(t *testing.T) {
	_, err := NewStore(Config{Embedder: NewMockEmbedder(8)})
	assert.Error(t, err)

	_, err = NewStore(Config{DBPath: filepath.Join(t.TempDir(), "k.db")})
	assert.Error(t, err)
}

func TestAddDocumentAndCount(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	docID, err := store.AddDocument(ctx, "Go is a statically typed language.", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, docID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddDocumentRejectsEmpty(t *testing.T) {
	store, _ := createTestStore(t)

	_, err := store.AddDocument(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	store, embedder := createTestStore(t)
	ctx := context.Background()

	// Pin vectors so ordering is unambiguous
	embedder.SetVector("about cats", []float32{1, 0, 0, 0, 0, 0, 0, 0})
	embedder.SetVector("about dogs", []float32{0, 1, 0, 0, 0, 0, 0, 0})
	embedder.SetVector("cats?", []float32{0.9, 0.1, 0, 0, 0, 0, 0, 0})

	_, err := store.AddDocument(ctx, "about cats", map[string]interface{}{"source": "pets.md"})
	require.NoError(t, err)
	_, err = store.AddDocument(ctx, "about dogs", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, "cats?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "about cats", results[0].Content)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
	assert.Equal(t, "pets.md", results[0].Metadata["source"])
}

func TestSearchEmptyQuery(t *testing.T) {
	store, _ := createTestStore(t)

	results, err := store.Search(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimitDefaults(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := store.AddDocument(ctx, text, nil)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestClear(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocument(ctx, "temporary fact", nil)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := store.Search(ctx, "temporary fact", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocsWatcherIngestsExisting(t *testing.T) {
	store, _ := createTestStore(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("existing note"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0x00}, 0o644))

	watcher, err := NewDocsWatcher(store, dir, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Stop()

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
