package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelai/sentinel/pkg/knowledge"
	"github.com/sentinelai/sentinel/pkg/registry"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Dimension() int { return 4 }

func (fixedEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	embedding := make([]float32, 4)
	for i, c := range text {
		embedding[i%4] += float32(c) / 1000.0
	}
	return embedding, nil
}

func (f fixedEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := f.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

func TestRegisterAllInventory(t *testing.T) {
	reg := registry.New()

	err := RegisterAll(reg, Options{
		Vision:      NewVision("k", "", zerolog.Nop()),
		Transcriber: NewTranscriber("k", "", zerolog.Nop()),
		LiveData:    NewLiveData(LiveDataConfig{Logger: zerolog.Nop()}),
	})
	require.NoError(t, err)

	for _, name := range []string{
		"analyze_image", "extract_text", "transcribe_audio",
		"get_weather", "get_stock_price", "get_crypto_price",
		"get_news", "web_search",
	} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, "expected %s to be registered", name)
	}

	// Disabled services leave their tools out
	_, ok := reg.Lookup("search_knowledge")
	assert.False(t, ok)
	_, ok = reg.Lookup("capture_webpage")
	assert.False(t, ok)
}

func TestRegisterAllNilRegistry(t *testing.T) {
	assert.Error(t, RegisterAll(nil, Options{}))
}

func TestSearchKnowledgeToolFormatting(t *testing.T) {
	store, err := knowledge.NewStore(knowledge.Config{
		DBPath:   filepath.Join(t.TempDir(), "k.db"),
		Embedder: fixedEmbedder{},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.AddDocument(ctx, "Restart procedure: hold the button.", nil)
	require.NoError(t, err)

	def := searchKnowledgeTool(store)

	result, err := def.Handler(ctx, map[string]interface{}{"query": "restart"})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "[Document 1] Restart procedure")
}

func TestSearchKnowledgeToolEmptyStore(t *testing.T) {
	store, err := knowledge.NewStore(knowledge.Config{
		DBPath:   filepath.Join(t.TempDir(), "k.db"),
		Embedder: fixedEmbedder{},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	defer store.Close()

	def := searchKnowledgeTool(store)

	result, err := def.Handler(context.Background(), map[string]interface{}{"query": "anything"})
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found in knowledge base.", result)
}

func TestWeatherToolRequiresCity(t *testing.T) {
	def := weatherTool(NewLiveData(LiveDataConfig{Logger: zerolog.Nop()}), nil)

	_, err := def.Handler(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestIntArg(t *testing.T) {
	// JSON-decoded numbers arrive as float64
	assert.Equal(t, 7, intArg(map[string]interface{}{"k": float64(7)}, "k", 3))
	assert.Equal(t, 7, intArg(map[string]interface{}{"k": 7}, "k", 3))
	assert.Equal(t, 3, intArg(map[string]interface{}{}, "k", 3))
	assert.Equal(t, 3, intArg(map[string]interface{}{"k": "x"}, "k", 3))
}
