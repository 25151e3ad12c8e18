package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
)

// fakeEmbedder returns fixed-width vectors and records batch sizes. Setting
// short makes it return one vector fewer than requested.
type fakeEmbedder struct {
	batches []int
	short   bool
	calls   int
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	f.batches = append(f.batches, len(texts))
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{1, 2, 3}
	}
	return out, nil
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestBuild(t *testing.T) {
	t.Run("full build writes artifact", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{
			"guide/setup.md":       "---\ntitle: meta\n---\n# Setup Guide\nInstall the thing first.\n## Configure\nEdit the config file carefully.",
			"index.md":             "# Welcome\nThis is the landing page text.",
			"node_modules/skip.md": "# Skipped\nmust never appear in the index",
			"public/old.md":        "# Old\nstale publish output must be skipped",
		})
		emb := &fakeEmbedder{}
		b := New(emb, nil, Options{
			Root: root, PublishDir: "public", OutputFile: "search-index.json",
			Exclude: []string{"node_modules"},
		})

		idx, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, IndexModel, idx.Model)
		assert.Equal(t, "fake-embed", idx.EmbeddingModel)
		assert.Equal(t, 3, idx.Dims)
		assert.NotEmpty(t, idx.BuiltAt)
		require.Len(t, idx.Chunks, 3)

		// discovery order is lexical: guide/setup.md before index.md
		first := idx.Chunks[0]
		assert.Equal(t, "/guide/setup", first.PagePath)
		assert.Equal(t, "/guide/setup#setup-guide", first.ID)
		assert.Equal(t, "/guide/setup.html#setup-guide", first.URL)
		assert.Equal(t, "Setup Guide", first.Title)
		assert.Equal(t, "Setup Guide", first.Heading)
		assert.Equal(t, "Install the thing first.", first.Content)
		assert.Equal(t, []float64{1, 2, 3}, first.Embedding)

		assert.Equal(t, "Configure", idx.Chunks[1].Heading)
		assert.Equal(t, "/index#welcome", idx.Chunks[2].ID)

		data, err := os.ReadFile(filepath.Join(root, "public", "search-index.json"))
		require.NoError(t, err)
		var persisted domain.SearchIndex
		require.NoError(t, json.Unmarshal(data, &persisted))
		assert.Equal(t, idx.Chunks, persisted.Chunks)
	})

	t.Run("short segments are dropped", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{
			"a.md": "# A\ntiny\n## B\nlong enough to keep around",
		})
		emb := &fakeEmbedder{}
		b := New(emb, nil, Options{Root: root, PublishDir: "public", OutputFile: "idx.json"})
		idx, err := b.Build(context.Background())
		require.NoError(t, err)
		require.Len(t, idx.Chunks, 1)
		assert.Equal(t, "B", idx.Chunks[0].Heading)
	})

	t.Run("count mismatch aborts without artifact", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{
			"a.md": "# A\nfirst section body text\n## B\nsecond section body text",
		})
		emb := &fakeEmbedder{short: true}
		b := New(emb, nil, Options{Root: root, PublishDir: "public", OutputFile: "idx.json"})
		_, err := b.Build(context.Background())
		require.ErrorIs(t, err, ErrCountMismatch)

		_, statErr := os.Stat(filepath.Join(root, "public", "idx.json"))
		assert.True(t, os.IsNotExist(statErr), "artifact must not exist after failed build")
	})

	t.Run("embedding failure aborts without artifact", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{
			"a.md": "# A\nfirst section body text",
		})
		b := New(failingEmbedder{}, nil, Options{Root: root, PublishDir: "public", OutputFile: "idx.json"})
		_, err := b.Build(context.Background())
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(root, "public", "idx.json"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("empty corpus yields empty index with zero dims", func(t *testing.T) {
		root := t.TempDir()
		emb := &fakeEmbedder{}
		b := New(emb, nil, Options{Root: root, PublishDir: "public", OutputFile: "idx.json"})
		idx, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Zero(t, idx.Dims)
		assert.Empty(t, idx.Chunks)
		assert.Zero(t, emb.calls)

		data, err := os.ReadFile(filepath.Join(root, "public", "idx.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"chunks":[]`)
	})

	t.Run("texts are partitioned into fixed-size batches", func(t *testing.T) {
		files := map[string]string{}
		md := "# Page\n"
		for i := 0; i < 5; i++ {
			md += fmt.Sprintf("## Section %d\nbody text for section number %d\n", i, i)
		}
		files["big.md"] = md
		root := writeCorpus(t, files)

		emb := &fakeEmbedder{}
		b := New(emb, nil, Options{Root: root, PublishDir: "public", OutputFile: "idx.json", BatchSize: 2})
		idx, err := b.Build(context.Background())
		require.NoError(t, err)
		require.Len(t, idx.Chunks, 5)
		assert.Equal(t, []int{2, 2, 1}, emb.batches)
	})
}

type failingEmbedder struct{}

func (failingEmbedder) Model() string { return "fail" }
func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float64, error) {
	return nil, fmt.Errorf("boom")
}
