// Package indexer builds the search index artifact from a markdown corpus.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
	"github.com/MissionSquad/missionsquad-docs/internal/markdown"
)

// IndexModel tags the artifact schema so the frontend can detect stale caches.
const IndexModel = "docs-agent"

// ErrCountMismatch reports an embedding count that does not equal the segment
// count. The build aborts rather than truncate or pad: a corrupted index is
// strictly worse than a stale one.
var ErrCountMismatch = errors.New("embedding count mismatch")

// Options configures a build run.
type Options struct {
	Root          string
	PublishDir    string
	OutputFile    string
	MinSegmentLen int
	BatchSize     int
	Exclude       []string
}

// Builder orchestrates a full corpus build: discovery, segmentation, batched
// embedding, integrity validation and artifact serialization. A run is
// all-or-nothing; nothing is written on failure.
type Builder struct {
	embedder domain.Embedder
	logger   *zap.Logger
	opts     Options
}

func New(embedder domain.Embedder, logger *zap.Logger, opts Options) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinSegmentLen <= 0 {
		opts.MinSegmentLen = 10
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	return &Builder{embedder: embedder, logger: logger, opts: opts}
}

type pageSegment struct {
	pagePath string
	seg      domain.Segment
}

// Build runs the whole pipeline and replaces the artifact file on success.
func (b *Builder) Build(ctx context.Context) (*domain.SearchIndex, error) {
	files, err := b.discover()
	if err != nil {
		return nil, fmt.Errorf("discover corpus: %w", err)
	}

	var segments []pageSegment
	for _, path := range files {
		segs, err := b.segmentFile(path)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segs...)
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.seg.Content
	}

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("%w: got %d vectors for %d segments", ErrCountMismatch, len(vectors), len(segments))
	}

	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	chunks := make([]domain.DocChunk, len(segments))
	for i, s := range segments {
		chunks[i] = domain.DocChunk{
			ID:        s.pagePath + "#" + s.seg.Anchor,
			PagePath:  s.pagePath,
			URL:       s.pagePath + ".html#" + s.seg.Anchor,
			Title:     s.seg.Title,
			Heading:   s.seg.Heading,
			Anchor:    s.seg.Anchor,
			Content:   s.seg.Content,
			Embedding: vectors[i],
		}
	}

	index := &domain.SearchIndex{
		Model:          IndexModel,
		EmbeddingModel: b.embedder.Model(),
		Dims:           dims,
		BuiltAt:        time.Now().UTC().Format(time.RFC3339),
		Chunks:         chunks,
	}

	out, err := b.writeArtifact(index)
	if err != nil {
		return nil, err
	}
	b.logger.Info("wrote search index",
		zap.Int("pages", len(files)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dims", dims),
		zap.String("output", out),
	)
	return index, nil
}

// discover walks the corpus root for markdown files, skipping the publish
// directory, configured excludes and hidden directories. WalkDir visits
// lexically, so discovery order is deterministic.
func (b *Builder) discover() ([]string, error) {
	skip := make(map[string]bool, len(b.opts.Exclude)+1)
	for _, e := range b.opts.Exclude {
		skip[e] = true
	}
	skip[filepath.Base(b.opts.PublishDir)] = true

	var files []string
	err := filepath.WalkDir(b.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != b.opts.Root && (skip[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(name), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// segmentFile strips front matter, segments one page and drops segments whose
// reduced content is below the minimum length.
func (b *Builder) segmentFile(path string) ([]pageSegment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rel, err := filepath.Rel(b.opts.Root, path)
	if err != nil {
		rel = path
	}
	pagePath := "/" + strings.TrimSuffix(filepath.ToSlash(rel), ".md")

	content := markdown.StripFrontMatter(string(raw))
	defaultTitle := filepath.Base(pagePath)

	var out []pageSegment
	sc := markdown.NewScanner(content, defaultTitle)
	for sc.Next() {
		seg := sc.Segment()
		seg.Content = markdown.Plain(seg.Content)
		if len(seg.Content) < b.opts.MinSegmentLen {
			continue
		}
		out = append(out, pageSegment{pagePath: pagePath, seg: seg})
	}
	b.logger.Debug("segmented page", zap.String("page", pagePath), zap.Int("segments", len(out)))
	return out, nil
}

// embedAll partitions texts into fixed-size batches and concatenates the
// resulting vectors in order. Batches go out one at a time; the first failure
// aborts the build.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += b.opts.BatchSize {
		end := start + b.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := b.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d..%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (b *Builder) writeArtifact(index *domain.SearchIndex) (string, error) {
	dir := b.opts.PublishDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.opts.Root, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create publish dir: %w", err)
	}
	data, err := json.Marshal(index)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, b.opts.OutputFile)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	return out, nil
}
