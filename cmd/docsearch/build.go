package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MissionSquad/missionsquad-docs/internal/config"
	"github.com/MissionSquad/missionsquad-docs/internal/embedding"
	"github.com/MissionSquad/missionsquad-docs/internal/indexer"
)

func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the search index artifact from the docs corpus",
		Long:  `Segments every markdown page under the corpus root, embeds the segments in batches and writes the search index artifact to the publish directory. The run is all-or-nothing: nothing is written on failure.`,
		RunE:  runBuild,
	}

	cmd.Flags().Bool("watch", false, "Watch the corpus and rebuild on changes")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching watch events")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// credential check happens before any network or filesystem work
	key, err := cfg.APIKey()
	if err != nil {
		return err
	}

	client, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  key,
		Model:   cfg.Embedding.Model,
		Timeout: time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return err
	}

	builder := indexer.New(client, logger, indexer.Options{
		Root:          cfg.Corpus.Root,
		PublishDir:    cfg.Corpus.PublishDir,
		OutputFile:    cfg.Corpus.OutputFile,
		MinSegmentLen: cfg.Corpus.MinSegmentLen,
		BatchSize:     cfg.Embedding.BatchSize,
		Exclude:       cfg.Corpus.Exclude,
	})

	if _, err := builder.Build(cmd.Context()); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		return watchAndRebuild(cmd, cfg, builder, logger, debounce)
	}
	return nil
}

// watchAndRebuild reruns the full build after each settled burst of corpus
// changes. Build failures are logged and the loop continues; the last good
// artifact stays in place.
func watchAndRebuild(cmd *cobra.Command, cfg *config.AppConfig, builder *indexer.Builder, logger *zap.Logger, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, cfg); err != nil {
		return fmt.Errorf("add watch dirs: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", cfg.Corpus.Root)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			pending = false
			if _, err := builder.Build(cmd.Context()); err != nil {
				logger.Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, cfg *config.AppConfig) error {
	skip := map[string]bool{filepath.Base(cfg.Corpus.PublishDir): true}
	for _, e := range cfg.Corpus.Exclude {
		skip[e] = true
	}
	return filepath.WalkDir(cfg.Corpus.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != cfg.Corpus.Root && (skip[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
		return true
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0
}
