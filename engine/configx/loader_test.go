package configx

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.yaml")
	writeYAML(t, path, "global:\n  max_concurrency: 4\n  logging_level: info\n")

	spec, err := LoadSpecFile(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if spec.Global == nil || spec.Global.MaxConcurrency != 4 {
		t.Fatalf("unexpected spec: %+v", spec.Global)
	}
}

func TestLoadSpecFileMissing(t *testing.T) {
	if _, err := LoadSpecFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWatcherLoadAllResolvesLayersAndRecordsVersion(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.yaml")
	sitePath := filepath.Join(dir, "site.yaml")
	writeYAML(t, globalPath, "global:\n  max_concurrency: 2\n")
	writeYAML(t, sitePath, "crawling:\n  site_rules:\n    example.com:\n      max_depth: 3\n")

	store := NewVersionedStore()
	w, err := NewWatcher([]LayerFile{
		{Layer: LayerGlobal, Path: globalPath},
		{Layer: LayerSite, Path: sitePath},
	}, store)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	resolved, err := w.LoadAll("test-actor")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if resolved.Global == nil || resolved.Global.MaxConcurrency != 2 {
		t.Fatalf("expected global layer merged, got %+v", resolved.Global)
	}
	if resolved.Crawling == nil || resolved.Crawling.SiteRules["example.com"].MaxDepth != 3 {
		t.Fatalf("expected site layer merged, got %+v", resolved.Crawling)
	}
	if head, ok := store.Head(); !ok || head.Version != 1 {
		t.Fatalf("expected initial version recorded in store")
	}
}

func TestWatcherWatchPicksUpFileChange(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.yaml")
	writeYAML(t, globalPath, "global:\n  max_concurrency: 2\n")

	store := NewVersionedStore()
	w, err := NewWatcher([]LayerFile{{Layer: LayerGlobal, Path: globalPath}}, store)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if _, err := w.LoadAll("actor"); err != nil {
		t.Fatalf("load all: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	changes, errs := w.Watch(ctx, "actor")

	writeYAML(t, globalPath, "global:\n  max_concurrency: 9\n")

	select {
	case resolved, ok := <-changes:
		if !ok {
			t.Fatalf("changes channel closed unexpectedly")
		}
		if resolved.Global == nil || resolved.Global.MaxConcurrency != 9 {
			t.Fatalf("expected reloaded concurrency 9, got %+v", resolved.Global)
		}
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for file change notification")
	}
}
