package configx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadSpecFile reads and parses a single layer's EngineConfigSpec from a YAML file.
func LoadSpecFile(path string) (*EngineConfigSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var spec EngineConfigSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &spec, nil
}

// LayerFile pairs a layer constant (LayerGlobal..LayerEphemeral) with the
// YAML file backing it.
type LayerFile struct {
	Layer int
	Path  string
}

// Watcher loads a set of layered YAML config files, resolves them through a
// Resolver, and republishes a freshly resolved spec whenever any of the
// backing files changes — so a narrower site override can take effect on a
// long-running crawl without a restart. Every resolved change is appended
// to a VersionedStore for audit/rollback.
type Watcher struct {
	files    []LayerFile
	resolver *Resolver
	store    *VersionedStore
	fsw      *fsnotify.Watcher

	mu         sync.Mutex
	layerSpecs map[int]*EngineConfigSpec
}

// NewWatcher constructs a Watcher over the given layer files, backed by
// store for versioned audit of each resolved change. store may be nil to
// skip audit recording.
func NewWatcher(files []LayerFile, store *VersionedStore) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		files:      files,
		resolver:   NewResolver(),
		store:      store,
		fsw:        fsw,
		layerSpecs: make(map[int]*EngineConfigSpec),
	}
	dirs := map[string]struct{}{}
	for _, lf := range files {
		dirs[filepath.Dir(lf.Path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch dir %s: %w", dir, err)
		}
	}
	return w, nil
}

// LoadAll loads every layer file, resolves them, and records the initial
// version in store (if set), returning the resolved spec.
func (w *Watcher) LoadAll(actor string) (*EngineConfigSpec, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, lf := range w.files {
		spec, err := LoadSpecFile(lf.Path)
		if err != nil {
			return nil, err
		}
		w.layerSpecs[lf.Layer] = spec
	}
	resolved := w.resolver.Resolve(w.layerSpecs)
	if w.store != nil {
		if _, err := w.store.Append(resolved, actor, "initial load", 0); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// Watch streams a freshly resolved EngineConfigSpec each time any tracked
// layer file is written or created, until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, actor string) (<-chan *EngineConfigSpec, <-chan error) {
	out := make(chan *EngineConfigSpec, 1)
	errs := make(chan error, 1)
	byPath := make(map[string]int, len(w.files))
	for _, lf := range w.files {
		byPath[lf.Path] = lf.Layer
	}
	go func() {
		defer close(out)
		defer close(errs)
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				layer, tracked := byPath[ev.Name]
				if !tracked || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				spec, err := LoadSpecFile(ev.Name)
				if err != nil {
					errs <- err
					continue
				}
				w.mu.Lock()
				w.layerSpecs[layer] = spec
				resolved := w.resolver.Resolve(w.layerSpecs)
				w.mu.Unlock()
				if w.store != nil {
					var parent int64
					if head, ok := w.store.Head(); ok {
						parent = head.Version
					}
					diff := fmt.Sprintf("reload: %s layer changed", LayerName(layer))
					if _, err := w.store.Append(resolved, actor, diff, parent); err != nil {
						errs <- err
						continue
					}
				}
				select {
				case out <- resolved:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				errs <- err
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errs
}

// Close stops watching and releases the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
