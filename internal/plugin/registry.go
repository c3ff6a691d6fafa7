// Package plugin discovers questionnaire plugins from a manifest directory
// and keeps an in-memory registry of the ones that parse and validate.
package plugin

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gzfs/greenlit/internal/models"
	"github.com/gzfs/greenlit/internal/services"
)

const manifestName = "manifest.json"

// Registry holds the set of available plugins. Plugins arrive either through
// Register (compiled-in registration at startup) or LoadDir (manifest files
// on disk). A malformed manifest is logged and skipped; it never poisons the
// rest of the registry.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]models.QuestionPlugin

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		plugins: make(map[string]models.QuestionPlugin),
		logger:  logger,
	}
}

// Register adds a plugin to the registry after validating its manifest.
// Re-registering an ID replaces the previous entry.
func (r *Registry) Register(p models.QuestionPlugin) error {
	if violations := services.ValidatePlugin(&p); len(violations) > 0 {
		return services.NewInvalidError(strings.Join(violations, "; "))
	}
	r.mu.Lock()
	r.plugins[p.ID] = p
	r.mu.Unlock()
	return nil
}

// Get returns the plugin with the given ID.
func (r *Registry) Get(id string) (models.QuestionPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns all registered plugins ordered by ID.
func (r *Registry) List() []models.QuestionPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.QuestionPlugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDir scans dir for <name>/manifest.json files and registers each valid
// plugin. Missing directories are not an error: a deployment without plugins
// is a normal state. The count of loaded plugins is returned.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("plugin directory absent, skipping", "dir", dir)
			return 0, nil
		}
		return 0, err
	}

	loaded := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name(), manifestName)
		p, err := readManifest(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			r.logger.Error("skipping malformed plugin manifest", "path", path, "error", err)
			continue
		}
		if err := r.Register(p); err != nil {
			r.logger.Error("skipping invalid plugin manifest", "path", path, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

func readManifest(path string) (models.QuestionPlugin, error) {
	var p models.QuestionPlugin
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	return p, nil
}

// Watch rescans the plugin directory whenever a manifest changes under it.
// Events are debounced so an editor writing a manifest in several steps
// triggers one rescan, not many. Blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return err
	}
	// Watch existing plugin subdirectories too; fsnotify is not recursive.
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				if err := fsw.Add(filepath.Join(dir, e.Name())); err != nil {
					r.logger.Warn("failed to watch plugin directory", "path", filepath.Join(dir, e.Name()), "error", err)
				}
			}
		}
	}

	r.logger.Info("plugin watcher started", "dir", dir, "debounce", debounce)

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						r.logger.Warn("failed to watch new plugin directory", "path", event.Name, "error", err)
					}
					dirty = true
					continue
				}
			}
			if filepath.Base(event.Name) == manifestName {
				dirty = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("plugin watcher error", "error", err)

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			r.rescan(dir)
		}
	}
}

// rescan rebuilds the registry from the directory contents so removed
// manifests disappear from the listing.
func (r *Registry) rescan(dir string) {
	fresh := NewRegistry(r.logger)
	n, err := fresh.LoadDir(dir)
	if err != nil {
		r.logger.Error("plugin rescan failed", "dir", dir, "error", err)
		return
	}
	r.mu.Lock()
	r.plugins = fresh.plugins
	r.mu.Unlock()
	r.logger.Info("plugin registry reloaded", "dir", dir, "plugins", n)
}
