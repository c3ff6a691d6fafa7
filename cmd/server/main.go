package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gzfs/greenlit/internal/api"
	"github.com/gzfs/greenlit/internal/classify"
	"github.com/gzfs/greenlit/internal/db"
	"github.com/gzfs/greenlit/internal/metrics"
	"github.com/gzfs/greenlit/internal/middleware"
	"github.com/gzfs/greenlit/internal/plugin"
	"github.com/gzfs/greenlit/internal/utils"
)

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	setupLogger(utils.SafeEnv("GREENLIT_LOG_FORMAT", "text"))

	addr := utils.SafeEnv("GREENLIT_ADDR", ":8080")
	classifierURL := utils.SafeEnv("GREENLIT_CLASSIFIER_URL", "http://localhost:8000")
	pluginDir := utils.SafeEnv("GREENLIT_PLUGIN_DIR", "plugins")
	sqlitePath := os.Getenv("GREENLIT_SQLITE_PATH")
	commit := os.Getenv("GREENLIT_COMMIT")
	buildTime := os.Getenv("GREENLIT_BUILD_TIME")

	var store api.Store
	if sqlitePath != "" {
		conn, err := db.Open(sqlitePath, os.Getenv("GREENLIT_MIGRATIONS_DIR"))
		if err != nil {
			slog.Error("failed to open sqlite database", "path", sqlitePath, "error", err)
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()
		store, err = db.NewStore(conn)
		if err != nil {
			slog.Error("failed to init sqlite store", "error", err)
			os.Exit(1)
		}
		slog.Info("using sqlite store", "path", sqlitePath)
	} else {
		store = api.NewMemoryStore()
		slog.Warn("GREENLIT_SQLITE_PATH not set, using in-memory store")
	}

	registry := plugin.NewRegistry(slog.Default())
	if n, err := registry.LoadDir(pluginDir); err != nil {
		slog.Error("failed to load plugins", "dir", pluginDir, "error", err)
		os.Exit(1)
	} else {
		slog.Info("plugins loaded", "dir", pluginDir, "count", n)
	}
	if os.Getenv("GREENLIT_PLUGIN_WATCH") != "" {
		go func() {
			if err := registry.Watch(context.Background(), pluginDir, 250*time.Millisecond); err != nil && err != context.Canceled {
				slog.Error("plugin watcher stopped", "error", err)
			}
		}()
	}

	backend := classify.NewClient(classifierURL)

	mux := http.NewServeMux()
	api.NewRouter(store, registry, backend, backend).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Greenlit API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.Handle("/metrics", metrics.Handler())

	// Serve the built dashboard when running as a fullstack image.
	if staticDir := os.Getenv("GREENLIT_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.NoStore(middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(metrics.Instrument(mux)))))

	slog.Info("greenlit server listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
