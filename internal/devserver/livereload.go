package devserver

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shaharia-lab/coffeebar/internal/metrics"
)

const (
	liveReloadPath     = "/@livereload"
	liveReloadDebounce = 200 * time.Millisecond
)

var liveReloadScript = []byte(`<script>new EventSource("` + liveReloadPath +
	`").addEventListener("reload",()=>location.reload())</script>`)

// liveReload watches a directory and tells connected browsers to reload
// when anything in it changes.
type liveReload struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[chan struct{}]struct{}
}

func newLiveReload(dir string, logger *slog.Logger) *liveReload {
	return &liveReload{
		dir:      dir,
		debounce: liveReloadDebounce,
		logger:   logger,
		clients:  make(map[chan struct{}]struct{}),
	}
}

// Watch registers the directory tree with fsnotify and starts the event loop.
// The loop stops when ctx is canceled.
func (l *liveReload) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	err = filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	l.logger.Info("watching frontend assets", "dir", l.dir)
	go l.watchLoop(ctx, watcher)
	return nil
}

func (l *liveReload) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						l.logger.Warn("cannot watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			l.logger.Debug("frontend asset changed", "path", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(l.debounce, l.broadcast)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("asset watcher error", "error", err)
		}
	}
}

// subscribe registers a client. The returned func unregisters it.
func (l *liveReload) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	l.clients[ch] = struct{}{}
	n := len(l.clients)
	l.mu.Unlock()
	metrics.LiveReloadClients.Set(float64(n))

	return ch, func() {
		l.mu.Lock()
		delete(l.clients, ch)
		n := len(l.clients)
		l.mu.Unlock()
		metrics.LiveReloadClients.Set(float64(n))
	}
}

// broadcast signals every client without blocking; a client that has not
// consumed the previous signal already has a reload pending.
func (l *liveReload) broadcast() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	l.logger.Info("live reload triggered", "clients", len(l.clients))
}

// ServeHTTP streams reload events to a browser as server-sent events.
func (l *liveReload) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, unsubscribe := l.subscribe()
	defer unsubscribe()

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprint(w, "event: reload\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}

// injectScript serves HTML documents from assets with the live reload client
// appended to the body. Everything else is passed to next.
func (l *liveReload) injectScript(assets fs.FS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		if path.Ext(name) != ".html" {
			next.ServeHTTP(w, r)
			return
		}

		page, err := fs.ReadFile(assets, name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(withScript(page))
		}
	})
}

func withScript(page []byte) []byte {
	i := bytes.LastIndex(page, []byte("</body>"))
	if i < 0 {
		return append(append([]byte{}, page...), liveReloadScript...)
	}
	out := make([]byte, 0, len(page)+len(liveReloadScript))
	out = append(out, page[:i]...)
	out = append(out, liveReloadScript...)
	return append(out, page[i:]...)
}
