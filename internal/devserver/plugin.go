package devserver

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/shaharia-lab/coffeebar/internal/config"
)

// Plugin adapts static asset serving to a frontend framework.
type Plugin interface {
	// Name is the identifier used in DevServerConfig.Plugins.
	Name() string

	// Wrap returns a handler that applies the framework's behavior in front
	// of next, which serves files from assets.
	Wrap(assets fs.FS, next http.Handler) http.Handler
}

var plugins = map[string]func() Plugin{
	config.VuePlugin: func() Plugin { return vuePlugin{} },
}

// resolvePlugins maps plugin names to implementations, keeping their order.
func resolvePlugins(names []string) ([]Plugin, error) {
	out := make([]Plugin, 0, len(names))
	for _, name := range names {
		newPlugin, ok := plugins[name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", name)
		}
		out = append(out, newPlugin())
	}
	return out, nil
}

// applyPlugins wraps h so that the first plugin sees the request first.
func applyPlugins(list []Plugin, assets fs.FS, h http.Handler) http.Handler {
	for i := len(list) - 1; i >= 0; i-- {
		h = list[i].Wrap(assets, h)
	}
	return h
}

// vuePlugin serves index.html for client-side routes of a history-mode
// single page app.
type vuePlugin struct{}

func (vuePlugin) Name() string { return config.VuePlugin }

func (vuePlugin) Wrap(assets fs.FS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isHistoryRoute(assets, r) {
			r2 := r.Clone(r.Context())
			r2.URL.Path = "/"
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isHistoryRoute reports whether r is a browser navigation to a path that is
// not a file in assets. Directories without an index.html count as routes.
func isHistoryRoute(assets fs.FS, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if path.Ext(r.URL.Path) != "" {
		return false
	}
	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "text/html") && !strings.Contains(accept, "*/*") {
		return false
	}
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		return false
	}
	info, err := fs.Stat(assets, name)
	if err != nil {
		return true
	}
	return info.IsDir() && !hasIndex(assets, name)
}

// hasIndex reports whether dir holds an index.html.
func hasIndex(assets fs.FS, dir string) bool {
	_, err := fs.Stat(assets, path.Join(dir, "index.html"))
	return err == nil
}

// noDirListing answers 404 for directories without an index.html instead of
// letting next list their contents.
func noDirListing(assets fs.FS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if info, err := fs.Stat(assets, name); err == nil && info.IsDir() && !hasIndex(assets, name) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
