// Package devserver runs the local frontend development server described by
// config.DevServerConfig: it serves the UI assets through the configured
// framework plugins and reverse proxies the configured path prefixes to the
// backend.
package devserver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shaharia-lab/coffeebar/internal/config"
)

// Options configures where assets come from.
type Options struct {
	// Assets is the frontend filesystem, e.g. the embedded dist directory.
	// Ignored when Dir is set.
	Assets fs.FS

	// Dir serves assets from disk and enables live reload.
	Dir string

	// Transport is used for proxied requests. Defaults to an
	// OpenTelemetry-instrumented http.DefaultTransport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Server is the frontend dev server.
type Server struct {
	cfg        *config.DevServerConfig
	assets     fs.FS
	logger     *slog.Logger
	proxies    proxyTable
	reload     *liveReload
	probe      *backendProbe
	httpServer *http.Server
}

// New creates a dev server for cfg. It fails when cfg names an unknown
// plugin or no assets are provided. Proxy targets are not validated here.
func New(cfg *config.DevServerConfig, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	assets := opts.Assets
	var reload *liveReload
	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("frontend directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("frontend directory %s is not a directory", opts.Dir)
		}
		assets = os.DirFS(opts.Dir)
		reload = newLiveReload(opts.Dir, logger)
	}
	if assets == nil {
		return nil, fmt.Errorf("no frontend assets: set a directory or embed the build")
	}

	pluginList, err := resolvePlugins(cfg.Plugins)
	if err != nil {
		return nil, fmt.Errorf("resolving plugins: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	s := &Server{
		cfg:     cfg,
		assets:  assets,
		logger:  logger,
		proxies: newProxyTable(cfg.Server.Proxy, transport, logger),
		reload:  reload,
	}

	if target := cfg.APITarget(); target != "" {
		probe, err := newBackendProbe(target, &http.Client{Transport: transport}, logger)
		if err != nil {
			logger.Warn("backend probe disabled", "error", err)
		} else {
			s.probe = probe
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)

	r.Get("/@health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/@metrics", promhttp.Handler())
	if reload != nil {
		r.Get(liveReloadPath, reload.ServeHTTP)
	}

	static := s.staticHandler()
	static = applyPlugins(pluginList, assets, static)
	r.Handle("/*", s.dispatch(static))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the dev server and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if s.reload != nil {
		if err := s.reload.Watch(ctx); err != nil {
			return fmt.Errorf("starting live reload: %w", err)
		}
	}
	if s.probe != nil {
		if err := s.probe.Start(probeInterval); err != nil {
			return err
		}
		defer func() {
			if err := s.probe.Stop(); err != nil {
				s.logger.Warn("stopping backend probe", "error", err)
			}
		}()
	}

	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("dev server listening",
		"addr", ln.Addr().String(),
		"plugins", s.cfg.Plugins,
		"api_target", s.cfg.APITarget(),
	)

	// Event streams never go idle; tie them to ctx so Shutdown can finish.
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down dev server")
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// dispatch sends proxied prefixes to their backend and everything else to static.
func (s *Server) dispatch(static http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route, ok := s.proxies.match(r.URL.Path); ok {
			route.handler.ServeHTTP(w, r)
			return
		}
		static.ServeHTTP(w, r)
	})
}

func (s *Server) staticHandler() http.Handler {
	fileServer := noDirListing(s.assets, http.FileServer(http.FS(s.assets)))
	if s.reload == nil {
		return fileServer
	}
	return s.reload.injectScript(s.assets, fileServer)
}

// requestLogger is a chi middleware that logs each incoming request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
