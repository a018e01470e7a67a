package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shaharia-lab/coffeebar/internal/config"
	"github.com/shaharia-lab/coffeebar/internal/metrics"
)

// proxyRoute forwards requests whose path starts with prefix.
type proxyRoute struct {
	prefix  string
	rule    config.ProxyRule
	handler http.Handler
}

// proxyTable holds proxy routes ordered longest prefix first so the most
// specific rule wins.
type proxyTable []proxyRoute

func newProxyTable(rules map[string]config.ProxyRule, transport http.RoundTripper, logger *slog.Logger) proxyTable {
	table := make(proxyTable, 0, len(rules))
	for prefix, rule := range rules {
		table = append(table, proxyRoute{
			prefix:  prefix,
			rule:    rule,
			handler: newProxyHandler(prefix, rule, transport, logger),
		})
	}
	sort.Slice(table, func(i, j int) bool {
		if len(table[i].prefix) != len(table[j].prefix) {
			return len(table[i].prefix) > len(table[j].prefix)
		}
		return table[i].prefix < table[j].prefix
	})
	return table
}

// match returns the route for path. Matching is a plain string prefix test,
// so "/api" also matches "/apiary".
func (t proxyTable) match(path string) (proxyRoute, bool) {
	for _, route := range t {
		if strings.HasPrefix(path, route.prefix) {
			return route, true
		}
	}
	return proxyRoute{}, false
}

// newProxyHandler builds the reverse proxy for one rule. The target is not
// validated up front: an unparseable target yields a handler that fails every
// request with 502, and an unusable one fails inside the transport.
func newProxyHandler(prefix string, rule config.ProxyRule, transport http.RoundTripper, logger *slog.Logger) http.Handler {
	logger = logger.With(slog.String("prefix", prefix), slog.String("target", rule.Target))

	target, err := url.Parse(rule.Target)
	if err != nil {
		logger.Warn("proxy target is not a valid URL, matching requests will fail", "error", err)
		return observeProxy(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Error("proxy request failed", "path", r.URL.Path, "error", err)
			writeProxyError(w, fmt.Sprintf("invalid proxy target %q", rule.Target))
		}))
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if rule.ChangeOrigin {
				if pr.In.Header.Get("Origin") != "" {
					pr.Out.Header.Set("Origin", target.Scheme+"://"+target.Host)
				}
				return
			}
			pr.Out.Host = pr.In.Host
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("proxy request failed", "path", r.URL.Path, "error", err)
			writeProxyError(w, fmt.Sprintf("backend %s unavailable", rule.Target))
		},
	}
	return observeProxy(prefix, rp)
}

func observeProxy(prefix string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		metrics.ObserveProxy(prefix, ww.Status(), time.Since(start))
	})
}

func writeProxyError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
