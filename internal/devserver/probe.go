package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/shaharia-lab/coffeebar/internal/metrics"
)

const (
	probeInterval = 15 * time.Second
	probeTimeout  = 3 * time.Second
	probePath     = "/api/status"
)

// backendProbe periodically checks that the proxied backend answers, so a
// missing backend shows up in the dev server log before the UI breaks.
type backendProbe struct {
	url    string
	client *http.Client
	logger *slog.Logger
	cron   gocron.Scheduler

	mu   sync.Mutex
	last *bool
}

func newBackendProbe(target string, client *http.Client, logger *slog.Logger) (*backendProbe, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend target %q is not an absolute URL", target)
	}
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &backendProbe{
		url:    strings.TrimRight(target, "/") + probePath,
		client: client,
		logger: logger.With(slog.String("target", target)),
		cron:   cron,
	}, nil
}

// Start schedules the probe immediately and then every interval.
func (p *backendProbe) Start(interval time.Duration) error {
	_, err := p.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			p.check(context.Background())
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling backend probe: %w", err)
	}
	p.cron.Start()
	return nil
}

// Stop shuts down the scheduler.
func (p *backendProbe) Stop() error {
	return p.cron.Shutdown()
}

// check probes the backend once and reports whether it answered. Server
// errors count as down; any other response means the backend is reachable.
func (p *backendProbe) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	up := false
	var probeErr error
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err == nil {
		var resp *http.Response
		resp, err = p.client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			up = resp.StatusCode < http.StatusInternalServerError
			if !up {
				probeErr = fmt.Errorf("status %d", resp.StatusCode)
			}
		}
	}
	if err != nil {
		probeErr = err
	}

	metrics.SetBackendUp(up)
	p.record(up, probeErr)
	return up
}

// record logs state transitions only.
func (p *backendProbe) record(up bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil && *p.last == up {
		return
	}
	p.last = &up
	if up {
		p.logger.Info("backend reachable", "url", p.url)
		return
	}
	p.logger.Warn("backend unreachable, /api requests will fail", "url", p.url, "error", err)
}
