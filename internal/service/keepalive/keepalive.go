// Package keepalive pings the service's own public URL so free-tier hosts
// do not idle the process out.
package keepalive

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger issues a periodic GET against a target URL.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// New returns a Pinger, or nil when url is empty (keep-alive disabled).
func New(url string, interval time.Duration) *Pinger {
	if url == "" {
		return nil
	}
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run pings on every interval tick until ctx ends.
func (p *Pinger) Run(ctx context.Context) {
	log.Printf("[keepalive] pinging %s every %s", p.url, p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		log.Printf("[keepalive] bad url: %v", err)
		return
	}

	res, err := p.client.Do(req)
	if err != nil {
		log.Printf("[keepalive] ping failed: %v", err)
		return
	}
	res.Body.Close()
}
