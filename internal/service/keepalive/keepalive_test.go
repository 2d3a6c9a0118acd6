package keepalive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elhueso/huesobot/internal/service/keepalive"
)

func TestNewDisabledWithoutURL(t *testing.T) {
	if p := keepalive.New("", time.Minute); p != nil {
		t.Fatal("expected nil pinger for empty url")
	}
}

func TestRunPingsTarget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := keepalive.New(srv.URL+"/ping", 10*time.Millisecond)
	if p == nil {
		t.Fatal("expected a pinger")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if hits.Load() < 2 {
		t.Fatalf("expected at least 2 pings, got %d", hits.Load())
	}
}
