package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/elhueso/huesobot/internal/config"
	"github.com/elhueso/huesobot/internal/handler"
	botService "github.com/elhueso/huesobot/internal/service/bot"
	catalogService "github.com/elhueso/huesobot/internal/service/catalog"
	"github.com/elhueso/huesobot/internal/service/keepalive"
	"github.com/elhueso/huesobot/internal/service/order"
	whatsappService "github.com/elhueso/huesobot/internal/service/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Session store backing the conversation state machine.
	store, err := botService.NewStore()
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	// Product catalog. Runs with an empty catalog when DATABASE_URL is
	// not configured.
	products, err := catalogService.NewService(ctx, cfg.Catalog.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize catalog service: %v", err)
	}
	defer products.Close()

	renderer := catalogService.NewRenderer()
	orders := order.NewIssuer(cfg.Order.JWTSecret, cfg.Order.FrontendURL)
	botRouter := botService.NewRouter(store, products, renderer, orders)

	creds, err := whatsappService.NewCredsStore(cfg.Bridge.AuthDir)
	if err != nil {
		log.Fatalf("failed to prepare auth directory: %v", err)
	}

	transport := whatsappService.NewBridgeTransport(cfg.Bridge.URL)
	gateway := whatsappService.NewGateway(transport, botRouter, creds)
	gateway.Start()
	defer gateway.Stop()

	cleaner := whatsappService.NewCleaner(whatsappService.CleanerConfig{
		Dir:          cfg.Bridge.AuthDir,
		Interval:     cfg.AuthClean.Interval,
		MaxPreKeys:   cfg.AuthClean.MaxPreKeys,
		MaxDirSizeMB: cfg.AuthClean.MaxDirSizeMB,
	})
	go cleaner.Run(ctx)

	if pinger := keepalive.New(cfg.KeepAlive.URL, cfg.KeepAlive.Interval); pinger != nil {
		go pinger.Run(ctx)
		log.Printf("keep-alive pinger enabled for %s", cfg.KeepAlive.URL)
	}

	router := handler.NewRouter(cfg, botRouter, products, renderer, gateway, cleaner)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Hueso bot listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
