package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/warelay/internal/agent"
	"github.com/nextlevelbuilder/warelay/internal/cache"
	"github.com/nextlevelbuilder/warelay/internal/channels/whatsapp"
	"github.com/nextlevelbuilder/warelay/internal/config"
	"github.com/nextlevelbuilder/warelay/internal/directory"
	"github.com/nextlevelbuilder/warelay/internal/gateway"
	"github.com/nextlevelbuilder/warelay/internal/store/pg"
	"github.com/nextlevelbuilder/warelay/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook gateway (default command)",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				shutdownTracing(flushCtx)
			}()
		}
	}

	if cfg.Database.PostgresDSN == "" {
		slog.Error("WARELAY_POSTGRES_DSN environment variable is not set")
		os.Exit(1)
	}

	db, err := pg.Open(cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// The agent side depends on the cache; refuse to accept webhooks
	// without it rather than serve half-initialized.
	cacheMgr := cache.NewManager()
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = cacheMgr.Connect(connectCtx, cfg.Redis.URL)
	connectCancel()
	if err != nil {
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer cacheMgr.Close()

	dir := directory.New(pg.NewCustomerStore(db))
	agentClient := agent.NewClient(cfg.Agent.URL, time.Duration(cfg.Agent.TimeoutSeconds)*time.Second)
	sender := whatsapp.NewSender(func() whatsapp.Credentials {
		return whatsapp.Credentials{
			AccountSID:  cfg.Twilio.AccountSID,
			AuthToken:   cfg.Twilio.AuthToken,
			PhoneNumber: cfg.Twilio.PhoneNumber,
		}
	})

	server := gateway.NewServer(cfg, gateway.NewWebhookHandler(dir, agentClient, sender))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("graceful shutdown initiated", "signal", sig)
		cancel()
	}()

	slog.Info("warelay gateway starting",
		"version", Version,
		"agent_url", cfg.Agent.URL,
		"port", cfg.Gateway.Port,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error { return cacheMgr.Watch(gctx, 30*time.Second) })

	if err := g.Wait(); err != nil {
		slog.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}
