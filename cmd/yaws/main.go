// yaws connects to a WebSocket endpoint and keeps the connection alive,
// reconnecting on a fixed delay whenever it drops. Lines read from stdin
// are sent to the endpoint; received payloads are logged with --verbose.
// Usage: yaws --config configs/yaws.example.yaml
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vinerima/yaws/internal/config"
	"github.com/vinerima/yaws/internal/database"
	"github.com/vinerima/yaws/internal/journal"
	"github.com/vinerima/yaws/internal/manager"
	"github.com/vinerima/yaws/internal/transport"
	"github.com/vinerima/yaws/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/yaws.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "log received payloads")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting yaws",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"address", cfg.Endpoint.Address,
		"reconnect_delay", cfg.Endpoint.ReconnectDelay,
		"heartbeat_period", cfg.Endpoint.HeartbeatPeriod,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional lifecycle journal
	var jnl *journal.Journal
	if cfg.Database.Postgres.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		jnl = journal.New(cfg.Journal, pool, logger)
		if err := jnl.Start(ctx); err != nil {
			logger.Error("failed to start journal", "error", err)
			os.Exit(1)
		}
	}

	record := func(event, detail string) {
		if jnl == nil {
			return
		}
		jnl.Record(journal.Entry{
			Instance: cfg.Instance.ID,
			Address:  cfg.Endpoint.Address,
			Event:    event,
			Detail:   detail,
		})
	}

	hooks := manager.Hooks{
		Opened: func() {
			record(journal.EventOpen, "")
		},
		MessageReceived: func(payload []byte) {
			if *verbose {
				logger.Info("message received", "bytes", len(payload), "payload", string(payload))
			}
		},
		Errored: func(err error) {
			record(journal.EventError, err.Error())
		},
		Closed: func() {
			record(journal.EventClosed, "")
		},
	}

	dialer := transport.NewWSDialer(transport.Config{
		HandshakeTimeout: cfg.Endpoint.HandshakeTimeout,
		WriteTimeout:     cfg.Endpoint.WriteTimeout,
		EventBuffer:      cfg.Endpoint.EventBuffer,
	}, logger)

	mgr := manager.New(manager.Config{
		Address:         cfg.Endpoint.Address,
		ReconnectDelay:  cfg.Endpoint.ReconnectDelay,
		HeartbeatPeriod: cfg.Endpoint.HeartbeatPeriod,
	}, dialer, hooks, logger)
	record(journal.EventConnecting, "")

	g, gctx := errgroup.WithContext(ctx)

	// Periodic stats report
	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := mgr.Stats()
				logger.Info("connection stats",
					"state", s.State,
					"connects", s.Connects,
					"disconnects", s.Disconnects,
					"probes_sent", s.ProbesSent,
					"messages_received", s.MessagesReceived,
					"messages_sent", s.MessagesSent,
					"messages_dropped", s.MessagesDropped,
				)
			}
		}
	})

	// Forward stdin lines to the endpoint, best effort. Runs outside the
	// group: a blocked stdin read has no way to be cancelled.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			mgr.Send(append([]byte(nil), scanner.Bytes()...))
		}
	}()

	<-ctx.Done()
	g.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := mgr.Stop(stopCtx); err != nil {
		logger.Warn("manager stop", "error", err)
	}
	if jnl != nil {
		if err := jnl.Stop(stopCtx); err != nil {
			logger.Warn("journal stop", "error", err)
		}
	}

	logger.Info("yaws stopped")
}
