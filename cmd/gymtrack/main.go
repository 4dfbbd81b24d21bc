package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/meltforce/gymtrack/internal/config"
	"github.com/meltforce/gymtrack/internal/gateway"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/mcp"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/server"
	"github.com/meltforce/gymtrack/internal/session"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/syncqueue"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	logOut := os.Stdout
	if *mcpMode {
		// stdout carries the MCP protocol in stdio mode.
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("GymTrack starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := storage.RunMigrations(cfg.Storage.Path, cfg.Storage.MigrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Open local database
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database opened", "path", cfg.Storage.Path)

	// Wire components
	remote := gateway.New(cfg.Remote.Endpoint, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second)
	plans := planstore.New(db, remote, log)
	resolver := history.New(db, remote, log)
	queue := syncqueue.New(db, remote, cfg.Sync.MaxAttempts, log)
	recorder := session.New(db, plans, resolver, remote, queue,
		session.Limits{MinWeight: cfg.Limits.MinWeight, MaxWeight: cfg.Limits.MaxWeight},
		time.Duration(cfg.Session.AutosaveDelaySeconds)*time.Second, log)

	if *mcpMode {
		mcpSrv := mcp.New(plans, db, resolver, queue, Version, log)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Connectivity monitor flushes the sync queue on offline->online
	// transitions.
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	monitor := syncqueue.NewMonitor(queue, remote,
		time.Duration(cfg.Sync.PingIntervalSeconds)*time.Second, log)
	go monitor.Run(monitorCtx)

	srv := server.New(plans, recorder, resolver, queue, monitor, remote, Version, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stopMonitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
