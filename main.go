// Copyright 2026 FoodBlock Protocol
//
// foodblock - reference server entry point
// Command foodblock runs the FoodBlock reference server: HTTP surface,
// DB-backed store, event bus, and federation, wired from environment
// configuration. Lifecycle is background start plus signal-driven
// graceful shutdown.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/config"
	"github.com/foodxdevelopment/foodblock/internal/envelope"
	"github.com/foodxdevelopment/foodblock/internal/eventbus"
	"github.com/foodxdevelopment/foodblock/internal/httpapi"
	"github.com/foodxdevelopment/foodblock/internal/logging"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

func main() {
	logger := logging.New("Main", logging.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load configuration: %v", err)
		os.Exit(1)
	}
	logger = logging.New("Main", logging.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		logger.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	client, err := store.NewClient(cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("connect to database: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := client.MigrateUp(startupCtx); err != nil {
		startupCancel()
		logger.Errorf("run migrations: %v", err)
		os.Exit(1)
	}
	startupCancel()

	repos := store.NewRepositories(client)

	registry := eventbus.NewRegistry()
	broker := eventbus.NewBroker()
	listener := eventbus.NewListener(cfg.DatabaseURL, registry, broker)

	signingPub, signingKey := serverSigningIdentity(cfg, logger)
	encPub, encPriv := serverEncryptionIdentity(logger)

	srv := httpapi.NewServer(httpapi.Deps{
		Config:     cfg,
		Repos:      repos,
		Broker:     broker,
		SigningPub: signingPub,
		SigningKey: signingKey,
		EncPub:     encPub,
		EncPriv:    encPriv,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Routes(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	listener.Start(ctx)

	go func() {
		logger.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down")
	cancel()
	listener.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http server shutdown: %v", err)
	}

	logger.Infof("stopped")
}

// serverSigningIdentity loads the Ed25519 identity from FEDERATION_*
// config, generating and WARN-logging an ephemeral one when absent
// (§6.5).
func serverSigningIdentity(cfg *config.Config, logger *logging.Logger) (ed25519.PublicKey, ed25519.PrivateKey) {
	if cfg.FederationPublicKey != "" && cfg.FederationPrivateKey != "" {
		pubBytes, pubErr := hex.DecodeString(cfg.FederationPublicKey)
		privBytes, privErr := hex.DecodeString(cfg.FederationPrivateKey)
		if pubErr == nil && privErr == nil {
			return ed25519.PublicKey(pubBytes), ed25519.PrivateKey(privBytes)
		}
		logger.Warnf("decode FEDERATION_PUBLIC_KEY/FEDERATION_PRIVATE_KEY: falling back to an ephemeral identity")
	}
	logger.Warnf("no FEDERATION_PUBLIC_KEY/FEDERATION_PRIVATE_KEY configured; generating an ephemeral signing identity")
	genPub, genPriv, err := block.GenerateSigningKeypair()
	if err != nil {
		logger.Errorf("generate signing identity: %v", err)
		os.Exit(1)
	}
	return genPub, genPriv
}

// serverEncryptionIdentity generates this process's X25519 identity for
// envelope decryption. Unlike the signing identity it is not configured
// from the environment: a server only needs to decrypt envelopes
// addressed to it by key_hash, which recipients learn from discovery.
func serverEncryptionIdentity(logger *logging.Logger) (pub, priv [32]byte) {
	pub, priv, err := envelope.GenerateKeypair()
	if err != nil {
		logger.Errorf("generate encryption identity: %v", err)
		os.Exit(1)
	}
	return pub, priv
}
