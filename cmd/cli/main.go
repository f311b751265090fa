package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dmitrijs2005/panoclone/internal/buildinfo"
	"github.com/dmitrijs2005/panoclone/internal/client/api"
	"github.com/dmitrijs2005/panoclone/internal/client/blob"
	"github.com/dmitrijs2005/panoclone/internal/client/cli"
	"github.com/dmitrijs2005/panoclone/internal/client/config"
	"github.com/dmitrijs2005/panoclone/internal/client/tokens"
	"github.com/dmitrijs2005/panoclone/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "panoclone: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.ClientSecret == "" {
		secret, err := cli.GetSecret(os.Stdout, "Enter client secret")
		if err != nil {
			return fmt.Errorf("read client secret: %w", err)
		}
		cfg.ClientSecret = secret
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cell := tokens.NewCell(tokens.NewTokenSourceProvider(tokenSource(ctx, cfg)))
	client := api.New(cfg.Server, cfg.SkipVerify, cell, log)
	engine := blob.NewUploader(cfg.PartSize, cfg.SkipVerify, log)

	app := cli.NewApp(cfg, client, engine, log)
	return app.Run(ctx)
}

// tokenSource builds a client-credentials token source against the media
// server's oauth2 endpoint.
func tokenSource(ctx context.Context, cfg *config.Config) oauth2.TokenSource {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://%s/Panopto/oauth2/connect/token", cfg.Server),
	}

	if cfg.SkipVerify {
		hc := &http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}

	return cc.TokenSource(ctx)
}
