package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/panoclone/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-server string         media server FQDN
//	-destination string    ID of the remote destination folder
//	-source string         path of the local source folder
//	-client-id string      OAuth2 client ID
//	-client-secret string  OAuth2 client secret (prompted for when empty)
//	-skip-verify           skip TLS certificate verification
//	-concurrency int       number of parallel uploads (default from Config)
//	-part-size int         multipart part size in MiB
//	-poll-interval int     processing poll interval in seconds
//	-clean                 remove local caches before the run
//	-work-dir string       directory for caches and generated manifests
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-server", "-destination", "-source", "-client-id", "-client-secret",
		"-skip-verify", "-concurrency", "-part-size", "-poll-interval",
		"-clean", "-work-dir",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Server, "server", cfg.Server, "media server FQDN")
	fs.StringVar(&cfg.DestinationID, "destination", cfg.DestinationID, "ID of the remote destination folder")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "path of the local source folder")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "OAuth2 client ID")
	fs.StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "OAuth2 client secret")
	fs.BoolVar(&cfg.SkipVerify, "skip-verify", cfg.SkipVerify, "skip TLS certificate verification (never use in production)")
	fs.IntVar(&cfg.MaxConcurrency, "concurrency", cfg.MaxConcurrency, "number of parallel uploads")
	partSize := fs.Int64("part-size", cfg.PartSize/(1024*1024), "multipart part size in MiB")
	pollInterval := fs.Int("poll-interval", int(cfg.PollInterval.Seconds()), "processing poll interval (in seconds)")
	fs.BoolVar(&cfg.Clean, "clean", cfg.Clean, "remove local caches before the run")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "directory for caches and generated manifests")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PartSize = *partSize * 1024 * 1024
	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
