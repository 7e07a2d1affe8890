package config

import (
	"flag"
	"os"
	"time"

	"github.com/weavesync/weavesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   base URL of the storage server (default from Config)
//	-n string   collection name (default from Config)
//	-t string   bearer token for storage requests
//	-d string   path of the local database file
//	-i int      sync interval in seconds (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-n", "-t", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the storage server")
	fs.StringVar(&cfg.Collection, "n", cfg.Collection, "collection name")
	fs.StringVar(&cfg.AuthToken, "t", cfg.AuthToken, "bearer token for storage requests")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database file")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
