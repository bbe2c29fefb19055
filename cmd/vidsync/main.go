package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vidsync/catalog"
	"vidsync/config"
	"vidsync/creds"
	"vidsync/storage"
	"vidsync/syncer"
	"vidsync/transport"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidsync",
		Short: "Sync a remote video catalog into a local cache",
		Long: `vidsync pages a remote video catalog into a local cache, enriching
each entry with its detail data, and answers searches local-first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger, err = newLogger(cfg.LogLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}

	root.AddCommand(syncCmd(), searchCmd(), markCmd(), favoriteCmd(), statusCmd())
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// build wires the configured fetcher and store into a syncer. The
// returned cleanup closes both.
func build(ctx context.Context) (*syncer.Syncer, func(), error) {
	provider := creds.Static{
		Key:     cfg.APIKey,
		Catalog: cfg.CatalogID,
		Channel: cfg.ChannelID,
	}

	var store storage.Store
	var err error
	switch cfg.Store {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.PostgresDSN)
	default:
		store, err = storage.NewJSONStore(cfg.StorePath)
	}
	if err != nil {
		return nil, nil, err
	}

	var fetcher catalog.Fetcher
	cleanup := func() { store.Close() }

	switch cfg.Fetcher {
	case "api":
		fetcher, err = catalog.NewAPIFetcher(ctx, provider, catalog.DefaultOptions(), logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	default:
		tcfg := transport.DefaultConfig()
		tcfg.Timeout = cfg.HTTPTimeout
		tcfg.MinRequestInterval = cfg.MinRequestInterval
		tcfg.Retry.MaxRetries = cfg.MaxRetries
		tcfg.Retry.InitialBackoff = cfg.InitialBackoff
		tcfg.Retry.MaxBackoff = cfg.MaxBackoff
		tcfg.Retry.Multiplier = cfg.BackoffMultiplier
		client := transport.New(tcfg)
		fetcher = catalog.NewClient(client, provider, catalog.DefaultOptions(), logger)
		cleanup = func() {
			client.Close()
			store.Close()
		}
	}

	return syncer.New(fetcher, store, cfg.LoadMoreThreshold, logger), cleanup, nil
}

func syncCmd() *cobra.Command {
	var pages int
	var all bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch catalog pages into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, cleanup, err := build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			fetched := 0
			for (all || fetched < pages) && !s.Exhausted() {
				if err := s.FetchNextPage(ctx); err != nil {
					return err
				}
				fetched++
			}

			count, err := s.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d page(s), %d record(s) cached\n", fetched, count)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&all, "all", false, "fetch until the catalog is exhausted")
	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search cached records, falling back to the remote catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := s.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No results")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPUBLISHED\tDURATION\tVIEWS")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.ContentID, r.Title, r.PublishedAt.Format("2006-01-02"),
					r.Duration, r.ViewCount)
			}
			return w.Flush()
		},
	}
}

func markCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <content-id> <seconds>",
		Short: "Save a playback position for a cached record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[1], err)
			}

			s, cleanup, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return s.MarkPosition(cmd.Context(), args[0], seconds)
		},
	}
}

func favoriteCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "favorite <content-id>",
		Short: "Flag or unflag a cached record as a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return s.SetFavorite(cmd.Context(), args[0], !remove)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "unflag instead of flag")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache size and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := s.Count(cmd.Context())
			if err != nil {
				return err
			}

			status := s.Status()
			fmt.Printf("Store:   %s (%s)\n", cfg.Store, storeLocation())
			fmt.Printf("Records: %d\n", count)
			fmt.Printf("State:   %s\n", status.State)
			if status.Reason != "" {
				fmt.Printf("Reason:  %s\n", status.Reason)
			}
			return nil
		},
	}
}

func storeLocation() string {
	if cfg.Store == "postgres" {
		return "postgres"
	}
	return cfg.StorePath
}
