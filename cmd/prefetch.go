package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/alphadocs/alphadocs/internal/cachedb"
	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/fetch"
	"github.com/alphadocs/alphadocs/internal/logger"
	"github.com/alphadocs/alphadocs/internal/store"
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Warm the client content cache with every indexed document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err := logger.New(!cfg.IsDev())
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()

		client := fetch.NewClient(fetch.ClientOptions{
			Timeout:   15 * time.Second,
			UserAgent: "alphadocs/" + Version,
		})
		cache, err := cachedb.Open(filepath.Join(cfg.DataDir, "client-cache.db"))
		if err != nil {
			return fmt.Errorf("opening client cache: %w", err)
		}
		defer cache.Close()

		base := cfg.CDNBaseURL
		if base == "" {
			base = cfg.APIBaseURL
		}
		st := store.New(client, cache, store.Options{
			CDNBase:           base,
			IndexTTL:          cfg.IndexTTL(),
			ContentCacheLimit: cfg.ContentCacheLimit,
		}, log)

		snap, err := st.EnsureIndex(ctx)
		if err != nil {
			return fmt.Errorf("loading article index: %w", err)
		}

		bar := progressbar.NewOptions(len(snap.List),
			progressbar.OptionSetDescription("Prefetching documents"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		var failed int
		for _, article := range snap.List {
			bar.Describe(article.Slug)
			if _, err := st.GetContent(ctx, article.Slug); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "  %s: %v\n", article.Slug, err)
			}
			bar.Add(1)
		}
		bar.Finish()

		fmt.Printf("Prefetched %d documents (%d failed).\n", len(snap.List)-failed, failed)
		if failed > 0 {
			return fmt.Errorf("%d documents failed to prefetch", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefetchCmd)
}
