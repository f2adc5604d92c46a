package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/assets"
	"github.com/alphadocs/alphadocs/internal/cachedb"
	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/fetch"
	"github.com/alphadocs/alphadocs/internal/logger"
	"github.com/alphadocs/alphadocs/internal/pages"
	"github.com/alphadocs/alphadocs/internal/router"
	"github.com/alphadocs/alphadocs/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [route]",
	Short: "Run the headless client against a backend and render one route",
	Long: `Boots the client core (resource loader, article store, router,
pages) against the configured backend, navigates to the given route
(default /about) and prints the rendered HTML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
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
		api := fetch.NewAPI(cfg.APIBaseURL, client)

		cache, err := cachedb.Open(filepath.Join(cfg.DataDir, "client-cache.db"))
		if err != nil {
			return fmt.Errorf("opening client cache: %w", err)
		}
		defer cache.Close()

		base := cfg.CDNBaseURL
		if base == "" {
			base = cfg.APIBaseURL
		}

		// Shell boot: manifest plus the resources it lists. A failure is
		// degraded rather than fatal; the shell is revealed regardless.
		shell := &assets.ShellRecorder{}
		loader := assets.NewLoader(client, base, shell, log)
		if err := loader.Boot(ctx, "index"); err != nil {
			log.Warn("shell resources incomplete", zap.Error(err))
		}

		st := store.New(client, cache, store.Options{
			CDNBase:           base,
			IndexTTL:          cfg.IndexTTL(),
			ContentCacheLimit: cfg.ContentCacheLimit,
		}, log)

		mount := &router.BufferMount{}
		chrome := &router.ShellChrome{}
		r := router.New(st, mount, chrome, api, router.Options{
			Transition: cfg.TransitionDuration(),
		}, log)

		if err := pages.New(st, api, log).RegisterAll(r); err != nil {
			return fmt.Errorf("registering pages: %w", err)
		}

		route := "/about"
		if len(args) == 1 {
			route = args[0]
		}
		if err := r.Navigate(ctx, route, router.NavOptions{}); err != nil {
			return fmt.Errorf("navigating to %s: %w", route, err)
		}
		r.Flush()

		fmt.Println(mount.HTML())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
