package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/db"
	"github.com/alphadocs/alphadocs/internal/logger"
	"github.com/alphadocs/alphadocs/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backend API and static site server",
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

		dbPath := filepath.Join(cfg.DataDir, "alphadocs.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := applyConfigFlags(cmd.Context(), cfg, database); err != nil {
			return err
		}

		srv := server.New(cfg, database, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		log.Info("starting alphadocs",
			zap.String("version", Version),
			zap.Int("port", cfg.Port),
			zap.String("database", dbPath),
			zap.String("content", cfg.ContentDir))

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// applyConfigFlags pushes the auto-approval switches from the config
// file into the site configuration. Only enabled flags are written, so
// admin-console changes survive restarts unless the file forces them on.
func applyConfigFlags(ctx context.Context, cfg *config.Config, database *db.DB) error {
	flags := map[string]bool{
		db.ConfigAutoApproveUsers:    cfg.AutoApproveUsers,
		db.ConfigAutoApproveComments: cfg.AutoApproveComments,
	}
	for key, enabled := range flags {
		if !enabled {
			continue
		}
		if err := database.SetConfig(ctx, key, "true"); err != nil {
			return fmt.Errorf("seeding site config %s: %w", key, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
