package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "alphadocs",
	Short: "Personal documentation site: backend API and headless client",
	Long: `Alpha Docs serves a personal docs/blog site. The serve command runs
the backend API (stats, comments, auth, moderation) plus the static
site; run drives the headless client core against a backend; the rest
are operational helpers.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "alphadocs.yml", "config file path")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
