package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdmirror/pdmirror/internal/config"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdmirror",
	Short: "Telegram bot that mirrors links through aria2 and uploads to Pixeldrain",
	Long: `pdmirror is a Telegram bot that queues downloads in a local aria2 daemon,
reports their progress in chat and uploads finished files to Pixeldrain.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		noRecover, _ := cmd.Flags().GetBool("no-recover")
		settings, err := config.LoadSettings(configPath(cmd))
		if err != nil {
			return err
		}
		return runBot(cmd.Context(), settings, !noRecover)
	},
}

// configPath resolves --config, defaulting to config.toml in the working
// directory.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = "config.toml"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "config.toml", "path to the TOML config file")
	rootCmd.Flags().Bool("no-recover", false, "skip replaying updates missed while offline")
	rootCmd.SetVersionTemplate(fmt.Sprintf("pdmirror version %s (built %s)\n", Version, BuildTime))
}
