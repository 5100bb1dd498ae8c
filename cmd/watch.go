package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/config"
	"github.com/pdmirror/pdmirror/internal/tui"
	"github.com/pdmirror/pdmirror/internal/utils"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a terminal dashboard of active aria2 downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.ReadSettings(configPath(cmd))
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		// The dashboard owns the terminal; keep log records out of it.
		if err := config.EnsureDirs(); err != nil {
			utils.SetOutput(io.Discard)
		} else {
			utils.ConfigureFileOnly(config.GetLogsDir())
		}

		tui.ApplyTheme(settings.General.Theme)
		client := aria2.NewClient(settings.Aria2.Endpoint, settings.Aria2.Secret)
		m := tui.InitialRootModel(client, tui.Options{
			Endpoint:    settings.Aria2.Endpoint,
			DownloadDir: settings.DownloadPath(),
			Interval:    interval,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", tui.TickInterval, "refresh interval")
	rootCmd.AddCommand(watchCmd)
}
