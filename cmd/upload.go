package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/pdmirror/pdmirror/internal/config"
	"github.com/pdmirror/pdmirror/internal/upload"
)

// cliProgressInterval keeps the terminal bar smooth; chat updates use the
// much longer upload.DefaultInterval.
const cliProgressInterval = 250 * time.Millisecond

var uploadCmd = &cobra.Command{
	Use:     "upload <path>",
	Aliases: []string{"pd"},
	Short:   "Upload a local file to Pixeldrain",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.ReadSettings(configPath(cmd))
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		quiet, _ := cmd.Flags().GetBool("quiet")

		progressOut := cmd.ErrOrStderr()
		if quiet {
			progressOut = io.Discard
		}

		client := upload.NewClient(settings.General.PixeldrainURL, settings.General.PixeldrainAPIKey)
		res, err := uploadFile(cmd.Context(), client, args[0], name, progressOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.URL)
		return nil
	},
}

// uploadFile sends path to c while drawing a progress bar on progressOut.
func uploadFile(ctx context.Context, c *upload.Client, path, name string, progressOut io.Writer) (*upload.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if name == "" {
		name = filepath.Base(path)
	}

	p := mpb.NewWithContext(ctx, mpb.WithOutput(progressOut), mpb.WithWidth(40))
	bar := p.AddBar(info.Size(),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.AverageSpeed(decor.UnitKiB, " % .2f"),
			decor.Name(" ETA "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)

	cli := *c
	cli.Interval = cliProgressInterval
	res, err := cli.Upload(ctx, path, name, func(pr upload.Progress) {
		bar.SetCurrent(pr.Uploaded)
	})
	if err != nil {
		bar.Abort(false)
	} else {
		bar.SetTotal(-1, true)
	}
	p.Wait()
	return res, err
}

func init() {
	uploadCmd.Flags().StringP("name", "n", "", "file name on Pixeldrain (defaults to the local name)")
	uploadCmd.Flags().BoolP("quiet", "q", false, "do not draw a progress bar")
	rootCmd.AddCommand(uploadCmd)
}
