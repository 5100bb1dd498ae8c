package aria2

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"time"

	"github.com/pdmirror/pdmirror/internal/utils"
)

// Options controls how Start reaches or launches the daemon.
type Options struct {
	Endpoint    string
	Secret      string
	Binary      string
	SettleDelay time.Duration
	DownloadDir string

	// Launch starts the daemon process. Defaults to running Binary with RPC
	// enabled in daemon mode.
	Launch func(ctx context.Context) error
}

// GlobalOptions is the fixed daemon policy applied once after startup.
func GlobalOptions(downloadDir string) map[string]string {
	return map[string]string{
		"allow-overwrite":                  "true",
		"auto-file-renaming":               "true",
		"bt-enable-lpd":                    "true",
		"bt-remove-unselected-file":        "true",
		"check-certificate":                "false",
		"content-disposition-default-utf8": "true",
		"continue":                         "true",
		"dir":                              downloadDir,
		"disk-cache":                       "32M",
		"follow-torrent":                   "mem",
		"http-accept-gzip":                 "true",
		"max-concurrent-downloads":         "3",
		"max-connection-per-server":        "10",
		"max-file-not-found":               "0",
		"max-overall-download-limit":       "0",
		"max-overall-upload-limit":         "1K",
		"max-tries":                        "20",
		"min-split-size":                   "10M",
		"reuse-uri":                        "true",
		"rpc-max-request-size":             "1024M",
		"seed-time":                        "0",
		"split":                            "10",
		"summary-interval":                 "0",
		"user-agent":                       "Wget/1.12",
	}
}

// Start probes the daemon, launching it and waiting SettleDelay when the
// probe fails, then applies GlobalOptions. The returned client is ready.
func Start(ctx context.Context, opts Options) (*Client, error) {
	c := NewClient(opts.Endpoint, opts.Secret)

	if v, err := c.GetVersion(ctx); err == nil {
		utils.Info("aria2 %s is already up and running", v.Version)
	} else {
		utils.Info("aria2 not reachable (%v), launching %s", err, opts.Binary)

		launch := opts.Launch
		if launch == nil {
			launch = func(ctx context.Context) error { return launchDaemon(ctx, opts) }
		}
		if err := launch(ctx); err != nil {
			return nil, fmt.Errorf("%w: launch failed: %v", ErrUnavailable, err)
		}

		timer := time.NewTimer(opts.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		v, err := c.GetVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: still unreachable after launch: %v", ErrUnavailable, err)
		}
		utils.Info("aria2 %s is now up and running", v.Version)
	}

	if err := c.ChangeGlobalOption(ctx, GlobalOptions(opts.DownloadDir)); err != nil {
		return nil, fmt.Errorf("failed to configure aria2: %w", err)
	}
	return c, nil
}

// Shutdown purges finished results and stops the daemon.
func (c *Client) Shutdown(ctx context.Context) error {
	if err := c.PurgeDownloadResult(ctx); err != nil {
		utils.Debug("purgeDownloadResult before shutdown failed: %v", err)
	}
	return c.ForceShutdown(ctx)
}

// daemonArgs builds the aria2c command line for opts. aria2c forks itself in
// daemon mode, so the parent returns as soon as the listener is set up.
func daemonArgs(opts Options) []string {
	args := []string{"--enable-rpc=true", "--daemon=true", "--quiet=true"}
	if opts.Secret != "" {
		args = append(args, "--rpc-secret="+opts.Secret)
	}
	if u, err := url.Parse(opts.Endpoint); err == nil && u.Port() != "" && u.Port() != "6800" {
		args = append(args, "--rpc-listen-port="+u.Port())
	}
	return args
}

func launchDaemon(ctx context.Context, opts Options) error {
	binary := opts.Binary
	if binary == "" {
		binary = "aria2c"
	}
	return exec.CommandContext(ctx, binary, daemonArgs(opts)...).Run()
}
