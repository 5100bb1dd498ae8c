package download

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pdmirror/pdmirror/internal/utils"
)

var (
	// ErrNotTracked is returned when cancelling a GID that is not tracked.
	ErrNotTracked = errors.New("no active download with this id")

	// ErrRemoveFailed is returned when the daemon refuses to drop a job.
	ErrRemoveFailed = errors.New("failed to remove download")
)

// CancelResult describes a completed cancellation.
type CancelResult struct {
	GID string
	// Removed lists the local files that were deleted.
	Removed []string
}

// Canceller stops tracked downloads on user request.
type Canceller struct {
	Daemon    Daemon
	Messenger Messenger
	Tracker   *Tracker
}

// Cancel removes gid from the daemon, posts the cancelled notice if it wins
// the race against the poller, and deletes partial files. The tracker is
// untouched when the daemon call fails.
func (c *Canceller) Cancel(ctx context.Context, gid string) (*CancelResult, error) {
	if _, ok := c.Tracker.Lookup(gid); !ok {
		return nil, ErrNotTracked
	}

	files, err := c.Daemon.GetFiles(ctx, gid)
	if err != nil {
		utils.Warn("getFiles %s failed, partial files will be kept: %v", gid, err)
	}

	if err := c.Daemon.Remove(ctx, gid); err != nil {
		utils.Error("failed to remove GID#%s: %v", gid, err)
		return nil, fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}
	if err := c.Daemon.RemoveDownloadResult(ctx, gid); err != nil {
		utils.Error("failed to remove result of GID#%s: %v", gid, err)
		return nil, fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}

	if loc, ok := c.Tracker.Deregister(gid); ok {
		if err := c.Messenger.Edit(ctx, loc, cancelledText(gid)); err != nil {
			utils.Debug("cancel edit for %s failed: %v", gid, err)
		}
	}

	res := &CancelResult{GID: gid}
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		for _, path := range []string{f.Path, f.Path + ".aria2"} {
			err := os.Remove(path)
			switch {
			case err == nil:
				res.Removed = append(res.Removed, path)
			case !os.IsNotExist(err):
				utils.Debug("failed to delete %s: %v", path, err)
			}
		}
	}
	if len(res.Removed) > 0 {
		utils.Info("deleted %v from GID#%s", res.Removed, gid)
	}
	utils.Info("cancelled download GID %s", gid)
	return res, nil
}
