package cmd

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pdmirror/pdmirror/internal/config"
	"github.com/pdmirror/pdmirror/internal/utils"
)

var (
	instanceLock *flock.Flock
	lockMu       sync.Mutex
)

// lockPath is where the single-instance lock lives.
func lockPath() string {
	return filepath.Join(config.GetStateDir(), "pdmirror.lock")
}

// AcquireLock takes the instance lock without blocking. It returns false when
// another pdmirror process holds it.
func AcquireLock() (bool, error) {
	lockMu.Lock()
	defer lockMu.Unlock()

	if instanceLock != nil && instanceLock.Locked() {
		return true, nil
	}
	l := flock.New(lockPath())
	ok, err := l.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.Path(), err)
	}
	if !ok {
		return false, nil
	}
	instanceLock = l
	return true, nil
}

// ReleaseLock drops the instance lock if held.
func ReleaseLock() {
	lockMu.Lock()
	defer lockMu.Unlock()

	if instanceLock == nil {
		return
	}
	if err := instanceLock.Unlock(); err != nil {
		utils.Warn("failed to release instance lock: %v", err)
	}
	instanceLock = nil
}
