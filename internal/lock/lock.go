// Package lock toggles the write permission of the guard's controlling file
// while the monitor is registered.
//
// This is an advisory tamper deterrent, not access control: the file owner
// (or anyone with write access to its directory) can restore the write bits
// at any time.
package lock

import (
	"fmt"
	"os"

	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/pkg/logging"
)

const (
	writeBits os.FileMode = 0o222
	// unlockBits is owner-write plus read for everyone
	unlockBits os.FileMode = 0o644
)

// Controller locks and unlocks files
type Controller struct {
	logger *logging.Logger
}

// NewController creates a lock controller
func NewController(logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{logger: logger}
}

// Lock removes every write bit from path, keeping read and execute bits.
func (c *Controller) Lock(path string) error {
	mode, err := perm(path, "lock")
	if err != nil {
		return err
	}
	if err := os.Chmod(path, mode&^writeBits); err != nil {
		return errs.New(errs.KindPermission, "lock", path, err)
	}
	c.logger.Info(fmt.Sprintf("Locked %s", path))
	return nil
}

// Unlock restores owner-write and group/other-read on path. A file locked
// from 0644 or 0755 comes back to exactly that mode.
func (c *Controller) Unlock(path string) error {
	mode, err := perm(path, "unlock")
	if err != nil {
		return err
	}
	if err := os.Chmod(path, mode|unlockBits); err != nil {
		return errs.New(errs.KindPermission, "unlock", path, err)
	}
	c.logger.Info(fmt.Sprintf("Unlocked %s", path))
	return nil
}

// IsLocked reports whether path has no write bits set
func (c *Controller) IsLocked(path string) (bool, error) {
	mode, err := perm(path, "stat")
	if err != nil {
		return false, err
	}
	return mode&writeBits == 0, nil
}

func perm(path, op string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errs.New(errs.KindPermission, op, path, err)
	}
	return info.Mode().Perm(), nil
}
