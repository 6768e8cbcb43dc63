// Package autostart installs the per-user login agent that keeps the monitor
// running under the OS service manager.
package autostart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"howett.net/plist"

	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/pkg/logging"
)

// Descriptor is the login agent document consumed by the service manager
type Descriptor struct {
	Label             string   `plist:"Label"`
	ProgramArguments  []string `plist:"ProgramArguments"`
	RunAtLoad         bool     `plist:"RunAtLoad"`
	KeepAlive         bool     `plist:"KeepAlive"`
	StandardOutPath   string   `plist:"StandardOutPath,omitempty"`
	StandardErrorPath string   `plist:"StandardErrorPath,omitempty"`
}

// ServiceManager loads and unloads descriptors by path
type ServiceManager interface {
	Load(ctx context.Context, path string) error
	Unload(ctx context.Context, path string) error
	Loaded(ctx context.Context, label string) (bool, error)
}

var labelUnsafe = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// DefaultLabel derives the agent label from the current user name
func DefaultLabel(username string) string {
	username = labelUnsafe.ReplaceAllString(strings.ToLower(username), "-")
	username = strings.Trim(username, "-.")
	if username == "" {
		username = "user"
	}
	return fmt.Sprintf("com.%s.focusguard", username)
}

// Registrar writes the descriptor and drives the service manager
type Registrar struct {
	dir     string
	label   string
	manager ServiceManager
	logger  *logging.Logger
}

// NewRegistrar creates a registrar writing <dir>/<label>.plist
func NewRegistrar(dir, label string, manager ServiceManager, logger *logging.Logger) *Registrar {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registrar{
		dir:     dir,
		label:   label,
		manager: manager,
		logger:  logger,
	}
}

// Path returns the descriptor location
func (r *Registrar) Path() string {
	return filepath.Join(r.dir, r.label+".plist")
}

// Label returns the agent label
func (r *Registrar) Label() string {
	return r.label
}

// Install writes the descriptor, replacing any previous one at the same path.
// Label, RunAtLoad and KeepAlive are always forced.
func (r *Registrar) Install(d Descriptor) error {
	d.Label = r.label
	d.RunAtLoad = true
	d.KeepAlive = true

	if len(d.ProgramArguments) == 0 {
		return errs.New(errs.KindWrite, "install", r.Path(), errors.New("descriptor has no program"))
	}

	data, err := plist.MarshalIndent(d, plist.XMLFormat, "\t")
	if err != nil {
		return errs.New(errs.KindWrite, "install", r.Path(), err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errs.New(errs.KindWrite, "install", r.dir, err)
	}

	tmp := r.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.New(errs.KindWrite, "install", tmp, err)
	}
	if err := os.Rename(tmp, r.Path()); err != nil {
		os.Remove(tmp)
		return errs.New(errs.KindWrite, "install", r.Path(), err)
	}

	r.logger.Info(fmt.Sprintf("Installed login agent %s", r.Path()))
	return nil
}

// Installed reports whether the descriptor file exists
func (r *Registrar) Installed() bool {
	_, err := os.Stat(r.Path())
	return err == nil
}

// Descriptor reads back the installed descriptor
func (r *Registrar) Descriptor() (Descriptor, error) {
	var d Descriptor
	data, err := os.ReadFile(r.Path())
	if err != nil {
		return d, fmt.Errorf("failed to read descriptor: %w", err)
	}
	if _, err := plist.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	return d, nil
}

// Activate asks the service manager to load the descriptor
func (r *Registrar) Activate(ctx context.Context) error {
	if err := r.manager.Load(ctx, r.Path()); err != nil {
		return errs.New(errs.KindServiceManager, "activate", r.Path(), err)
	}
	r.logger.Info(fmt.Sprintf("Loaded login agent %s", r.label))
	return nil
}

// Deactivate asks the service manager to unload the descriptor. The file is
// left on disk.
func (r *Registrar) Deactivate(ctx context.Context) error {
	if err := r.manager.Unload(ctx, r.Path()); err != nil {
		return errs.New(errs.KindServiceManager, "deactivate", r.Path(), err)
	}
	r.logger.Info(fmt.Sprintf("Unloaded login agent %s", r.label))
	return nil
}

// Active reports whether the service manager currently has the agent loaded
func (r *Registrar) Active(ctx context.Context) (bool, error) {
	loaded, err := r.manager.Loaded(ctx, r.label)
	if err != nil {
		return false, errs.New(errs.KindServiceManager, "status", r.label, err)
	}
	return loaded, nil
}
