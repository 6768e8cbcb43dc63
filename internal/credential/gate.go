// Package credential stores and verifies the password hash that gates the
// guard's privileged commands.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/pkg/logging"
)

// Prompter reads a secret from the user without echoing it
type Prompter interface {
	ReadSecret(prompt string) (string, error)
}

// Gate manages the single credential record on disk
type Gate struct {
	path   string
	cost   int
	logger *logging.Logger
}

// NewGate creates a gate backed by the record at path
func NewGate(path string, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gate{
		path:   path,
		cost:   bcrypt.DefaultCost,
		logger: logger,
	}
}

// SetCost overrides the bcrypt cost used for new records
func (g *Gate) SetCost(cost int) {
	g.cost = cost
}

// Path returns the record location
func (g *Gate) Path() string {
	return g.path
}

// Configured reports whether a credential record exists
func (g *Gate) Configured() bool {
	_, err := os.Stat(g.path)
	return err == nil
}

// Setup prompts twice for a new password and persists its hash. It refuses to
// touch an existing record.
func (g *Gate) Setup(p Prompter) error {
	if g.Configured() {
		return errs.New(errs.KindAlreadyConfigured, "setup", g.path, nil)
	}

	secret, err := p.ReadSecret("Set a password: ")
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	confirm, err := p.ReadSecret("Confirm password: ")
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(confirm)) != 1 {
		g.logger.Warn("Password setup failed: entries did not match")
		return errs.New(errs.KindMismatch, "setup", "", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return fmt.Errorf("setup: failed to hash password: %w", err)
	}

	if err := writeRecord(g.path, string(hash)); err != nil {
		g.logger.Error(fmt.Sprintf("Password setup failed: %v", err))
		return err
	}

	g.logger.Info("Password set up")
	return nil
}

// Verify prompts for the password and checks it against the stored record.
// There is no retry: a wrong password fails the whole command.
func (g *Gate) Verify(p Prompter) error {
	rec, err := g.load()
	if err != nil {
		g.logger.Error(fmt.Sprintf("Authentication unavailable: %v", err))
		return err
	}

	secret, err := p.ReadSecret("Password: ")
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if !rec.matches(secret) {
		g.logger.Error("Authentication failed")
		return errs.New(errs.KindAuthentication, "verify", "", nil)
	}

	g.logger.Debug("Authentication succeeded")
	return nil
}

func (g *Gate) load() (record, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errs.New(errs.KindMissingCredential, "verify", g.path, nil)
	}
	if err != nil {
		return "", errs.New(errs.KindMissingCredential, "verify", g.path, err)
	}

	rec := record(strings.TrimSpace(string(data)))
	if err := rec.validate(); err != nil {
		return "", errs.New(errs.KindInvalidRecord, "verify", g.path, err)
	}
	return rec, nil
}

func writeRecord(path, hash string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errs.New(errs.KindWrite, "setup", filepath.Dir(path), err)
	}

	// O_EXCL keeps an existing record from ever being replaced
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errs.New(errs.KindWrite, "setup", path, err)
	}
	if _, err := f.WriteString(hash + "\n"); err != nil {
		f.Close()
		os.Remove(path)
		return errs.New(errs.KindWrite, "setup", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errs.New(errs.KindWrite, "setup", path, err)
	}
	return nil
}

// record is one stored hash: bcrypt, or a legacy hex SHA-256 digest
type record string

func (r record) legacy() bool {
	if len(r) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(string(r))
	return err == nil
}

func (r record) validate() error {
	if r == "" {
		return errors.New("empty record")
	}
	if r.legacy() {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(r)); err != nil {
		return err
	}
	return nil
}

func (r record) matches(secret string) bool {
	if r.legacy() {
		sum := sha256.Sum256([]byte(secret))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(string(r)))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(r), []byte(secret)) == nil
}
