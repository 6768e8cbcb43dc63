package credential

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/pkg/logging"
)

// scriptedPrompter answers prompts from a fixed list
type scriptedPrompter struct {
	answers []string
	prompts []string
}

func (p *scriptedPrompter) ReadSecret(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func answers(a ...string) *scriptedPrompter {
	return &scriptedPrompter{answers: a}
}

func newTestGate(t *testing.T) (*Gate, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	gate := NewGate(filepath.Join(t.TempDir(), "state", ".password_hash"), logging.NewLogger(logging.DEBUG, &buf))
	gate.SetCost(bcrypt.MinCost)
	return gate, &buf
}

func TestSetupThenVerify(t *testing.T) {
	gate, logs := newTestGate(t)

	require.False(t, gate.Configured())
	require.NoError(t, gate.Setup(answers("abc", "abc")))
	require.True(t, gate.Configured())

	assert.NoError(t, gate.Verify(answers("abc")))

	err := gate.Verify(answers("xyz"))
	assert.ErrorIs(t, err, errs.ErrAuthentication)
	assert.Contains(t, logs.String(), "[ERROR] Authentication failed")

	assert.NotContains(t, logs.String(), "abc")
	data, err := os.ReadFile(gate.Path())
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), strings.TrimSpace(string(data)))
}

func TestSetupRecordIsSingleLinePrivateFile(t *testing.T) {
	gate, _ := newTestGate(t)
	require.NoError(t, gate.Setup(answers("s3cret", "s3cret")))

	info, err := os.Stat(gate.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(gate.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestSetupMismatch(t *testing.T) {
	gate, _ := newTestGate(t)

	err := gate.Setup(answers("abc", "abd"))
	assert.ErrorIs(t, err, errs.ErrMismatch)
	assert.False(t, gate.Configured())
}

func TestSetupRefusesExistingRecord(t *testing.T) {
	gate, _ := newTestGate(t)
	require.NoError(t, gate.Setup(answers("abc", "abc")))
	before, err := os.ReadFile(gate.Path())
	require.NoError(t, err)

	p := answers("other", "other")
	err = gate.Setup(p)
	assert.ErrorIs(t, err, errs.ErrAlreadyConfigured)
	assert.Empty(t, p.prompts, "no prompt should be shown once configured")

	after, err := os.ReadFile(gate.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestVerifyWithoutSetup(t *testing.T) {
	gate, _ := newTestGate(t)

	p := answers("abc")
	err := gate.Verify(p)
	assert.ErrorIs(t, err, errs.ErrMissingCredential)
	assert.Empty(t, p.prompts)
}

func TestVerifyLegacyDigest(t *testing.T) {
	gate, _ := newTestGate(t)
	sum := sha256.Sum256([]byte("focus"))
	require.NoError(t, os.MkdirAll(filepath.Dir(gate.Path()), 0o700))
	require.NoError(t, os.WriteFile(gate.Path(), []byte(hex.EncodeToString(sum[:])+"\n"), 0o600))

	assert.NoError(t, gate.Verify(answers("focus")))
	assert.ErrorIs(t, gate.Verify(answers("Focus")), errs.ErrAuthentication)
}

func TestVerifyInvalidRecord(t *testing.T) {
	gate, _ := newTestGate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(gate.Path()), 0o700))
	require.NoError(t, os.WriteFile(gate.Path(), []byte("not-a-hash\n"), 0o600))

	err := gate.Verify(answers("abc"))
	assert.ErrorIs(t, err, errs.ErrInvalidRecord)
}

func TestSetupWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	gate := NewGate(filepath.Join(blocker, ".password_hash"), nil)
	gate.SetCost(bcrypt.MinCost)

	err := gate.Setup(answers("abc", "abc"))
	assert.ErrorIs(t, err, errs.ErrWrite)
}
