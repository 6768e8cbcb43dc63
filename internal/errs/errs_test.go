package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelOfSameKind(t *testing.T) {
	err := New(KindPermission, "lock", "/usr/local/bin/focusguard", fs.ErrPermission)
	wrapped := fmt.Errorf("start: %w", err)

	assert.ErrorIs(t, wrapped, ErrPermission)
	assert.NotErrorIs(t, wrapped, ErrWrite)
	assert.ErrorIs(t, wrapped, fs.ErrPermission)
	assert.Equal(t, KindPermission, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	err := New(KindServiceManager, "activate", "/tmp/a.plist", errors.New("exit status 1"))
	assert.Equal(t, "activate: service manager rejected request (/tmp/a.plist): exit status 1", err.Error())

	assert.Equal(t, "authentication failed", New(KindAuthentication, "", "", nil).Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
