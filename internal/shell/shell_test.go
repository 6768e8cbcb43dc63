package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/Applications/SelfControl.app", `'/Applications/SelfControl.app'`},
		{"/Applications/Bob's App.app", `'/Applications/Bob'\''s App.app'`},
		{"", `''`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.in))
	}
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"open '/Applications/A.app'"`, AppleScriptString(`open '/Applications/A.app'`))
	assert.Equal(t, `"say \"hi\" \\ bye"`, AppleScriptString(`say "hi" \ bye`))
}

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	_, err = ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
