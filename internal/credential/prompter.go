package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter reads secrets from a terminal with echo disabled. When the
// input is not a terminal it reads one line per secret instead.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// ReadSecret implements Prompter
func (p *TerminalPrompter) ReadSecret(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
