package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Secrets are read
// without echo when the input is a terminal.
type prompter struct {
	cmd    *cobra.Command
	in     io.Reader
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{cmd: cmd, in: in, reader: bufio.NewReader(in)}
}

// interactive reports whether the input is a terminal.
func (p *prompter) interactive() bool {
	f, ok := p.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ask prints label and returns the trimmed answer, or current when the
// answer is empty.
func (p *prompter) ask(label, current string) string {
	if current != "" {
		p.cmd.Printf("%s [%s]: ", label, current)
	} else {
		p.cmd.Printf("%s: ", label)
	}
	if answer := p.readLine(); answer != "" {
		return answer
	}
	return current
}

// askSecret is ask without echo. The current value is never printed.
func (p *prompter) askSecret(label, current string) string {
	if current != "" {
		p.cmd.Printf("%s [%s]: ", label, maskSecret(current))
	} else {
		p.cmd.Printf("%s: ", label)
	}

	var answer string
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		p.cmd.Println()
		if err == nil {
			answer = strings.TrimSpace(string(secret))
		}
	} else {
		answer = p.readLine()
	}

	if answer != "" {
		return answer
	}
	return current
}

//nolint:errcheck // CLI helper, error ignored for UX
func (p *prompter) readLine() string {
	input, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
