// Package prompt asks the operator blocking yes/no questions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// InvalidAnswer is printed when a reply is neither yes nor no.
const InvalidAnswer = "The answer must be either `y` or `n`.\n"

// Asker asks a yes/no question and returns the answer.
// Implementations never fail: they fall back to def.
type Asker interface {
	Ask(message string, def bool) bool
}

// AskerFunc is a function adapter for Asker.
type AskerFunc func(message string, def bool) bool

// Ask implements Asker.
func (f AskerFunc) Ask(message string, def bool) bool {
	return f(message, def)
}

// Terminal asks questions over a line-oriented reader and writer,
// normally stdin and stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal. The reader is buffered once so that
// consecutive questions do not lose typed-ahead answers.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Ask writes message and blocks until the operator answers.
// An empty line yields def. Replies starting with y/Y or equal to "true"
// are yes; replies starting with n/N or equal to "false" are no. Anything
// else re-asks with no retry limit. Read or write errors yield def.
func (t *Terminal) Ask(message string, def bool) bool {
	for {
		if _, err := io.WriteString(t.out, message); err != nil {
			slog.Warn("prompt write failed, using default", "error", err, "default", def)
			return def
		}

		// A final reply without a newline arrives together with io.EOF.
		line, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			slog.Debug("prompt read failed, using default", "error", err, "default", def)
			return def
		}

		if answer, ok := parseAnswer(line, def); ok {
			return answer
		}

		if _, err := io.WriteString(t.out, InvalidAnswer); err != nil {
			return def
		}
	}
}

// parseAnswer interprets a single reply. ok is false when the reply must be re-asked.
func parseAnswer(line string, def bool) (answer, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case line == "":
		return def, true
	case line == "true" || strings.HasPrefix(line, "y") || strings.HasPrefix(line, "Y"):
		return true, true
	case line == "false" || strings.HasPrefix(line, "n") || strings.HasPrefix(line, "N"):
		return false, true
	default:
		return false, false
	}
}

// YesNo formats a question with the conventional hint for its default.
func YesNo(question string, def bool) string {
	if def {
		return fmt.Sprintf("%s Y/n ", question)
	}
	return fmt.Sprintf("%s y/N ", question)
}
