package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTerminal_Ask(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
		// retries is how many times the invalid-answer message must appear.
		retries int
	}{
		{"y", "y\n", false, true, 0},
		{"Y", "Y\n", false, true, 0},
		{"yes", "yes\n", false, true, 0},
		{"true", "true\n", false, true, 0},
		{"n", "n\n", true, false, 0},
		{"No", "No\n", true, false, 0},
		{"false", "false\n", true, false, 0},
		{"empty line uses default no", "\n", false, false, 0},
		{"empty line uses default yes", "\n", true, true, 0},
		{"crlf empty line", "\r\n", true, true, 0},
		{"eof uses default", "", true, true, 0},
		{"garbage then yes", "maybe\ny\n", false, true, 1},
		{"TRUE is not true", "TRUE\nn\n", true, false, 1},
		{"repeated garbage", "a\nb\nc\nyes\n", false, true, 3},
		{"garbage then eof", "what\n", true, true, 1},
		{"y without newline", "y", false, true, 0},
		{"n without newline", "no", true, false, 0},
		{"garbage without newline", "what", false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(strings.NewReader(tt.input), &out)

			if got := term.Ask("Try again? y/N ", tt.def); got != tt.want {
				t.Errorf("Ask() = %v, want %v", got, tt.want)
			}
			if n := strings.Count(out.String(), InvalidAnswer); n != tt.retries {
				t.Errorf("invalid-answer message shown %d times, want %d", n, tt.retries)
			}
			if !strings.HasPrefix(out.String(), "Try again? y/N ") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestTerminal_ConsecutiveQuestions(t *testing.T) {
	term := NewTerminal(strings.NewReader("y\nn\n\n"), &bytes.Buffer{})

	answers := []bool{term.Ask("a? ", false), term.Ask("b? ", true), term.Ask("c? ", true)}
	want := []bool{true, false, true}
	for i := range want {
		if answers[i] != want[i] {
			t.Errorf("answer %d = %v, want %v", i, answers[i], want[i])
		}
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestTerminal_ReadErrorUsesDefault(t *testing.T) {
	term := NewTerminal(errReader{}, &bytes.Buffer{})
	if !term.Ask("keep? ", true) {
		t.Error("expected default true on read error")
	}
	if term.Ask("keep? ", false) {
		t.Error("expected default false on read error")
	}
}

func TestAskerFunc(t *testing.T) {
	var asked string
	var a Asker = AskerFunc(func(message string, def bool) bool {
		asked = message
		return !def
	})
	if !a.Ask("q", false) || asked != "q" {
		t.Error("AskerFunc did not delegate")
	}
}

func TestYesNo(t *testing.T) {
	if got := YesNo("Try again?", false); got != "Try again? y/N " {
		t.Errorf("YesNo(false) = %q", got)
	}
	if got := YesNo("Continue?", true); got != "Continue? Y/n " {
		t.Errorf("YesNo(true) = %q", got)
	}
}
