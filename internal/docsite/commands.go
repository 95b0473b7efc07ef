package docsite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// PagePath returns the Markdown page for cmd relative to the docs root.
// Commands with subcommands own a directory and live at its index.md.
func PagePath(cmd *cobra.Command) string {
	parts := commandParts(cmd)
	if hasSubcommands(cmd) {
		return filepath.Join(append(parts, "index.md")...)
	}
	parts[len(parts)-1] += ".md"
	return filepath.Join(parts...)
}

// commandParts is the command path without the root name.
func commandParts(cmd *cobra.Command) []string {
	fields := strings.Fields(cmd.CommandPath())
	return fields[1:]
}

func hasSubcommands(cmd *cobra.Command) bool {
	return len(visibleCommands(cmd)) > 0
}

func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			out = append(out, c)
		}
	}
	return out
}

// CommandMarkdown renders the reference page for a single command.
func CommandMarkdown(cmd *cobra.Command) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", cmd.CommandPath())

	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}

	if cmd.Runnable() {
		fmt.Fprintf(&b, "## Usage\n\n```\n%s\n```\n\n", cmd.UseLine())
	}

	if cmd.Example != "" {
		fmt.Fprintf(&b, "## Examples\n\n```\n%s\n```\n\n", strings.TrimRight(cmd.Example, "\n"))
	}

	writeFlagTable(&b, "Flags", cmd.NonInheritedFlags())
	writeFlagTable(&b, "Global flags", cmd.InheritedFlags())

	if subs := visibleCommands(cmd); len(subs) > 0 {
		b.WriteString("## Commands\n\n")
		for _, c := range subs {
			fmt.Fprintf(&b, "- [%s](%s) %s\n", c.Name(), subcommandLink(c), c.Short)
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}

// subcommandLink is the link from a parent's index page to child.
func subcommandLink(child *cobra.Command) string {
	if hasSubcommands(child) {
		return "./" + child.Name() + "/index.md"
	}
	return "./" + child.Name() + ".md"
}

func writeFlagTable(b *bytes.Buffer, title string, flags *pflag.FlagSet) {
	var rows []string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		name := "`--" + f.Name + "`"
		if f.Shorthand != "" {
			name = "`-" + f.Shorthand + "`, " + name
		}
		def := f.DefValue
		if def != "" && def != "false" && def != "[]" {
			def = "`" + def + "`"
		} else {
			def = ""
		}
		rows = append(rows, fmt.Sprintf("| %s | %s | %s |", name, escapeCell(f.Usage), def))
	})
	if len(rows) == 0 {
		return
	}

	fmt.Fprintf(b, "## %s\n\n| Flag | Description | Default |\n|------|-------------|---------|\n", title)
	for _, row := range rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteCommandDocs writes one Markdown page per available command under dir.
func WriteCommandDocs(root *cobra.Command, dir string) error {
	return writeCommand(root, dir)
}

func writeCommand(cmd *cobra.Command, dir string) error {
	path := filepath.Join(dir, PagePath(cmd))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", cmd.CommandPath(), err)
	}
	if err := os.WriteFile(path, CommandMarkdown(cmd), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	for _, c := range visibleCommands(cmd) {
		if err := writeCommand(c, dir); err != nil {
			return err
		}
	}
	return nil
}
