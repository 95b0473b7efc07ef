// Package bootloader selects the default systemd-boot entry.
package bootloader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the systemd-boot directory on the EFI system partition.
const DefaultDir = "/boot/efi/loader"

// ErrEntryNotFound is returned when no loader entry matches the requested variant.
var ErrEntryNotFound = errors.New("loader entry not found")

// Entry is a boot variant.
type Entry int

const (
	Current Entry = iota
	Recovery
)

func (e Entry) String() string {
	switch e {
	case Current:
		return "current"
	case Recovery:
		return "recovery"
	default:
		return "unknown"
	}
}

func (e Entry) prefix() string {
	if e == Recovery {
		return "Recovery-"
	}
	return "Pop_OS-current"
}

// Loader edits a systemd-boot configuration directory.
type Loader struct {
	dir string
}

// New returns a Loader for dir, or DefaultDir if empty.
func New(dir string) *Loader {
	if dir == "" {
		dir = DefaultDir
	}
	return &Loader{dir: dir}
}

// ConfPath returns the path of loader.conf.
func (l *Loader) ConfPath() string {
	return filepath.Join(l.dir, "loader.conf")
}

// FindEntry returns the name of the entry for variant, without the .conf suffix.
func (l *Loader) FindEntry(variant Entry) (string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "entries", variant.prefix()+"*.conf"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, variant)
	}
	sort.Strings(matches)
	return strings.TrimSuffix(filepath.Base(matches[0]), ".conf"), nil
}

// SetDefault makes variant the default boot entry. Other settings in
// loader.conf are preserved.
func (l *Loader) SetDefault(variant Entry) error {
	entry, err := l.FindEntry(variant)
	if err != nil {
		return err
	}

	current, err := os.ReadFile(l.ConfPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read loader.conf: %w", err)
	}

	updated := setDefaultLine(current, entry)

	tmp := l.ConfPath() + ".tmp"
	if err := os.WriteFile(tmp, updated, 0644); err != nil {
		return fmt.Errorf("write loader.conf: %w", err)
	}
	if err := os.Rename(tmp, l.ConfPath()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace loader.conf: %w", err)
	}

	slog.Info("default boot entry set", "variant", variant, "entry", entry)
	return nil
}

// setDefaultLine replaces the default directive in conf, or appends one.
func setDefaultLine(conf []byte, entry string) []byte {
	var out bytes.Buffer
	replaced := false

	scanner := bufio.NewScanner(bytes.NewReader(conf))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "default" {
			if replaced {
				continue
			}
			line = "default " + entry
			replaced = true
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	if !replaced {
		out.WriteString("default " + entry + "\n")
	}
	return out.Bytes()
}
