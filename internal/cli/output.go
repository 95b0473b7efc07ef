package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tessro/pop-upgrade/internal/config"
)

// addOutputFlag registers --output on cmd, bound to target.
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "", "output format: text, json, yaml (default from config)")
}

// outputFormat resolves the flag value against the config default.
func outputFormat(flag string) (string, error) {
	if flag == "" {
		return globalConfig.GetOutputFormat(), nil
	}
	if err := config.ValidateOutputFormat(flag); err != nil {
		return "", err
	}
	return flag, nil
}

// writeOutput renders v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return text(w)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
