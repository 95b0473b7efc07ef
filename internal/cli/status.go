package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/pop-upgrade/internal/daemon"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the daemon is doing",
	Long:  "Display the daemon's current operation and its progress.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// statusView is the machine-readable form of a status query.
type statusView struct {
	Status    string `json:"status" yaml:"status"`
	SubStatus string `json:"sub_status,omitempty" yaml:"sub_status,omitempty"`
	Result    *uint8 `json:"result,omitempty" yaml:"result,omitempty"`
	Why       string `json:"why,omitempty" yaml:"why,omitempty"`
}

func newStatusView(s *daemon.StatusResponse) statusView {
	v := statusView{Status: s.Status.String(), SubStatus: s.SubStatusLabel()}
	if s.Result != nil {
		code := s.Result.Code
		v.Result = &code
		v.Why = s.Result.Why
	}
	return v
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(statusOutput)
	if err != nil {
		return err
	}

	client, err := ConnectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	view := newStatusView(status)
	return writeOutput(os.Stdout, format, view, func(w io.Writer) error {
		return printStatus(w, view)
	})
}

func printStatus(w io.Writer, v statusView) error {
	if v.SubStatus == "" {
		_, err := fmt.Fprintln(w, v.Status)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", v.Status, v.SubStatus)
	return err
}

func init() {
	addOutputFlag(statusCmd, &statusOutput)
	rootCmd.AddCommand(statusCmd)
}
