package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/pop-upgrade/internal/config"
	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/listener"
	"github.com/tessro/pop-upgrade/internal/notify"
	"github.com/tessro/pop-upgrade/internal/paths"
	"github.com/tessro/pop-upgrade/internal/style"
)

// notifier delivers release notifications when check runs without a terminal.
var notifier notify.Notifier = notify.NewCommand("", nil)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Check for, fetch, and upgrade to new releases",
}

var (
	releaseCheckForceNext bool
	releaseCheckOutput    string
)

var releaseCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a new release is available",
	Long: "Check whether a new release is available.\n\n" +
		"When standard output is not a terminal, a desktop notification is sent instead\n" +
		"of printing, unless the release was dismissed.",
	Args: cobra.NoArgs,
	RunE: runReleaseCheck,
}

// releaseView is the machine-readable form of a release check.
type releaseView struct {
	Current   string `json:"current" yaml:"current"`
	Next      string `json:"next" yaml:"next"`
	Available bool   `json:"available" yaml:"available"`
	Build     int16  `json:"build" yaml:"build"`
	UrgentISO string `json:"urgent_iso,omitempty" yaml:"urgent_iso,omitempty"`
	IsLTS     bool   `json:"is_lts" yaml:"is_lts"`
}

func newReleaseView(info *daemon.ReleaseCheckResponse) releaseView {
	v := releaseView{
		Current:   info.Current,
		Next:      info.Next,
		Available: info.Available(),
		Build:     info.Build,
		IsLTS:     info.IsLTS,
	}
	if info.Urgent >= 0 {
		v.UrgentISO = time.Unix(info.Urgent, 0).UTC().Format(time.DateTime)
	}
	return v
}

func runReleaseCheck(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(releaseCheckOutput)
	if err != nil {
		return err
	}

	client, err := ConnectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.ReleaseCheck(releaseCheckForceNext)
	if err != nil {
		return fmt.Errorf("check for release: %w", err)
	}

	if format != "text" || stdoutIsTerminal() {
		view := newReleaseView(info)
		return writeOutput(os.Stdout, format, view, func(w io.Writer) error {
			return printReleaseTable(w, view)
		})
	}

	if !info.Available() {
		return nil
	}
	if info.IsLTS && dismissed(info.Next) {
		slog.Info("release notification dismissed", "next", info.Next)
		return nil
	}
	return notifier.Notify(cmd.Context(), notify.ReleaseAvailable(info.Next))
}

func printReleaseTable(w io.Writer, v releaseView) error {
	available := "false"
	if v.Available {
		available = fmt.Sprint(v.Build)
	}
	urgent := "None"
	if v.UrgentISO != "" {
		urgent = v.UrgentISO
	}

	_, err := fmt.Fprintf(w,
		"      Current Release: %s\n"+
			"         Next Release: %s\n"+
			"New Release Available: %s\n"+
			"  Urgent Recovery ISO: %s\n",
		v.Current, v.Next, available, urgent)
	return err
}

// dismissed reports whether notifications for next were dismissed.
func dismissed(next string) bool {
	data, err := os.ReadFile(paths.DismissedPath())
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == next
}

var releaseUpdateDownloadOnly bool

var releaseUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch and install updates for the current release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := newListener(client).FetchUpdates(cmd.Context(), nil, releaseUpdateDownloadOnly)
		return checkResult(listener.FetchUpdates, res, err)
	},
}

var releaseUpgradeForceNext bool

var releaseUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade to the next release",
	Long: "Upgrade to the next release.\n\n" +
		"The systemd method stages an offline upgrade for the next boot. The recovery\n" +
		"method refreshes the recovery partition first and installs from it.",
}

func newReleaseUpgradeMethodCmd(use, short string, method daemon.UpgradeMethod) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReleaseUpgrade(cmd, method)
		},
	}
}

func runReleaseUpgrade(cmd *cobra.Command, method daemon.UpgradeMethod) error {
	client, err := ConnectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.ReleaseCheck(releaseUpgradeForceNext)
	if err != nil {
		return fmt.Errorf("check for release: %w", err)
	}

	if !releaseUpgradeForceNext && !info.Available() {
		fmt.Println("no release available to upgrade to")
		return nil
	}

	for _, v := range []string{info.Current, info.Next} {
		if err := config.ValidateVersion(v); err != nil {
			return fmt.Errorf("daemon reported an unusable release: %w", err)
		}
	}

	res, err := newListener(client).UpgradeRelease(cmd.Context(), method, info.Current, info.Next)
	return checkResult(listener.ReleaseUpgrade, res, err)
}

var releaseRefreshCmd = &cobra.Command{
	Use:       "refresh [enable|disable]",
	Short:     "Show or change whether the next boot starts the refresh installer",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"enable", "disable"},
	RunE: func(cmd *cobra.Command, args []string) error {
		op := daemon.RefreshStatus
		if len(args) == 1 {
			switch args[0] {
			case "enable":
				op = daemon.RefreshEnable
			case "disable":
				op = daemon.RefreshDisable
			}
		}

		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		resp, err := client.RefreshOS(op)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}

		switch op {
		case daemon.RefreshEnable:
			fmt.Println("reboot to boot into the recovery partition to begin the refresh install")
		case daemon.RefreshDisable:
			fmt.Println("refresh install disabled")
		default:
			state := "disabled"
			if resp.Enabled {
				state = "enabled"
			}
			fmt.Printf("%s: %s\n", style.Info("Refresh on next boot"), style.Primary(state))
		}
		return nil
	},
}

var releaseRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair package sources for the current release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.ReleaseRepair(); err != nil {
			return fmt.Errorf("repair release: %w", err)
		}
		fmt.Println(style.Muted("package sources repaired"))
		return nil
	},
}

var releaseDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Stop notifications about the next LTS release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		info, err := client.ReleaseCheck(false)
		if err != nil {
			return fmt.Errorf("check for release: %w", err)
		}
		if !info.IsLTS {
			fmt.Println("Only LTS releases may dismiss notifications")
			return nil
		}
		if err := client.DismissNotification(daemon.DismissByUser); err != nil {
			return fmt.Errorf("dismiss notification: %w", err)
		}
		return nil
	},
}

func init() {
	releaseCheckCmd.Flags().BoolVar(&releaseCheckForceNext, "force-next", false, "check for the next release even if it is a development release")
	addOutputFlag(releaseCheckCmd, &releaseCheckOutput)

	releaseUpdateCmd.Flags().BoolVar(&releaseUpdateDownloadOnly, "download-only", false, "fetch updates without installing them")

	releaseUpgradeCmd.PersistentFlags().BoolVar(&releaseUpgradeForceNext, "force-next", false, "upgrade to the next release even if no upgrade is offered")
	releaseUpgradeCmd.AddCommand(newReleaseUpgradeMethodCmd("systemd", "Stage an offline upgrade for the next boot", daemon.UpgradeOffline))
	releaseUpgradeCmd.AddCommand(newReleaseUpgradeMethodCmd("recovery", "Upgrade through the recovery partition", daemon.UpgradeRecovery))

	releaseCmd.AddCommand(releaseCheckCmd)
	releaseCmd.AddCommand(releaseUpdateCmd)
	releaseCmd.AddCommand(releaseUpgradeCmd)
	releaseCmd.AddCommand(releaseRefreshCmd)
	releaseCmd.AddCommand(releaseRepairCmd)
	releaseCmd.AddCommand(releaseDismissCmd)
	rootCmd.AddCommand(releaseCmd)
}
