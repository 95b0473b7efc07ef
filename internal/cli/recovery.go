package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tessro/pop-upgrade/internal/bootloader"
	"github.com/tessro/pop-upgrade/internal/config"
	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/listener"
)

// ErrRootRequired is returned by commands that modify the boot configuration.
var ErrRootRequired = errors.New("root is required for this operation")

// geteuid is a variable so tests can pretend to be root.
var geteuid = os.Geteuid

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Manage the recovery partition",
}

var recoveryCheckOutput string

var recoveryCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the release installed on the recovery partition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(recoveryCheckOutput)
		if err != nil {
			return err
		}

		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		version, err := client.RecoveryVersion()
		if err != nil {
			return fmt.Errorf("get recovery version: %w", err)
		}

		return writeOutput(os.Stdout, format, version, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "version: %s\nbuild: %d\n", version.Version, version.Build)
			return err
		})
	},
}

var recoveryUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Refresh the recovery partition",
}

var recoveryUpgradeNext bool

var recoveryFromReleaseCmd = &cobra.Command{
	Use:   "from-release [VERSION] [ARCH]",
	Short: "Refresh the recovery partition from a release image",
	Long: "Refresh the recovery partition from a release image.\n\n" +
		"VERSION defaults to the current release and ARCH to the daemon's choice.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var version, arch string
		if len(args) > 0 {
			version = args[0]
			if err := config.ValidateVersion(version); err != nil {
				return err
			}
		}
		if len(args) > 1 {
			arch = args[1]
		}

		var flags daemon.RecoveryFlags
		if recoveryUpgradeNext {
			flags |= daemon.RecoveryNext
		}

		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := newListener(client).UpgradeRecoveryFromRelease(cmd.Context(), version, arch, flags)
		return checkResult(listener.RecoveryUpgrade, res, err)
	},
}

var recoveryFromFileCmd = &cobra.Command{
	Use:   "from-file PATH",
	Short: "Refresh the recovery partition from a local ISO",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("recovery image: %w", err)
		}

		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := newListener(client).UpgradeRecoveryFromFile(cmd.Context(), path)
		return checkResult(listener.RecoveryUpgrade, res, err)
	},
}

var recoveryLoaderDir string

var recoveryDefaultBootCmd = &cobra.Command{
	Use:   "default-boot",
	Short: "Boot into the recovery partition by default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if geteuid() != 0 {
			return ErrRootRequired
		}
		if err := bootloader.New(recoveryLoaderDir).SetDefault(bootloader.Recovery); err != nil {
			return fmt.Errorf("set default boot entry: %w", err)
		}
		return nil
	},
}

func init() {
	addOutputFlag(recoveryCheckCmd, &recoveryCheckOutput)

	recoveryFromReleaseCmd.Flags().BoolVar(&recoveryUpgradeNext, "next", false, "fetch the next release's recovery image")
	recoveryUpgradeCmd.AddCommand(recoveryFromReleaseCmd)
	recoveryUpgradeCmd.AddCommand(recoveryFromFileCmd)

	recoveryDefaultBootCmd.Flags().StringVar(&recoveryLoaderDir, "loader-dir", bootloader.DefaultDir, "systemd-boot loader directory")
	_ = recoveryDefaultBootCmd.Flags().MarkHidden("loader-dir")

	recoveryCmd.AddCommand(recoveryCheckCmd)
	recoveryCmd.AddCommand(recoveryUpgradeCmd)
	recoveryCmd.AddCommand(recoveryDefaultBootCmd)
	rootCmd.AddCommand(recoveryCmd)
}
