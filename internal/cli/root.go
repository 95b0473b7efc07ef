package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tessro/pop-upgrade/internal/config"
	"github.com/tessro/pop-upgrade/internal/logging"
	"github.com/tessro/pop-upgrade/internal/style"
)

var (
	// flagSocket is the global --socket flag value.
	flagSocket   string
	flagNoColor  bool
	flagLogLevel string
	flagDebug    bool
)

// globalConfig is loaded once per invocation in PersistentPreRunE.
var globalConfig *config.GlobalConfig

var logCleanup func()

var rootCmd = &cobra.Command{
	Use:   "pop-upgrade",
	Short: "Pop!_OS upgrade client",
	Long: "pop-upgrade asks the upgrade daemon to fetch updates, refresh the recovery\n" +
		"partition, and upgrade to new releases, and follows each operation to its end.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		globalConfig = cfg

		socket := cfg.GetSocketPath()
		if flagSocket != "" {
			socket = flagSocket
		}
		SetSocketPath(socket)

		style.SetEnabled(!flagNoColor && cfg.ColorEnabled() && stdoutIsTerminal())

		level := cfg.GetLogLevel()
		if flagLogLevel != "" {
			if err := config.ValidateLogLevel(flagLogLevel); err != nil {
				return err
			}
			level = flagLogLevel
		}
		if flagDebug {
			level = "debug"
		}

		var cleanup func()
		if flagDebug {
			cleanup, err = logging.SetupMulti("", os.Stderr, logging.ParseLevel(level))
		} else {
			cleanup, err = logging.Setup("", logging.ParseLevel(level))
		}
		if err != nil {
			// Logging is diagnostic only; the command still runs.
			fmt.Fprintf(os.Stderr, "warning: log file unavailable: %v\n", err)
			return nil
		}
		logCleanup = cleanup

		slog.Debug("command started", "command", cmd.CommandPath(), "args", args)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSocket, "socket", "", "daemon socket path (overrides config and POP_UPGRADE_SOCKET_PATH)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable styled output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "mirror debug logs to stderr")
}

// Execute runs the root command. ctx is cancelled on SIGINT and SIGTERM.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the root command, for tools that walk the command tree.
func Root() *cobra.Command {
	return rootCmd
}

// stdoutIsTerminal is a variable so tests can force either rendering.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
