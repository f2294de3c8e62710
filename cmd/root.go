package cmd

import (
	"io"            // For the log file closer
	"os"            // For the process exit code
	"path/filepath" // For the default log file path

	"github.com/adrg/xdg"    // For the XDG state directory
	"github.com/spf13/cobra" // CLI framework

	"machine-bootstrap/internal/config"
	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/state"
)

var (
	// debug flag indicates whether debug logging should be enabled.
	// It can be toggled via the `--debug` command-line flag.
	debug bool

	// configDir holds default.toml, <os>.toml and <hostname>-custom.toml.
	// Relative paths are resolved against the working directory.
	configDir string

	// statePath is the YAML file recording what the last run did.
	// Defaults to $XDG_STATE_HOME/machine-bootstrap/state.yaml.
	statePath string

	// logFile receives a JSON copy of every log line. Empty disables it.
	logFile string

	// logCloser is the open log file, set by PersistentPreRun.
	logCloser io.Closer
)

// rootCmd is the base command for the CLI tool `machine-bootstrap`.
// It provides the global flags, and without a subcommand it runs the full
// bootstrap exactly like `machine-bootstrap run`.
var rootCmd = &cobra.Command{
	Use:   "machine-bootstrap",                                       // The name of the CLI tool
	Short: "Bootstrap a workstation: Rosetta, Homebrew and dotfiles", // Short description shown in help output
	Long: `machine-bootstrap detects the host platform, loads config/default.toml,
config/<os>.toml and config/<hostname>-custom.toml, then installs Rosetta
(Apple Silicon only, when enabled), installs Homebrew and links dotfiles
into the home directory (when enabled).`,
	SilenceUsage: true,

	// PersistentPreRun runs before any subcommand and sets up logging.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
		if logFile == "" {
			return
		}
		closer, err := logger.SetLogFile(logFile)
		if err != nil {
			logger.Warn("[WARN] Logging to console only: %v\n", err)
			return
		}
		logCloser = closer
	},
	RunE: runBootstrap,
}

// Execute parses the command line and runs the selected command.
// Step failures are logged and still exit 0; only errors that stop a command
// from running at all (such as a missing base config) exit non-zero.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command and always closes the log file afterwards,
// since PersistentPostRun is skipped when a command fails.
func execute() error {
	err := rootCmd.Execute()
	closeLogFile()
	return err
}

// closeLogFile flushes the structured log file, if one was opened.
// It runs after every command, including ones that returned an error.
func closeLogFile() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		logger.Warn("[WARN] Failed to close log file: %v\n", err)
	}
	logCloser = nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir, "Directory holding the TOML config documents")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", state.DefaultPath(), "Path to the state file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", filepath.Join(xdg.StateHome, "machine-bootstrap", "bootstrap.log"), "Structured log file (empty to disable)")
}
