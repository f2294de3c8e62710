package cmd

import (
	"github.com/spf13/cobra"

	"machine-bootstrap/internal/logger"
)

// runCmd runs every bootstrap step; it is also what the bare root command does.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Install Rosetta and Homebrew, then link files, as configured",
	Args:  cobra.NoArgs,
	RunE:  runBootstrap,
}

// runBootstrap loads the layered configuration and runs every step it enables.
// Steps run in order: Rosetta, Homebrew, then file linking.
// Step failures are logged and recorded in the state file; only a base
// configuration that cannot be loaded is returned as an error.
func runBootstrap(cmd *cobra.Command, args []string) error {
	s := newSession()
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	logger.Info("[INFO] Loaded configuration: %+v\n", cfg)

	report := s.boot.Run(cfg)
	s.save() // Persist outcomes even when steps failed
	printReport(report)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
