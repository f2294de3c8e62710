package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"machine-bootstrap/internal/installer"
	"machine-bootstrap/internal/logger"
)

// installCmd runs a single installer, ignoring the configuration flags.
// The argument must be one of installer.Names(); the installer still probes
// first and does nothing when the tool is already present.
var installCmd = &cobra.Command{
	Use:       fmt.Sprintf("install {%s}", strings.Join(installer.Names(), "|")),
	Short:     "Install one tool if it is not already present",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: installer.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		step, err := s.boot.InstallByName(args[0])
		if err != nil {
			return err
		}
		s.save()
		if step.Err == nil {
			logger.Info("[INFO] %s: %s\n", step.Name, step.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
