package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"machine-bootstrap/internal/state"
)

// configCmd prints the resolved configuration and where it came from.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		cfg, err := s.loadConfig()
		if err != nil {
			return err
		}
		out, err := cfg.TOML()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "# host: %s (%s/%s)\n", s.host.Hostname, s.host.OS, s.host.Arch)
		for _, src := range s.resolved.Sources {
			fmt.Fprintf(w, "# from: %s\n", src)
		}
		fmt.Fprint(w, out)
		return nil
	},
}

// statusCmd prints what the last run recorded.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the last run did",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := state.Load(statePath).YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
}
