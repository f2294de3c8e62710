package cmd

import (
	"github.com/spf13/cobra"

	"machine-bootstrap/internal/bootstrap"
	"machine-bootstrap/internal/logger"
)

var (
	// linkSource and linkTarget override file_locations for `link`.
	linkSource string
	linkTarget string

	// unlinkTarget overrides link_target_dir for `unlink`.
	unlinkTarget string

	linkOpts bootstrap.LinkOptions
)

// linkCmd links files regardless of the link_files setting.
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Stage the dotfiles tree in the home directory and symlink it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		cfg, err := s.loadConfig()
		if err != nil {
			return err
		}

		loc := cfg.FileLocations
		if linkSource != "" {
			loc.TextfilesDir = linkSource
		}
		if linkTarget != "" {
			loc.LinkTargetDir = linkTarget
		}

		res, err := s.boot.Link(loc, linkOpts)
		s.save()
		if err != nil {
			logger.Error("[ERROR] Linking failed: %v\n", err)
			return nil
		}
		logger.Info("[INFO] Linked %d entries, copied %d files, skipped %d\n", len(res.Linked), res.Copied, len(res.Skipped))
		return nil
	},
}

// unlinkCmd removes the symlinks that point into the staging directory.
var unlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove home-directory symlinks that point into the staging directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		cfg, err := s.loadConfig()
		if err != nil {
			return err
		}

		home := cfg.FileLocations.LinkTargetDir
		if unlinkTarget != "" {
			home = unlinkTarget
		}

		res, err := s.boot.Unlink(home)
		s.save()
		if err != nil {
			logger.Error("[ERROR] Unlinking failed: %v\n", err)
			return nil
		}
		logger.Info("[INFO] Removed %d links\n", len(res.Removed))
		return nil
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkSource, "source", "", "Source tree or archive (overrides textfiles_dir)")
	linkCmd.Flags().StringVar(&linkTarget, "target", "", "Home directory to link into (overrides link_target_dir)")
	linkCmd.Flags().BoolVar(&linkOpts.Direct, "direct", false, "Link straight from the source without staging; never overwrite")
	linkCmd.Flags().BoolVar(&linkOpts.LinkDirectories, "dirs", false, "Also symlink top-level directories")

	unlinkCmd.Flags().StringVar(&unlinkTarget, "target", "", "Home directory to clean (overrides link_target_dir)")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
}
