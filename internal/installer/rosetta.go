package installer

import (
	"bytes"
	"fmt"

	"machine-bootstrap/internal/platform"
)

const (
	RosettaName = "rosetta"

	pgrepPath          = "/usr/bin/pgrep"
	softwareUpdatePath = "/usr/sbin/softwareupdate"
)

type rosetta struct {
	runner Runner
}

// Rosetta returns the Rosetta 2 installer. Only Apple Silicon macOS is
// supported; other hosts get an installer that reports why.
func Rosetta(host platform.Host, runner Runner) Installer {
	if host.OS != platform.MacOS {
		return unsupported{name: RosettaName, err: fmt.Errorf("%w: %s", ErrUnsupportedOS, host.OS)}
	}
	if host.Arch != "arm64" {
		return unsupported{name: RosettaName, err: fmt.Errorf("%w: %s", ErrUnsupportedArch, host.Arch)}
	}
	return &rosetta{runner: runner}
}

func (r *rosetta) Name() string { return RosettaName }

// IsInstalled checks whether the oahd translation daemon is running.
func (r *rosetta) IsInstalled() bool {
	out, err := r.runner.Output(pgrepPath, "oahd")
	return err == nil && len(bytes.TrimSpace(out)) > 0
}

func (r *rosetta) Install() error {
	if err := r.runner.Stream(nil, softwareUpdatePath, "--install-rosetta", "--agree-to-license"); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, RosettaName, err)
	}
	return nil
}
