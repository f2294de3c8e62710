// Package installer provides idempotent installers for the tools the
// bootstrap sets up. Each installer probes for the tool first and only runs
// the platform's install command when the probe fails.
package installer

import (
	"errors"
	"fmt"
	"net/http"

	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
)

var (
	ErrUnsupportedOS   = errors.New("unsupported operating system")
	ErrUnsupportedArch = errors.New("unsupported architecture")
	ErrInstallFailed   = errors.New("installation failed")
	ErrUnknownTool     = errors.New("unknown installer")
)

// Installer is a tool that can be probed for and installed.
type Installer interface {
	Name() string
	IsInstalled() bool
	Install() error
}

// Outcome is the result of Ensure.
type Outcome int

const (
	OutcomeAlreadyInstalled Outcome = iota
	OutcomeInstalled
	OutcomeUnsupported
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyInstalled:
		return "already-installed"
	case OutcomeInstalled:
		return "installed"
	case OutcomeUnsupported:
		return "unsupported"
	default:
		return "failed"
	}
}

// Ensure installs inst unless its probe reports it is already present.
// There are no retries; a failed install is returned to the caller.
func Ensure(inst Installer) (Outcome, error) {
	if u, ok := inst.(unsupported); ok {
		logger.Warn("[WARN] Skipping %s: %v\n", u.name, u.err)
		return OutcomeUnsupported, u.err
	}

	logger.Info("[INFO] Checking for %s installation...\n", inst.Name())
	if inst.IsInstalled() {
		logger.Info("[INFO] %s is already installed.\n", inst.Name())
		return OutcomeAlreadyInstalled, nil
	}

	logger.Info("[INFO] Installing %s...\n", inst.Name())
	if err := inst.Install(); err != nil {
		if errors.Is(err, ErrUnsupportedOS) || errors.Is(err, ErrUnsupportedArch) {
			logger.Warn("[WARN] %s: %v\n", inst.Name(), err)
			return OutcomeUnsupported, err
		}
		logger.Error("[ERROR] Failed to install %s: %v\n", inst.Name(), err)
		return OutcomeFailed, err
	}

	logger.Info("[INFO] %s has been successfully installed.\n", inst.Name())
	return OutcomeInstalled, nil
}

// Names lists the installers ByName knows.
func Names() []string {
	return []string{RosettaName, HomebrewName}
}

// ByName returns the installer called name for host.
func ByName(name string, host platform.Host, runner Runner, client *http.Client) (Installer, error) {
	switch name {
	case RosettaName:
		return Rosetta(host, runner), nil
	case HomebrewName:
		return Homebrew(host, runner, client, ""), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// unsupported stands in for an installer on a platform it cannot serve.
type unsupported struct {
	name string
	err  error
}

func (u unsupported) Name() string      { return u.name }
func (u unsupported) IsInstalled() bool { return false }
func (u unsupported) Install() error    { return u.err }
