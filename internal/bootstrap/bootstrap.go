// Package bootstrap sequences the setup steps for a resolved configuration:
// Rosetta, then Homebrew, then linking files. A failing step is reported and
// the remaining steps still run.
package bootstrap

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"

	"machine-bootstrap/internal/archive"
	"machine-bootstrap/internal/config"
	"machine-bootstrap/internal/installer"
	"machine-bootstrap/internal/linker"
	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
	"machine-bootstrap/internal/state"
)

// Step names used in reports and the state file.
const (
	StepRosetta  = installer.RosettaName
	StepHomebrew = installer.HomebrewName
	StepLink     = "link"
)

// Step statuses besides installer outcomes.
const (
	StatusSkipped = "skipped"
	StatusLinked  = "linked"
	StatusFailed  = "failed"
)

// ErrArchiveDirect is returned when direct linking is asked for an archive
// source; the links would point into a temporary directory.
var ErrArchiveDirect = errors.New("direct linking needs a directory source, not an archive")

// Options wires the orchestrator to its collaborators.
// - Fs: filesystem used by the linker.
// - Host: detected platform, selects installer implementations.
// - Runner: executes installer commands.
// - HTTPClient / HomebrewScriptURL: used to fetch the Homebrew install script.
// - State: updated with every outcome; may be nil.
// - Now: clock for state timestamps; defaults to time.Now.
type Options struct {
	Fs                afero.Fs
	Host              platform.Host
	Runner            installer.Runner
	HTTPClient        *http.Client
	HomebrewScriptURL string
	State             *state.State
	Now               func() time.Time
}

// LinkOptions selects the linking strategy.
type LinkOptions struct {
	Direct          bool // link from the source without staging
	LinkDirectories bool // also link top-level directories when staging
}

// Step is the outcome of one orchestrated step.
type Step struct {
	Name   string
	Status string
	Err    error
}

// Report collects the steps of a run in execution order.
type Report struct {
	Steps []Step
	Link  *linker.Result
}

// Failed returns the steps that ended in an error.
func (r *Report) Failed() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Bootstrapper runs the bootstrap steps.
type Bootstrapper struct {
	opts Options
}

// New returns a Bootstrapper, filling in defaults for unset options.
func New(opts Options) *Bootstrapper {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Runner == nil {
		opts.Runner = installer.NewExecRunner()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.State == nil {
		opts.State = state.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bootstrapper{opts: opts}
}

// State returns the state updated by this bootstrapper.
func (b *Bootstrapper) State() *state.State {
	return b.opts.State
}

// Run executes every step cfg asks for. It never stops early.
func (b *Bootstrapper) Run(cfg config.Config) *Report {
	host := b.opts.Host
	st := b.opts.State
	st.LastRun = b.opts.Now()
	st.Hostname = host.Hostname
	st.Platform = host.OS.String()
	st.Arch = host.Arch

	report := &Report{}

	switch {
	case !cfg.Settings.InstallRosetta:
		logger.Debug("[DEBUG] Rosetta installation disabled by configuration\n")
		report.Steps = append(report.Steps, Step{Name: StepRosetta, Status: StatusSkipped})
	case host.OS != platform.MacOS:
		logger.Info("[INFO] Skipping Rosetta: not running on macOS\n")
		report.Steps = append(report.Steps, Step{Name: StepRosetta, Status: StatusSkipped})
	default:
		report.Steps = append(report.Steps, b.Install(installer.Rosetta(host, b.opts.Runner)))
	}

	report.Steps = append(report.Steps, b.Install(b.homebrew()))

	if cfg.Settings.LinkFiles {
		res, err := b.Link(cfg.FileLocations, LinkOptions{})
		report.Link = res
		step := Step{Name: StepLink, Status: StatusLinked}
		if err != nil {
			step.Status, step.Err = StatusFailed, err
		}
		report.Steps = append(report.Steps, step)
	} else {
		logger.Debug("[DEBUG] File linking disabled by configuration\n")
		report.Steps = append(report.Steps, Step{Name: StepLink, Status: StatusSkipped})
	}

	return report
}

// Install ensures inst is installed and records the outcome.
func (b *Bootstrapper) Install(inst installer.Installer) Step {
	outcome, err := installer.Ensure(inst)
	b.opts.State.RecordInstaller(inst.Name(), outcome.String(), err, b.opts.Now())
	return Step{Name: inst.Name(), Status: outcome.String(), Err: err}
}

// InstallByName looks up and runs a single installer.
func (b *Bootstrapper) InstallByName(name string) (Step, error) {
	if name == installer.HomebrewName {
		return b.Install(b.homebrew()), nil
	}
	inst, err := installer.ByName(name, b.opts.Host, b.opts.Runner, b.opts.HTTPClient)
	if err != nil {
		return Step{Name: name, Status: StatusFailed, Err: err}, err
	}
	return b.Install(inst), nil
}

func (b *Bootstrapper) homebrew() installer.Installer {
	return installer.Homebrew(b.opts.Host, b.opts.Runner, b.opts.HTTPClient, b.opts.HomebrewScriptURL)
}

// Link mirrors loc.TextfilesDir into loc.LinkTargetDir. Archive sources are
// extracted to a temporary directory first and copied into staging from there.
func (b *Bootstrapper) Link(loc config.FileLocations, opts LinkOptions) (*linker.Result, error) {
	source := loc.TextfilesDir
	if archive.IsArchive(source) {
		if opts.Direct {
			logger.Error("[ERROR] %v: %s\n", ErrArchiveDirect, source)
			return &linker.Result{}, fmt.Errorf("%w: %s", ErrArchiveDirect, source)
		}
		tmp, err := os.MkdirTemp("", "machine-bootstrap-*")
		if err != nil {
			return &linker.Result{}, fmt.Errorf("failed to create extraction directory: %w", err)
		}
		defer os.RemoveAll(tmp)

		logger.Info("[INFO] Extracting %s\n", source)
		root, err := archive.Extract(source, tmp)
		if err != nil {
			logger.Error("[ERROR] %v\n", err)
			return &linker.Result{}, err
		}
		source = root
	}

	var (
		res *linker.Result
		err error
	)
	if opts.Direct {
		res, err = linker.LinkDirect(b.opts.Fs, source, loc.LinkTargetDir)
	} else {
		l := linker.New(b.opts.Fs, source, loc.LinkTargetDir)
		l.LinkDirectories = opts.LinkDirectories
		res, err = l.Run()
	}

	now := b.opts.Now()
	for _, link := range res.Linked {
		b.opts.State.RecordLink(link.Target, link.Source, now)
	}
	if len(res.Skipped) > 0 {
		logger.Warn("[WARN] %d entries were skipped while linking\n", len(res.Skipped))
	}
	return res, err
}

// Unlink removes the staged symlinks from home and forgets them.
func (b *Bootstrapper) Unlink(home string) (*linker.Result, error) {
	res, err := linker.Unlink(b.opts.Fs, home, linker.DefaultStagingName)
	for _, target := range res.Removed {
		b.opts.State.ForgetLink(target)
	}
	return res, err
}
