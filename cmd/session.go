package cmd

import (
	"github.com/adrg/xdg"
	"github.com/spf13/afero"

	"machine-bootstrap/internal/bootstrap"
	"machine-bootstrap/internal/config"
	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
	"machine-bootstrap/internal/state"
)

// session bundles what every command needs: the detected host, the loaded
// state and an orchestrator wired to the real filesystem and exec runner.
type session struct {
	fs       afero.Fs                // Real filesystem shared by config loading and linking
	host     platform.Host           // Detected OS, kernel, architecture and hostname
	resolved *config.Resolved        // Set by loadConfig
	state    *state.State            // Loaded from --state, saved by save
	boot     *bootstrap.Bootstrapper // Orchestrator wired to fs, host and state
}

func newSession() *session {
	fs := afero.NewOsFs()
	host := platform.Detect(fs)
	st := state.Load(statePath)
	return &session{
		fs:    fs,
		host:  host,
		state: st,
		boot:  bootstrap.New(bootstrap.Options{Fs: fs, Host: host, State: st}),
	}
}

// loadConfig resolves the layered configuration for the session's host.
func (s *session) loadConfig() (config.Config, error) {
	res, err := config.Load(s.fs, configDir, s.host.OS, s.host.Hostname)
	if err != nil {
		logger.Error("[ERROR] Failed to load configuration: %v\n", err)
		return config.Config{}, err
	}
	s.resolved = res
	s.state.Sources = res.Sources
	return res.Config.Expand(xdg.Home), nil
}

// save persists the session state to --state. Failures are only logged.
func (s *session) save() {
	state.Save(statePath, s.state)
}

// printReport logs one line per step and a closing summary.
func printReport(report *bootstrap.Report) {
	for _, step := range report.Steps {
		switch {
		case step.Err != nil:
			logger.Error("[ERROR] %s: %s (%v)\n", step.Name, step.Status, step.Err)
		case step.Status == bootstrap.StatusSkipped:
			logger.Debug("[DEBUG] %s: %s\n", step.Name, step.Status)
		default:
			logger.Info("[INFO] %s: %s\n", step.Name, step.Status)
		}
	}
	if failed := report.Failed(); len(failed) > 0 {
		logger.Warn("[WARN] Bootstrap finished with %d failed step(s)\n", len(failed))
		return
	}
	logger.Info("[INFO] Bootstrap finished\n")
}
