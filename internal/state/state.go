package state

import (
	"os"            // For file system operations like reading and writing files
	"path/filepath" // For creating the parent directory of the state file
	"time"          // For run and step timestamps

	"github.com/adrg/xdg" // For the XDG state directory
	"gopkg.in/yaml.v3"    // For YAML encoding and decoding of the state file

	"machine-bootstrap/internal/logger" // Custom logger package for logging errors and debug info
)

// DefaultRelPath is the state file location relative to $XDG_STATE_HOME.
// Override it per invocation with the --state flag.
const DefaultRelPath = "machine-bootstrap/state.yaml"

// InstallerState records the last outcome of an installer.
// It stores the outcome name, the error text when there was one,
// and when the installer last ran.
type InstallerState struct {
	Status  string    `yaml:"status"`            // Outcome name, e.g. "installed" or "already-installed"
	Message string    `yaml:"message,omitempty"` // Error text when the installer did not succeed
	At      time.Time `yaml:"at"`                // When the installer last ran
}

// LinkState records a symlink created or confirmed in the home directory.
// It is removed again when the link is removed by unlink.
type LinkState struct {
	Source string    `yaml:"source"` // Staged file the link points to
	At     time.Time `yaml:"at"`     // When the link was last created or confirmed
}

// State is what the last bootstrap run did on this machine.
// It includes the host it ran on, the config documents applied, and maps of
// installer outcomes and links keyed by their unique identifiers.
type State struct {
	LastRun    time.Time                 `yaml:"last_run"`   // Start of the last full run
	Hostname   string                    `yaml:"hostname"`   // Short hostname used to pick the custom document
	Platform   string                    `yaml:"platform"`   // OS identifier, e.g. "macos" or "ubuntu"
	Arch       string                    `yaml:"arch"`       // CPU architecture, e.g. "arm64"
	Sources    []string                  `yaml:"sources"`    // Config documents that were applied
	Installers map[string]InstallerState `yaml:"installers"` // Keyed by installer name
	Links      map[string]LinkState      `yaml:"links"`      // Keyed by link path in the home directory
}

// New returns an empty State with initialized maps.
// Callers can record into it without nil checks.
func New() *State {
	return &State{
		Installers: make(map[string]InstallerState),
		Links:      make(map[string]LinkState),
	}
}

// DefaultPath returns the state file path under $XDG_STATE_HOME,
// typically ~/.local/state/machine-bootstrap/state.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, DefaultRelPath)
}

// Load loads the saved state from a YAML file at the given path.
// If the file does not exist or cannot be parsed, it returns a new empty State.
// It ensures the Installers and Links maps are non-nil.
func Load(path string) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("[DEBUG] No state at %s: %v\n", path, err)
		return New()
	}

	var st State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		logger.Warn("[WARN] Ignoring unreadable state file %s: %v\n", path, err)
		return New()
	}

	// Ensure maps are initialized if the file contained null for these fields
	if st.Installers == nil {
		st.Installers = make(map[string]InstallerState)
	}
	if st.Links == nil {
		st.Links = make(map[string]LinkState)
	}
	return &st
}

// Save writes st to path as YAML, creating the parent directory.
// Parameters:
// - path: destination file, usually DefaultPath() or the --state flag.
// - st: state to persist.
// Errors are logged but not propagated; a run never fails on its state file.
func Save(path string, st *State) {
	out, err := yaml.Marshal(st)
	if err != nil {
		logger.Error("[ERROR] Failed to marshal state: %v\n", err)
		return
	}

	logger.Debug("[DEBUG] Writing state to %s:\n%s\n", path, string(out))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("[ERROR] Failed to create state directory for %s: %v\n", path, err)
		return
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		logger.Error("[ERROR] Failed to write state file %s: %v\n", path, err)
	}
}

// RecordInstaller stores the outcome of an installer run.
// A non-nil err is kept as its message; the previous entry is replaced.
func (s *State) RecordInstaller(name, status string, err error, at time.Time) {
	entry := InstallerState{Status: status, At: at}
	if err != nil {
		entry.Message = err.Error()
	}
	s.Installers[name] = entry
}

// RecordLink stores a symlink created or confirmed at target.
func (s *State) RecordLink(target, source string, at time.Time) {
	s.Links[target] = LinkState{Source: source, At: at}
}

// ForgetLink drops target from the state. Unknown targets are ignored.
func (s *State) ForgetLink(target string) {
	delete(s.Links, target)
}

// YAML renders the state in the same format as the state file,
// for the status command.
func (s *State) YAML() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
