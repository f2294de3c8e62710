package installer

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
)

const (
	HomebrewName = "homebrew"

	// HomebrewScriptURL is the official install script, used on macOS and Linux alike.
	HomebrewScriptURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"
)

type homebrew struct {
	runner    Runner
	client    *http.Client
	scriptURL string
}

// Homebrew returns the Homebrew installer for host. Every Linux host is
// supported, whether or not its distribution is recognised. scriptURL
// overrides the install script location when non-empty.
func Homebrew(host platform.Host, runner Runner, client *http.Client, scriptURL string) Installer {
	if host.OS != platform.MacOS && !host.IsLinux() {
		return unsupported{name: HomebrewName, err: fmt.Errorf("%w: %s", ErrUnsupportedOS, host.OS)}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if scriptURL == "" {
		scriptURL = HomebrewScriptURL
	}
	return &homebrew{runner: runner, client: client, scriptURL: scriptURL}
}

func (h *homebrew) Name() string { return HomebrewName }

// IsInstalled reports whether `brew --version` succeeds.
func (h *homebrew) IsInstalled() bool {
	_, err := h.runner.Output("brew", "--version")
	return err == nil
}

// Install downloads the install script and runs it with bash.
func (h *homebrew) Install() error {
	tmp, err := os.CreateTemp("", "homebrew-install-*.sh")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, HomebrewName, err)
	}
	script := tmp.Name()
	tmp.Close()
	defer os.Remove(script)

	if err := downloadFile(h.client, h.scriptURL, script); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, HomebrewName, err)
	}

	if err := h.runner.Stream([]string{"NONINTERACTIVE=1"}, "/bin/bash", script); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, HomebrewName, err)
	}
	return nil
}

// downloadFile downloads the content located at the specified URL and saves it to the destination path.
// It returns an error if the download or file write fails.
func downloadFile(client *http.Client, url, destPath string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close response body: %s\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to GET %s: HTTP status %d", url, resp.StatusCode)
	}

	// Create or truncate the file at destPath to write the downloaded content
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close destination file: %s\n", cerr)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write response to file: %w", err)
	}

	logger.Debug("[DEBUG] Downloaded %s to: %s\n", url, destPath)
	return nil
}
