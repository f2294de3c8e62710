package installer_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"machine-bootstrap/internal/installer"
	"machine-bootstrap/internal/installer/installertest"
	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
)

var (
	appleSilicon = platform.Host{OS: platform.MacOS, Arch: "arm64", Hostname: "laptop"}
	intelMac     = platform.Host{OS: platform.MacOS, Arch: "amd64", Hostname: "old"}
	ubuntuBox    = platform.Host{OS: platform.Ubuntu, Arch: "amd64", Hostname: "box"}
	unknownHost  = platform.Host{OS: platform.Unknown, GOOS: "freebsd", Arch: "amd64", Hostname: "unknown"}
	archBox      = platform.Host{OS: platform.Unknown, GOOS: "linux", Arch: "amd64", Hostname: "arch"}
)

func TestRosettaAlreadyInstalled(t *testing.T) {
	runner := &installertest.FakeRunner{Outputs: map[string][]byte{"/usr/bin/pgrep": []byte("123\n")}}

	outcome, err := installer.Ensure(installer.Rosetta(appleSilicon, runner))
	require.NoError(t, err)

	assert.Equal(t, installer.OutcomeAlreadyInstalled, outcome)
	assert.Empty(t, runner.Streamed())
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []string{"oahd"}, runner.Calls[0].Args)
}

func TestRosettaInstalls(t *testing.T) {
	runner := &installertest.FakeRunner{Errors: map[string]error{"/usr/bin/pgrep": errors.New("exit status 1")}}

	outcome, err := installer.Ensure(installer.Rosetta(appleSilicon, runner))
	require.NoError(t, err)

	assert.Equal(t, installer.OutcomeInstalled, outcome)
	streamed := runner.Streamed()
	require.Len(t, streamed, 1)
	assert.Equal(t, "/usr/sbin/softwareupdate", streamed[0].Name)
	assert.Equal(t, []string{"--install-rosetta", "--agree-to-license"}, streamed[0].Args)
}

func TestRosettaEmptyProbeOutputMeansMissing(t *testing.T) {
	runner := &installertest.FakeRunner{Outputs: map[string][]byte{"/usr/bin/pgrep": []byte("  \n")}}

	inst := installer.Rosetta(appleSilicon, runner)
	assert.False(t, inst.IsInstalled())
}

func TestRosettaInstallFailure(t *testing.T) {
	runner := &installertest.FakeRunner{Errors: map[string]error{
		"/usr/bin/pgrep":           errors.New("exit status 1"),
		"/usr/sbin/softwareupdate": errors.New("exit status 2"),
	}}

	outcome, err := installer.Ensure(installer.Rosetta(appleSilicon, runner))

	assert.Equal(t, installer.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, installer.ErrInstallFailed)
	assert.Len(t, runner.Streamed(), 1, "no retries")
}

func TestRosettaUnsupportedPlatforms(t *testing.T) {
	tests := []struct {
		name string
		host platform.Host
		want error
	}{
		{name: "linux", host: ubuntuBox, want: installer.ErrUnsupportedOS},
		{name: "intel mac", host: intelMac, want: installer.ErrUnsupportedArch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &installertest.FakeRunner{}

			outcome, err := installer.Ensure(installer.Rosetta(tt.host, runner))

			assert.Equal(t, installer.OutcomeUnsupported, outcome)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, runner.Calls)
		})
	}
}

func TestHomebrewAlreadyInstalledRunsNoInstallCommand(t *testing.T) {
	runner := &installertest.FakeRunner{Outputs: map[string][]byte{"brew": []byte("Homebrew 4.4.0\n")}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("install script must not be fetched")
	}))
	defer server.Close()

	outcome, err := installer.Ensure(installer.Homebrew(appleSilicon, runner, server.Client(), server.URL))
	require.NoError(t, err)

	assert.Equal(t, installer.OutcomeAlreadyInstalled, outcome)
	assert.Empty(t, runner.Streamed())
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, "brew", runner.Calls[0].Name)
	assert.Equal(t, []string{"--version"}, runner.Calls[0].Args)
}

func TestHomebrewDownloadsAndRunsScript(t *testing.T) {
	const script = "#!/bin/bash\necho installing\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(script))
	}))
	defer server.Close()

	var seen string
	runner := &scriptRunner{
		FakeRunner: installertest.FakeRunner{Errors: map[string]error{"brew": errors.New("not found")}},
		onStream: func(path string) {
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			seen = string(raw)
		},
	}

	outcome, err := installer.Ensure(installer.Homebrew(ubuntuBox, runner, server.Client(), server.URL))
	require.NoError(t, err)

	assert.Equal(t, installer.OutcomeInstalled, outcome)
	assert.Equal(t, script, seen)
	streamed := runner.Streamed()
	require.Len(t, streamed, 1)
	assert.Equal(t, "/bin/bash", streamed[0].Name)
	assert.Equal(t, []string{"NONINTERACTIVE=1"}, streamed[0].Env)
	assert.NoFileExists(t, streamed[0].Args[0], "script is removed afterwards")
}

func TestHomebrewInstallsOnUnrecognisedLinux(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#!/bin/bash\n"))
	}))
	defer server.Close()
	runner := &installertest.FakeRunner{Errors: map[string]error{"brew": errors.New("not found")}}

	outcome, err := installer.Ensure(installer.Homebrew(archBox, runner, server.Client(), server.URL))
	require.NoError(t, err)

	assert.Equal(t, installer.OutcomeInstalled, outcome)
	streamed := runner.Streamed()
	require.Len(t, streamed, 1)
	assert.Equal(t, "/bin/bash", streamed[0].Name)
}

func TestHomebrewDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()
	runner := &installertest.FakeRunner{Errors: map[string]error{"brew": errors.New("not found")}}

	outcome, err := installer.Ensure(installer.Homebrew(appleSilicon, runner, server.Client(), server.URL))

	assert.Equal(t, installer.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, installer.ErrInstallFailed)
	assert.Empty(t, runner.Streamed())
}

func TestHomebrewUnsupportedOS(t *testing.T) {
	runner := &installertest.FakeRunner{}

	outcome, err := installer.Ensure(installer.Homebrew(unknownHost, runner, nil, ""))

	assert.Equal(t, installer.OutcomeUnsupported, outcome)
	assert.ErrorIs(t, err, installer.ErrUnsupportedOS)
	assert.Empty(t, runner.Calls)
}

func TestEnsureUnsupportedDoesNotAnnounceInstall(t *testing.T) {
	var out, errOut bytes.Buffer
	logger.SetOutput(&out, &errOut)
	t.Cleanup(func() { logger.SetOutput(os.Stdout, os.Stderr) })

	outcome, err := installer.Ensure(installer.Rosetta(ubuntuBox, &installertest.FakeRunner{}))

	assert.Equal(t, installer.OutcomeUnsupported, outcome)
	assert.ErrorIs(t, err, installer.ErrUnsupportedOS)
	assert.NotContains(t, out.String(), "Installing")
	assert.NotContains(t, out.String(), "Checking")
	assert.Contains(t, errOut.String(), "Skipping rosetta")
}

func TestByName(t *testing.T) {
	runner := &installertest.FakeRunner{}

	for _, name := range installer.Names() {
		inst, err := installer.ByName(name, appleSilicon, runner, nil)
		require.NoError(t, err)
		assert.Equal(t, name, inst.Name())
	}

	_, err := installer.ByName("xcode", appleSilicon, runner, nil)
	assert.ErrorIs(t, err, installer.ErrUnknownTool)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "already-installed", installer.OutcomeAlreadyInstalled.String())
	assert.Equal(t, "installed", installer.OutcomeInstalled.String())
	assert.Equal(t, "unsupported", installer.OutcomeUnsupported.String())
	assert.Equal(t, "failed", installer.OutcomeFailed.String())
}

// scriptRunner lets a test look at the downloaded script while it still exists.
type scriptRunner struct {
	installertest.FakeRunner
	onStream func(path string)
}

func (s *scriptRunner) Stream(env []string, name string, args ...string) error {
	if len(args) > 0 {
		s.onStream(args[0])
	}
	return s.FakeRunner.Stream(env, name, args...)
}
