package installer

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"machine-bootstrap/internal/logger"
)

// Runner executes external commands on behalf of the installers.
// Output captures stdout for probes; Stream attaches the command to the
// terminal for long-running, interactive installs.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
	Stream(env []string, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the process's stdout and stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Output runs the command and returns its standard output.
func (r *ExecRunner) Output(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	return cmd.Output()
}

// Stream runs the command with extra environment entries appended to the
// current environment, forwarding its output and stdin.
func (r *ExecRunner) Stream(env []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	return cmd.Run()
}
