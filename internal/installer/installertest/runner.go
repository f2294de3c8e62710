// Package installertest provides a scripted Runner for tests.
package installertest

// Call is one recorded command invocation.
type Call struct {
	Name     string
	Args     []string
	Env      []string
	Streamed bool
}

// FakeRunner records every command and answers from its maps, keyed by the
// command name. A missing entry means empty output and success.
type FakeRunner struct {
	Outputs map[string][]byte
	Errors  map[string]error
	Calls   []Call
}

// Output records a captured command.
func (f *FakeRunner) Output(name string, args ...string) ([]byte, error) {
	f.Calls = append(f.Calls, Call{Name: name, Args: args})
	return f.Outputs[name], f.Errors[name]
}

// Stream records an attached command.
func (f *FakeRunner) Stream(env []string, name string, args ...string) error {
	f.Calls = append(f.Calls, Call{Name: name, Args: args, Env: env, Streamed: true})
	return f.Errors[name]
}

// Streamed returns the attached (install) commands that were run.
func (f *FakeRunner) Streamed() []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Streamed {
			out = append(out, c)
		}
	}
	return out
}
