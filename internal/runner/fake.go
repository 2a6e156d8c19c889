package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse scripts one command's outcome for the Fake runner.
type FakeResponse struct {
	Output []byte
	Err    error
}

// Fake is a scripted Runner for tests. Commands are keyed by the joined
// command line; unmatched commands fail loudly so tests never silently
// exercise an unscripted path.
type Fake struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	missing   map[string]bool
	calls     []string
}

// NewFake returns an empty scripted runner.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]FakeResponse),
		missing:   make(map[string]bool),
	}
}

// Script registers the response for the exact command line.
func (f *Fake) Script(commandLine string, output string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[commandLine] = FakeResponse{Output: []byte(output), Err: err}
}

// MarkMissing makes LookPath fail for the named binary.
func (f *Fake) MarkMissing(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[name] = true
}

// Calls returns the command lines executed so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.RunEnv(ctx, nil, name, args...)
}

func (f *Fake) RunEnv(ctx context.Context, _ []string, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.responses[line]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unscripted command: %s", line)
	}
	return resp.Output, resp.Err
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", fmt.Errorf("%s: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}
