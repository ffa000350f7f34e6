package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"nodekit/internal/apperr"
)

// ToolCommand is a ready to run invocation. Managed commands resolve Exe in
// PathPrefix only; passthrough commands search SearchPath. Deferred is
// returned by Run only when the executable cannot be found.
type ToolCommand struct {
	Exe        string
	Args       []string
	PathPrefix []string
	SearchPath string
	Managed    bool
	Deferred   error
}

// Path is the PATH the command runs with.
func (c *ToolCommand) Path() string {
	parts := append([]string(nil), c.PathPrefix...)
	if c.SearchPath != "" {
		parts = append(parts, c.SearchPath)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Lookup finds the executable.
func (c *ToolCommand) Lookup() (string, error) {
	search := c.Path()
	if c.Managed {
		search = strings.Join(c.PathPrefix, string(os.PathListSeparator))
	}
	if exe, ok := lookPath(c.Exe, search); ok {
		return exe, nil
	}
	if c.Deferred != nil {
		return "", c.Deferred
	}
	return "", apperr.New(apperr.CodeExec, "%s not found", c.Exe)
}

// Stdio carries the streams handed to the child process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// InterruptGrace is how long a child has to exit after being interrupted
// by a cancelled context before it is killed.
const InterruptGrace = 10 * time.Second

// Run executes the command and waits for it. A non-zero exit surfaces as
// *exec.ExitError. Cancelling ctx interrupts the child rather than killing
// it. While the child runs, interrupts aimed at this process are swallowed:
// the terminal delivers Ctrl-C to the child too, and the child decides
// when to exit.
func (c *ToolCommand) Run(ctx context.Context, stdio Stdio) error {
	exe, err := c.Lookup()
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, exe, c.Args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio.In, stdio.Out, stdio.Err
	cmd.Env = withPath(os.Environ(), c.Path())
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = InterruptGrace

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		if st := cmd.ProcessState; st != nil && st.Success() {
			return nil
		}
		return apperr.Wrap(apperr.CodeExec, err, "could not run %s", exe)
	}
	return nil
}

func interrupt(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}

// ExitStatus reports the status a shell would give for a finished child:
// its exit code, or 128+n when signal n killed it. The bool is false when
// err does not come from a child exit.
func ExitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code, true
	}
	if ws, isWait := exitErr.Sys().(syscall.WaitStatus); isWait && ws.Signaled() {
		return 128 + int(ws.Signal()), true
	}
	return 1, true
}

func withPath(env []string, path string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(strings.ToUpper(kv), "PATH=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+path)
}

// lookPath searches dirs in path for name the way the shell would.
func lookPath(name, path string) (string, bool) {
	if strings.ContainsRune(name, filepath.Separator) {
		return name, isExecutable(name)
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		for _, candidate := range candidates(filepath.Join(dir, name)) {
			if isExecutable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func candidates(base string) []string {
	if runtime.GOOS != "windows" {
		return []string{base}
	}
	return []string{base + ".exe", base + ".cmd", base + ".bat", base}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// withoutDir removes dir from a PATH list so shims never resolve to
// themselves.
func withoutDir(path, dir string) string {
	if dir == "" {
		return path
	}
	clean := filepath.Clean(dir)
	var kept []string
	for _, p := range filepath.SplitList(path) {
		if p == "" || filepath.Clean(p) == clean {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, string(os.PathListSeparator))
}
