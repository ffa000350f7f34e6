package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodekit/internal/apperr"
	"nodekit/internal/platform"
)

var on = Policy{InterceptGlobalInstalls: true}

func TestInterceptNpm(t *testing.T) {
	cases := []struct {
		args    []string
		blocked bool
		pkg     string
	}{
		{args: []string{"npm", "-g", "install", "left-pad"}, blocked: true, pkg: "left-pad"},
		{args: []string{"npm", "install", "-g", "left-pad"}, blocked: true, pkg: "left-pad"},
		{args: []string{"npm", "install", "left-pad", "--global"}, blocked: true, pkg: "left-pad"},
		{args: []string{"npm", "i", "-g", "typescript"}, blocked: true, pkg: "typescript"},
		{args: []string{"npm", "isntall", "--global", "typescript"}, blocked: true, pkg: "typescript"},
		{args: []string{"npm", "--global", "add", "@vue/cli"}, blocked: true, pkg: "@vue/cli"},
		{args: []string{"npm", "install", "-g"}, blocked: true},
		{args: []string{"npm", "run", "build"}},
		{args: []string{"npm", "install", "left-pad"}},
		{args: []string{"npm", "-g", "ls"}},
		{args: []string{"npm", "-g"}},
		{args: []string{"npm", "--save", "install", "left-pad"}},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			err := Intercept("npm", tc.args, on)
			if !tc.blocked {
				assert.NoError(t, err)
				return
			}
			var nge *NoGlobalInstallsError
			require.ErrorAs(t, err, &nge)
			assert.Equal(t, tc.pkg, nge.Package)
			assert.Equal(t, tc.pkg != "", nge.HasPackage)
			assert.True(t, apperr.Is(err, apperr.CodeNoGlobalInstall))
		})
	}
}

func TestInterceptYarnGlobalAdd(t *testing.T) {
	err := Intercept("yarn", []string{"yarn", "global", "add", "serve"}, on)
	var nge *NoGlobalInstallsError
	require.ErrorAs(t, err, &nge)
	assert.Equal(t, "serve", nge.Package)
	assert.Contains(t, err.Error(), "yarn add")

	assert.NoError(t, Intercept("yarn", []string{"yarn", "add", "serve"}, on))
	assert.NoError(t, Intercept("yarn", []string{"yarn", "global", "list"}, on))
}

func TestInterceptDisabledByPolicy(t *testing.T) {
	assert.NoError(t, Intercept("npm", []string{"npm", "install", "-g", "left-pad"}, Policy{}))
	assert.NoError(t, Intercept("node", []string{"node", "install", "-g", "x"}, on))
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "npm", ToolName("/home/me/.nodekit/bin/npm"))
	assert.Equal(t, "node", ToolName(`node.exe`))
	assert.Equal(t, "", ToolName("nodekit"))
}

type harness struct {
	d         *Dispatcher
	checkouts int
}

func newHarness(t *testing.T, p *platform.Platform) *harness {
	t.Helper()
	h := &harness{}
	root := t.TempDir()
	h.d = &Dispatcher{
		Platform: func() (*platform.Platform, error) { return p, nil },
		Checkout: func(_ context.Context, p *platform.Platform) (*platform.Image, error) {
			h.checkouts++
			img := &platform.Image{Root: root, Node: p.Node.String()}
			if p.Yarn != nil {
				img.Yarn = p.Yarn.String()
			}
			return img, nil
		},
		Policy:  on,
		ShimDir: "/home/me/.nodekit/bin",
		Getenv: func(key string) string {
			if key == "PATH" {
				return strings.Join([]string{"/home/me/.nodekit/bin", "/usr/local/bin", "/usr/bin"}, string(os.PathListSeparator))
			}
			return ""
		},
	}
	return h
}

func pinned(node, yarn string) *platform.Platform {
	p := &platform.Platform{Node: semver.MustParse(node), Source: platform.SourceProject}
	if yarn != "" {
		p.Yarn = semver.MustParse(yarn)
	}
	return p
}

func TestCommandWithoutPlatformPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	cmd, err := h.d.Command(context.Background(), []string{"npm", "install", "-g", "left-pad"})
	require.NoError(t, err)

	assert.False(t, cmd.Managed)
	assert.Equal(t, "npm", cmd.Exe)
	assert.Equal(t, []string{"install", "-g", "left-pad"}, cmd.Args)
	assert.NotContains(t, cmd.SearchPath, ".nodekit")
	assert.True(t, errors.Is(cmd.Deferred, ErrNoPlatform))
	assert.Zero(t, h.checkouts)
}

func TestCommandInterceptsBeforeCheckout(t *testing.T) {
	h := newHarness(t, pinned("18.19.0", ""))
	_, err := h.d.Command(context.Background(), []string{"npm", "-g", "install", "left-pad"})
	var nge *NoGlobalInstallsError
	require.ErrorAs(t, err, &nge)
	assert.Equal(t, "left-pad", nge.Package)
	assert.Zero(t, h.checkouts)
}

func TestCommandManaged(t *testing.T) {
	h := newHarness(t, pinned("18.19.0", "1.22.19"))
	cmd, err := h.d.Command(context.Background(), []string{"yarn", "build"})
	require.NoError(t, err)

	assert.True(t, cmd.Managed)
	assert.Nil(t, cmd.Deferred)
	require.Len(t, cmd.PathPrefix, 2)
	assert.Contains(t, cmd.PathPrefix[0], filepath.Join("node", "18.19.0"))
	assert.Contains(t, cmd.PathPrefix[1], filepath.Join("yarn", "1.22.19"))
	assert.True(t, strings.HasPrefix(cmd.Path(), cmd.PathPrefix[0]))
	assert.NotContains(t, cmd.SearchPath, ".nodekit")
	assert.Equal(t, 1, h.checkouts)
}

func TestCommandUnpinnedYarnPassesThrough(t *testing.T) {
	h := newHarness(t, pinned("18.19.0", ""))
	cmd, err := h.d.Command(context.Background(), []string{"yarn", "install"})
	require.NoError(t, err)
	assert.False(t, cmd.Managed)
	assert.True(t, apperr.Is(cmd.Deferred, apperr.CodeNoPlatform))
	assert.Zero(t, h.checkouts)
}

func TestCommandUnpinnedYarnGlobalAddPassesThrough(t *testing.T) {
	h := newHarness(t, pinned("18.19.0", ""))
	cmd, err := h.d.Command(context.Background(), []string{"yarn", "global", "add", "serve"})
	require.NoError(t, err)
	assert.False(t, cmd.Managed)
	assert.Equal(t, []string{"global", "add", "serve"}, cmd.Args)
	assert.True(t, apperr.Is(cmd.Deferred, apperr.CodeNoPlatform))
	assert.Zero(t, h.checkouts)

	_, err = h.d.Command(context.Background(), []string{"npm", "install", "-g", "serve"})
	var blocked *NoGlobalInstallsError
	assert.ErrorAs(t, err, &blocked)

	h = newHarness(t, pinned("18.19.0", "1.22.19"))
	_, err = h.d.Command(context.Background(), []string{"yarn", "global", "add", "serve"})
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "yarn", blocked.Tool)
	assert.Zero(t, h.checkouts)
}

func TestCommandPropagatesPlatformError(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("bad manifest")
	h.d.Platform = func() (*platform.Platform, error) { return nil, boom }
	_, err := h.d.Command(context.Background(), []string{"node", "-v"})
	assert.ErrorIs(t, err, boom)
}

func TestCommandRejectsUnknownTool(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.d.Command(context.Background(), []string{"pnpm", "install"})
	assert.True(t, apperr.Is(err, apperr.CodeUnknownTool))
}

func TestLookupReturnsDeferredWhenMissing(t *testing.T) {
	cmd := &ToolCommand{Exe: "definitely-not-installed-tool", SearchPath: t.TempDir(), Deferred: ErrNoPlatform}
	_, err := cmd.Lookup()
	assert.ErrorIs(t, err, ErrNoPlatform)

	cmd.Deferred = nil
	_, err = cmd.Lookup()
	assert.True(t, apperr.Is(err, apperr.CodeExec))
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755))
}

func TestManagedLookupIgnoresSystemPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools")
	}
	system := t.TempDir()
	writeScript(t, system, "node", "#!/bin/sh\nexit 0\n")
	cmd := &ToolCommand{Exe: "node", PathPrefix: []string{t.TempDir()}, SearchPath: system, Managed: true}
	_, err := cmd.Lookup()
	assert.True(t, apperr.Is(err, apperr.CodeExec))
}

func TestRunAugmentsPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools")
	}
	bin := t.TempDir()
	writeScript(t, bin, "node", "#!/bin/sh\necho \"$1:$PATH\"\n")
	cmd := &ToolCommand{Exe: "node", Args: []string{"hello"}, PathPrefix: []string{bin}, SearchPath: "/usr/bin:/bin", Managed: true}

	var out bytes.Buffer
	require.NoError(t, cmd.Run(context.Background(), Stdio{Out: &out, Err: &out}))
	assert.Equal(t, "hello:"+bin+":/usr/bin:/bin\n", out.String())
}

func TestRunCancelInterruptsChildAndWaits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools")
	}
	dir := t.TempDir()
	ready := filepath.Join(dir, "ready")
	cleaned := filepath.Join(dir, "cleaned")
	bin := filepath.Join(dir, "bin")
	writeScript(t, bin, "node", "#!/bin/sh\n"+
		"trap 'sleep 0.3; touch \""+cleaned+"\"; exit 130' INT\n"+
		"touch \""+ready+"\"\n"+
		"while :; do sleep 0.05; done\n")
	cmd := &ToolCommand{Exe: "node", PathPrefix: []string{bin}, SearchPath: "/usr/bin:/bin", Managed: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.Run(ctx, Stdio{}) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(ready)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	var err error
	select {
	case err = <-done:
	case <-time.After(InterruptGrace):
		t.Fatal("child did not exit after interrupt")
	}
	_, statErr := os.Stat(cleaned)
	assert.NoError(t, statErr, "child cleanup should finish before Run returns")
	code, ok := ExitStatus(err)
	assert.True(t, ok)
	assert.Equal(t, 130, code)
}

func TestExitStatusReportsCodesAndSignals(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools")
	}
	bin := t.TempDir()
	writeScript(t, bin, "node", "#!/bin/sh\nexit 3\n")
	writeScript(t, bin, "npm", "#!/bin/sh\nkill -TERM $$\n")

	err := (&ToolCommand{Exe: "node", PathPrefix: []string{bin}, Managed: true}).Run(context.Background(), Stdio{})
	code, ok := ExitStatus(err)
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	err = (&ToolCommand{Exe: "npm", PathPrefix: []string{bin}, Managed: true}).Run(context.Background(), Stdio{})
	code, ok = ExitStatus(err)
	assert.True(t, ok)
	assert.Equal(t, 128+15, code)

	_, ok = ExitStatus(errors.New("not a child"))
	assert.False(t, ok)
}
