package embed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type osKiller struct{ err error }

func (k osKiller) KillProcess(pid int) error {
	if k.err != nil {
		return k.err
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func newShellLifecycle(t *testing.T, killer processKiller) *ProcessLifecycle {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	return NewProcessLifecycle(ProcessConfig{
		Executable:    "sh",
		Args:          []string{"-c", "sleep 30"},
		WorkspaceRoot: t.TempDir(),
	}, killer, nil)
}

func waitExit(t *testing.T, p *ProcessLifecycle, pid int) {
	t.Helper()
	select {
	case got := <-p.Exited():
		assert.Equal(t, pid, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("pid %d did not exit", pid)
	}
}

func TestNewWorkspaceIsUnique(t *testing.T) {
	root := t.TempDir()
	p := NewProcessLifecycle(ProcessConfig{WorkspaceRoot: root}, osKiller{}, nil)

	a, b := p.NewWorkspace(), p.NewWorkspace()
	assert.NotEqual(t, a, b)
	assert.Equal(t, root, filepath.Dir(a))
	assert.Regexp(t, `^ws_[0-9A-Z]{26}$`, filepath.Base(a))
}

func TestLaunchAndTerminate(t *testing.T) {
	p := newShellLifecycle(t, osKiller{})
	ws := p.NewWorkspace()

	pid, err := p.Launch(context.Background(), ws)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Terminate(pid) })

	assert.Positive(t, pid)
	assert.True(t, p.Running(pid))
	fi, err := os.Stat(ws)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	require.NoError(t, p.Terminate(pid))
	waitExit(t, p, pid)
	assert.False(t, p.Running(pid))
}

func TestTerminateFallsBackToProcessKill(t *testing.T) {
	p := newShellLifecycle(t, osKiller{err: errors.New("access denied")})

	pid, err := p.Launch(context.Background(), p.NewWorkspace())
	require.NoError(t, err)

	require.NoError(t, p.Terminate(pid))
	waitExit(t, p, pid)
}

func TestTerminateUnknownPIDFails(t *testing.T) {
	p := NewProcessLifecycle(ProcessConfig{}, osKiller{err: errFake}, nil)

	err := p.Terminate(424242)
	assert.ErrorIs(t, err, errFake)
	assert.NoError(t, p.Terminate(0))
}

func TestLaunchUnresolvableExecutable(t *testing.T) {
	p := NewProcessLifecycle(ProcessConfig{
		Executable:    "definitely-not-an-editor-binary",
		WorkspaceRoot: t.TempDir(),
	}, osKiller{}, nil)

	ws := p.NewWorkspace()
	_, err := p.Launch(context.Background(), ws)
	assert.Error(t, err)
	assert.NoDirExists(t, ws)
}

func TestLaunchCancelledContext(t *testing.T) {
	p := newShellLifecycle(t, osKiller{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Launch(ctx, p.NewWorkspace())
	assert.ErrorIs(t, err, context.Canceled)
}
