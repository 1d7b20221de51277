package embed

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/shared/id"
)

// ProcessConfig describes the foreign executable.
type ProcessConfig struct {
	// Executable is a path, a PATH-resolvable name, or a doublestar pattern.
	Executable string
	// Args precede the workspace path on the command line.
	Args []string
	// WorkspaceRoot is where ephemeral workspaces are created.
	WorkspaceRoot string
	// Env is appended to the host environment.
	Env []string
}

// DefaultEditorArgs keep the editor from opening trust and welcome prompts
// that would appear as extra top-level windows during discovery.
var DefaultEditorArgs = []string{
	"--new-window",
	"--disable-workspace-trust",
	"--skip-welcome",
	"--skip-release-notes",
}

type processKiller interface {
	KillProcess(pid int) error
}

// ProcessLifecycle spawns the foreign process into a private workspace and
// force-terminates it on request.
type ProcessLifecycle struct {
	cfg    ProcessConfig
	killer processKiller
	logger *zap.Logger

	procs  sync.Map // map[int]*exec.Cmd
	exited chan int
}

// NewProcessLifecycle creates a lifecycle manager. killer is normally the
// native bridge.
func NewProcessLifecycle(cfg ProcessConfig, killer processKiller, logger *zap.Logger) *ProcessLifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = filepath.Join(os.TempDir(), "embedhost-workspaces")
	}
	return &ProcessLifecycle{
		cfg:    cfg,
		killer: killer,
		logger: logger,
		exited: make(chan int, 16),
	}
}

// NewWorkspace returns a fresh workspace path under the configured root. Its
// base name is unique and appears in the foreign window's title.
func (p *ProcessLifecycle) NewWorkspace() string {
	return filepath.Join(p.cfg.WorkspaceRoot, id.NewWorkspaceID().String())
}

// Launch creates workspace if needed and starts the executable pointed at
// it. It returns as soon as the process exists; it does not wait for a window.
func (p *ProcessLifecycle) Launch(ctx context.Context, workspace string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	exe, err := ResolveExecutable(p.cfg.Executable)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return 0, fmt.Errorf("create workspace: %w", err)
	}

	args := make([]string, 0, len(p.cfg.Args)+1)
	args = append(args, p.cfg.Args...)
	args = append(args, workspace)

	// Not CommandContext: the process must outlive the request that started it.
	cmd := exec.Command(exe, args...)
	cmd.Dir = workspace
	cmd.Env = append(os.Environ(), p.cfg.Env...)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", exe, err)
	}

	pid := cmd.Process.Pid
	p.procs.Store(pid, cmd)
	go p.reap(pid, cmd)

	p.logger.Info("foreign process started",
		zap.String("executable", exe),
		zap.Int("pid", pid),
		zap.String("workspace", workspace),
	)
	return pid, nil
}

// Terminate force-kills pid. There is no graceful phase: WM_CLOSE is kept
// for user-initiated closes of other windows.
func (p *ProcessLifecycle) Terminate(pid int) error {
	if pid <= 0 {
		return nil
	}

	err := p.killer.KillProcess(pid)
	if err == nil {
		return nil
	}

	if v, ok := p.procs.Load(pid); ok {
		cmd := v.(*exec.Cmd)
		if kerr := cmd.Process.Kill(); kerr == nil {
			return nil
		}
	}
	return fmt.Errorf("terminate pid %d: %w", pid, err)
}

// Running reports whether pid was launched here and has not exited.
func (p *ProcessLifecycle) Running(pid int) bool {
	_, ok := p.procs.Load(pid)
	return ok
}

// Exited delivers the pid of each launched process once it has been reaped.
func (p *ProcessLifecycle) Exited() <-chan int {
	return p.exited
}

func (p *ProcessLifecycle) reap(pid int, cmd *exec.Cmd) {
	err := cmd.Wait()
	p.procs.Delete(pid)

	fields := []zap.Field{zap.Int("pid", pid)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	p.logger.Info("foreign process exited", fields...)

	select {
	case p.exited <- pid:
	default:
		p.logger.Warn("exit notification dropped", zap.Int("pid", pid))
	}
}
