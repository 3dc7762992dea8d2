// Package launcher opens the alarm user interface when a countdown starts.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// AlarmStartedEnv is set to "1" in the environment of the launched UI so it
// can open straight into the countdown screen.
const AlarmStartedEnv = "GRAVITY_ALARM_STARTED"

// errEmptyCommand is returned when the command has no executable.
var errEmptyCommand = errors.New("ui command is empty")

// Launcher starts a configured UI command without waiting for it.
type Launcher struct {
	// command is the executable followed by its arguments.
	command []string
}

// New creates a launcher for command. An empty command makes Launch a no-op.
func New(command []string) *Launcher {
	return &Launcher{
		command: append([]string(nil), command...),
	}
}

// Enabled reports whether a command is configured.
func (l *Launcher) Enabled() bool {
	return len(l.command) > 0
}

// Launch starts the UI. The process is reaped in the background.
func (l *Launcher) Launch(ctx context.Context) error {
	if !l.Enabled() {
		logger.Debug(ctx, "No UI command configured, skipping launch")
		return nil
	}

	head := l.command[0]
	if head == "" {
		return errEmptyCommand
	}

	//nolint:gosec,noctx // The command comes from the operator's settings and must outlive ctx.
	cmd := exec.Command(head, l.command[1:]...)
	cmd.Env = append(os.Environ(), AlarmStartedEnv+"=1")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ui %q: %w", head, err)
	}

	logger.InfoKV(ctx, "Alarm UI launched", "command", head, "pid", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.WarnKV(ctx, "Alarm UI exited with error", "command", head, "error", err)
		}
	}()

	return nil
}
