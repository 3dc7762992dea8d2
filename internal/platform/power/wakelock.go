package power

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// ErrUnsupportedOS indicates the current OS has no known inhibitor.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// commandFunc builds the inhibitor process.
type commandFunc func(ctx context.Context) (*exec.Cmd, error)

// WakeLock prevents the host from sleeping while held.
type WakeLock struct {
	// command builds the inhibitor process.
	command commandFunc

	// mu protects cmd and exited.
	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{}
}

// NewWakeLock creates a wake lock for the current platform.
// who and why are shown by the OS when listing inhibitors.
func NewWakeLock(who, why string) *WakeLock {
	return &WakeLock{
		command: func(ctx context.Context) (*exec.Cmd, error) {
			args, err := inhibitorArgs(runtime.GOOS, who, why, os.Getpid())
			if err != nil {
				return nil, err
			}

			//nolint:gosec // Arguments are built from constants and our own pid.
			return exec.CommandContext(ctx, args[0], args[1:]...), nil
		},
	}
}

// Acquire starts the inhibitor. It is released by Release or when ctx ends.
// Acquiring a held lock does nothing.
func (w *WakeLock) Acquire(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cmd != nil {
		return nil
	}

	cmd, err := w.command(ctx)
	if err != nil {
		return fmt.Errorf("build inhibitor: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("start inhibitor: %w", err)
	}

	exited := make(chan struct{})

	go func() {
		_ = cmd.Wait()

		close(exited)
	}()

	w.cmd = cmd
	w.exited = exited

	return nil
}

// Held reports whether the inhibitor process is alive.
func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cmd == nil {
		return false
	}

	select {
	case <-w.exited:
		return false
	default:
		return true
	}
}

// Release stops the inhibitor. Releasing a lock that is not held does nothing.
func (w *WakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cmd == nil {
		return nil
	}

	cmd, exited := w.cmd, w.exited
	w.cmd, w.exited = nil, nil

	select {
	case <-exited:
		return nil
	default:
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop inhibitor: %w", err)
	}

	<-exited

	return nil
}

// inhibitorArgs returns the command line that blocks sleep on goos:
// - Linux:  `systemd-inhibit --what=idle:sleep ... sleep infinity`
// - macOS:  `caffeinate -i -w <pid>` (exits with the service)
func inhibitorArgs(goos, who, why string, pid int) ([]string, error) {
	osName := strings.ToLower(goos)

	switch {
	case strings.Contains(osName, "linux"):
		return []string{
			"systemd-inhibit",
			"--what=idle:sleep",
			"--who=" + who,
			"--why=" + why,
			"--mode=block",
			"sleep", "infinity",
		}, nil
	case strings.Contains(osName, "darwin"):
		return []string{"caffeinate", "-i", "-w", strconv.Itoa(pid)}, nil
	default:
		return nil, fmt.Errorf("wake lock on %s: %w", goos, ErrUnsupportedOS)
	}
}
