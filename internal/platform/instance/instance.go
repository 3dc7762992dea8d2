// Package instance makes sure only one alarm service runs per host.
//
// The alarm state is process-wide; two services would start two countdowns
// for the same fall.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process with the same executable runs.
var ErrAlreadyRunning = errors.New("another instance is already running")

// processLister lists running processes.
type processLister func() ([]ps.Process, error)

// EnsureSingle fails with ErrAlreadyRunning if a process other than this one
// runs the executable named name. An empty name uses the current executable.
func EnsureSingle(name string) error {
	return ensureSingle(name, os.Getpid(), ps.Processes)
}

// ensureSingle is EnsureSingle with injectable pid and lister.
func ensureSingle(name string, selfPID int, list processLister) error {
	if name == "" {
		executable, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}

		name = filepath.Base(executable)
	}

	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() != name {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, process.Pid())
	}

	return nil
}
