package guard

import (
	"errors"
	"fmt"

	"github.com/mitchellh/go-ps"
)

// errAlreadyRunning is returned when another daemon holds the buzzer.
var errAlreadyRunning = errors.New("another tag-guard daemon is already running")

// processLister returns the process table.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when a process with the same executable as self is running.
// Two daemons would fight over the same GPIO pin.
func ensureSingleInstance(list processLister, self int) error {
	processes, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	var executable string

	for _, process := range processes {
		if process.Pid() == self {
			executable = process.Executable()
			break
		}
	}

	if executable == "" {
		return nil
	}

	for _, process := range processes {
		if process.Pid() == self || process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", errAlreadyRunning, executable, process.Pid())
	}

	return nil
}
