package guard

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

var errTestList = errors.New("test list error")

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (fakeProcess) PPid() int            { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// listOf returns a lister over fixed processes.
func listOf(processes ...ps.Process) processLister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

// TestEnsureSingleInstance covers alone, duplicate, unknown self and lister failure.
func TestEnsureSingleInstance(t *testing.T) {
	t.Parallel()

	self := fakeProcess{pid: 42, executable: "tagguard"}

	require.NoError(t, ensureSingleInstance(listOf(
		self,
		fakeProcess{pid: 7, executable: "sshd"},
		fakeProcess{pid: 8, executable: "tagguard-client"},
	), self.pid))

	err := ensureSingleInstance(listOf(self, fakeProcess{pid: 43, executable: "tagguard"}), self.pid)
	require.ErrorIs(t, err, errAlreadyRunning)
	require.Contains(t, err.Error(), "pid 43")

	require.NoError(t, ensureSingleInstance(listOf(fakeProcess{pid: 43, executable: "tagguard"}), self.pid))

	err = ensureSingleInstance(func() ([]ps.Process, error) { return nil, errTestList }, self.pid)
	require.ErrorIs(t, err, errTestList)
}
