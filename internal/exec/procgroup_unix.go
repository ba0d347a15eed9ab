//go:build unix

package exec

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts c in a new process group and makes cancellation kill
// the whole group.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
