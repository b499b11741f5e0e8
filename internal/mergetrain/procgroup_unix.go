//go:build unix

package mergetrain

import (
	"os/exec"
	"syscall"
)

// setProcGroup configures cmd to run in its own process group so a timeout
// kill reaches every descendant the shell spawned, not just the shell
// itself (spec.md §9).
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup kills the process group led by pid.
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
