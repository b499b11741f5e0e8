//go:build windows

package mergetrain

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setProcGroup configures cmd to run in its own process group so a timeout
// kill reaches every descendant the shell spawned (spec.md §9).
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup kills the process tree rooted at pid.
func killProcessGroup(pid int) error {
	kill := exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", pid))
	return kill.Run()
}
