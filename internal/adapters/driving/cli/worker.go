package cli

import (
	"fmt"
	"os"
	"os/exec"
)

// startJobProcess launches "sercha-rag jobs run <id>" detached from the
// current process. Tests replace it.
var startJobProcess = func(id string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	c := exec.Command(exe, "jobs", "run", id)
	c.SysProcAttr = detachedAttr()
	if err := c.Start(); err != nil {
		return err
	}
	return c.Process.Release()
}
