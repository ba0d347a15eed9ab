//go:build !unix

package exec

import "os/exec"

// setProcessGroup keeps the default behaviour of killing only the child.
func setProcessGroup(c *exec.Cmd) {}
