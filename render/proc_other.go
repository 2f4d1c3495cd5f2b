//go:build !unix

package render

import "os/exec"

// isolate relies on the default cancellation, which kills only the direct
// child.
func isolate(cmd *exec.Cmd) {}
