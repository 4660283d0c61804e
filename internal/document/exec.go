package document

import (
	"context"
	"io"
	"os/exec"
)

// newCommand builds the office-suite invocation with output discarded;
// LibreOffice writes progress chatter nobody needs in the batch log.
func newCommand(ctx context.Context, binary string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd
}
