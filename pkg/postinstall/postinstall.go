// Package postinstall runs the configuration command an artifact wants
// executed after it lands, e.g. `minikube config set vm-driver kvm2`.
// It is deliberately outside the installer: a failing post-install step
// does not undo a verified install.
package postinstall

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Run executes argv with stdout/stderr passed through. An empty argv is
// a no-op.
func Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return nil
	}

	slog.Debug("running post-install command", "argv", argv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("post-install command %q failed: %w", argv[0], err)
	}
	return nil
}
