//go:build !unix

package daemon

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Spawn is only supported on Unix systems.
func Spawn(context.Context, SpawnConfig) (int, error) {
	return 0, fmt.Errorf("%w: background daemons are not supported on this platform", kerrors.ErrDaemon)
}
