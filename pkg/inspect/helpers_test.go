package inspect

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/router"
)

// pipelineWait returns a guard that holds the transition until release is closed
// or the transition is cancelled.
func pipelineWait(release <-chan struct{}) router.Guard {
	return func(ctx context.Context, _, _ *router.State) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
