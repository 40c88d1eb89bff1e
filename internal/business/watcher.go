package business

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// Reverifier re-checks the current session against the backend.
type Reverifier interface {
	Reverify(ctx context.Context)
}

// watchSession re-checks the session every interval until ctx is done, so a
// token revoked on the backend signs the portal out. A zero interval
// disables the check.
func watchSession(ctx context.Context, sessions Reverifier, interval time.Duration) error {
	if interval <= 0 {
		slogctx.Info(ctx, "Session re-verification disabled")
		<-ctx.Done()
		return nil
	}

	c := time.Tick(interval)
	for {
		select {
		case <-c:
			slogctx.Debug(ctx, "Triggering session re-verification")
			sessions.Reverify(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
