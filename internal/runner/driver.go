package runner

import (
	"context"
	"fmt"
	"time"
)

// DefaultInterval is the pause between two I/O steps.
const DefaultInterval = 100 * time.Millisecond

// Stepper is a connection whose pending I/O only advances when stepped.
type Stepper interface {
	Update(ctx context.Context) error
}

// Drive steps s every interval until ctx is cancelled, which is a clean
// stop. A step error ends the loop and is returned.
func Drive(ctx context.Context, s Stepper, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.Update(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("driver step: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
