package ports

import "context"

// HealthChecker probes one dependency of the link service.
type HealthChecker interface {
	Name() string
	// Required reports whether a failing check leaves links unredeemable.
	// Optional dependencies only degrade the service.
	Required() bool
	Check(ctx context.Context) error
}
