package geofence

import (
	"context"
	"errors"
	"time"
)

// Location acquisition failure modes. Permission denial is terminal;
// unavailability and timeouts are transient and may be retried.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location information unavailable")
	ErrTimeout          = errors.New("location request timed out")
	ErrUnsupported      = errors.New("device cannot supply location")
)

// Reading is a single reported device coordinate.
type Reading struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider yields one device location per call, or a typed failure.
type Provider interface {
	Current(ctx context.Context) (Reading, error)
}

// IsTransient reports whether a provider failure is worth retrying.
// Permission denial and unsupported devices never are.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}

// Acquire asks the provider for a reading, retrying transient failures up to
// maxAttempts total attempts with a fixed backoff between them. The last
// failure is returned when all attempts are exhausted.
func Acquire(ctx context.Context, p Provider, maxAttempts int, backoff time.Duration) (Reading, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Reading{}, ctx.Err()
			}
		}
		reading, err := p.Current(ctx)
		if err == nil {
			return reading, nil
		}
		if !IsTransient(err) {
			return Reading{}, err
		}
		lastErr = err
	}
	return Reading{}, lastErr
}
