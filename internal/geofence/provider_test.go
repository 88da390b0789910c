package geofence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls   int
	results []error
	reading Reading
}

func (p *scriptedProvider) Current(ctx context.Context) (Reading, error) {
	err := p.results[p.calls]
	p.calls++
	if err != nil {
		return Reading{}, err
	}
	return p.reading, nil
}

func TestAcquireRetriesTransientFailures(t *testing.T) {
	p := &scriptedProvider{
		results: []error{ErrTimeout, ErrUnavailable, nil},
		reading: Reading{Latitude: 31.6, Longitude: 74.8},
	}

	reading, err := Acquire(context.Background(), p, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, 31.6, reading.Latitude)
}

func TestAcquireStopsAtAttemptLimit(t *testing.T) {
	p := &scriptedProvider{results: []error{ErrTimeout, ErrTimeout, ErrTimeout}}

	_, err := Acquire(context.Background(), p, 3, time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 3, p.calls)
}

func TestAcquireNeverRetriesPermissionDenial(t *testing.T) {
	p := &scriptedProvider{results: []error{ErrPermissionDenied, nil}}

	_, err := Acquire(context.Background(), p, 3, time.Millisecond)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, p.calls)
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{results: []error{ErrTimeout, nil}}
	_, err := Acquire(ctx, p, 3, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrTimeout))
	assert.True(t, IsTransient(ErrUnavailable))
	assert.False(t, IsTransient(ErrPermissionDenied))
	assert.False(t, IsTransient(ErrUnsupported))
}
