package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct {
	calls   int
	result  service.RebuildResult
	err     error
	release chan struct{}
	entered chan struct{}
}

func (s *stubStats) RefreshClient(context.Context, uuid.UUID, uuid.UUID) (billing.ClientStats, error) {
	return billing.ClientStats{}, nil
}

func (s *stubStats) RebuildOwner(context.Context, uuid.UUID) (service.RebuildResult, error) {
	return service.RebuildResult{}, nil
}

func (s *stubStats) RebuildAll(ctx context.Context) (service.RebuildResult, error) {
	s.calls++
	if s.entered != nil {
		close(s.entered)
		<-s.release
	}
	return s.result, s.err
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(&stubStats{}, "every tuesday", time.Minute)
	assert.Error(t, err)
}

func TestNewScheduler_AcceptsDescriptors(t *testing.T) {
	for _, spec := range []string{"@daily", "@every 1h", "0 30 2 * * *"} {
		_, err := NewScheduler(&stubStats{}, spec, 0)
		assert.NoError(t, err, spec)
	}
}

func TestRunRollup(t *testing.T) {
	t.Run("returns_result", func(t *testing.T) {
		stats := &stubStats{result: service.RebuildResult{Owners: 2, Clients: 7}}
		s, err := NewScheduler(stats, "@daily", time.Minute)
		require.NoError(t, err)

		result, err := s.RunRollup(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 7, result.Clients)
		assert.Equal(t, 1, stats.calls)
	})

	t.Run("wraps_error", func(t *testing.T) {
		boom := errors.New("db down")
		s, err := NewScheduler(&stubStats{err: boom}, "@daily", time.Minute)
		require.NoError(t, err)

		_, err = s.RunRollup(context.Background())

		assert.ErrorIs(t, err, boom)
	})

	t.Run("skips_overlapping_run", func(t *testing.T) {
		stats := &stubStats{entered: make(chan struct{}), release: make(chan struct{})}
		s, err := NewScheduler(stats, "@daily", time.Minute)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.RunRollup(context.Background())
		}()
		<-stats.entered

		result, err := s.RunRollup(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, service.RebuildResult{}, result)

		close(stats.release)
		<-done
		assert.Equal(t, 1, stats.calls)
	})
}
