package scheduler

import (
	"context"
	"testing"
	"time"

	"byteplus-functions/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New(logger.NewNoOpLogger(), "Not/AZone")
	assert.Error(t, err)
}

func TestNew_ManilaTimezone(t *testing.T) {
	s, err := New(logger.NewNoOpLogger(), "Asia/Manila")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestAddJob_InvalidSpec(t *testing.T) {
	s, err := New(logger.NewNoOpLogger(), "UTC")
	require.NoError(t, err)

	err = s.AddJob("not a cron spec", "broken", time.Second, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestAddJob_RunsOnSchedule(t *testing.T) {
	s, err := New(logger.NewNoOpLogger(), "UTC")
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	err = s.AddJob("@every 10ms", "tick", time.Second, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
