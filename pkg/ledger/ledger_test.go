package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedaylabs/gameday-core/pkg/events"
)

func TestNewMemoryLedgerDefaultsHealthy(t *testing.T) {
	l := NewMemoryLedger([]string{"EC2", "ALB Security Group"}, nil)

	all, err := l.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]HealthStatus{
		"EC2":                StatusHealthy,
		"ALB Security Group": StatusHealthy,
	}, all)
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger([]string{"EC2"}, nil)

	require.NoError(t, l.Set(ctx, "EC2", StatusFaulted))
	status, err := l.Get(ctx, "EC2")
	require.NoError(t, err)
	assert.Equal(t, StatusFaulted, status)
}

func TestSetUnknownComponent(t *testing.T) {
	l := NewMemoryLedger([]string{"EC2"}, nil)

	err := l.Set(context.Background(), "RDS", StatusFaulted)
	assert.ErrorIs(t, err, ErrUnknownComponent)

	_, err = l.Get(context.Background(), "RDS")
	assert.ErrorIs(t, err, ErrUnknownComponent)
}

func TestSetPublishesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	defer bus.Close()
	ch := bus.Subscribe()

	l := NewMemoryLedger([]string{"EC2"}, bus)

	require.NoError(t, l.Set(ctx, "EC2", StatusFaulted))
	require.NoError(t, l.Set(ctx, "EC2", StatusFaulted)) // same value, no event

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeComponentHealth, ev.Type)
		assert.Equal(t, "EC2", ev.Component)
		assert.Equal(t, string(StatusFaulted), ev.Health)
	case <-time.After(time.Second):
		t.Fatal("expected a health change event")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGetAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger([]string{"EC2"}, nil)

	all, err := l.GetAll(ctx)
	require.NoError(t, err)
	all["EC2"] = StatusFaulted

	status, err := l.Get(ctx, "EC2")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, status, "mutating the snapshot must not touch the ledger")
}

func TestCancelledContext(t *testing.T) {
	l := NewMemoryLedger([]string{"EC2"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, l.Set(ctx, "EC2", StatusFaulted))
	_, err := l.GetAll(ctx)
	assert.Error(t, err)
}
