package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingSweeper struct {
	calls atomic.Int32
	fired chan struct{}
}

func (c *countingSweeper) Sweep(ctx context.Context) (Run, error) {
	if c.calls.Add(1) == 1 {
		close(c.fired)
	}
	return Run{}, ctx.Err()
}

func TestScheduler_RunsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := &countingSweeper{fired: make(chan struct{})}
	s, err := NewScheduler("* * * * * *", sw, nil)
	require.NoError(t, err)
	s.Start()

	select {
	case <-sw.fired:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.GreaterOrEqual(t, sw.calls.Load(), int32(1))
}

func TestScheduler_AcceptsFiveAndSixFields(t *testing.T) {
	for _, spec := range []string{"0 9 * * *", "*/30 * * * * *", "@daily"} {
		s, err := NewScheduler(spec, &countingSweeper{fired: make(chan struct{})}, nil)
		require.NoError(t, err, spec)
		require.NoError(t, s.Stop(context.Background()))
	}

	_, err := NewScheduler("every tuesday", &countingSweeper{}, nil)
	assert.Error(t, err)
}
