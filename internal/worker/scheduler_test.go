package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

type fakeSweeper struct {
	mu      sync.Mutex
	dates   []string
	started chan struct{}
	release chan struct{}
}

func (f *fakeSweeper) ProcessDuePayments(ctx context.Context, today core.Date) (int, error) {
	f.mu.Lock()
	f.dates = append(f.dates, today.String())
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return 1, nil
}

func (f *fakeSweeper) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dates...)
}

func TestParseRunAt(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"03:00", 3, 0, false},
		{"23:59", 23, 59, false},
		{"00:05", 0, 5, false},
		{"24:00", 0, 0, true},
		{"3am", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseRunAt(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestNextRunAfter(t *testing.T) {
	rome := time.FixedZone("CEST", 2*60*60)
	s, err := NewScheduler(&fakeSweeper{}, SchedulerConfig{RunAt: "03:00", Location: rome})
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before run time", time.Date(2024, 6, 18, 2, 59, 0, 0, rome), time.Date(2024, 6, 18, 3, 0, 0, 0, rome)},
		{"exactly at run time", time.Date(2024, 6, 18, 3, 0, 0, 0, rome), time.Date(2024, 6, 19, 3, 0, 0, 0, rome)},
		{"later in the day", time.Date(2024, 6, 18, 17, 0, 0, 0, rome), time.Date(2024, 6, 19, 3, 0, 0, 0, rome)},
		{"utc input", time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC), time.Date(2024, 7, 1, 3, 0, 0, 0, rome)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(s.NextRunAfter(tt.now)), "got %s", s.NextRunAfter(tt.now))
		})
	}
}

func TestRunOnceUsesSchedulerZone(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := NewScheduler(sw, SchedulerConfig{RunAt: "03:00", Location: time.FixedZone("+02", 2*60*60)})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 6, 18, 23, 30, 0, 0, time.UTC) }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"2024-06-19"}, sw.calls())
}

func TestRunOnceDoesNotOverlap(t *testing.T) {
	sw := &fakeSweeper{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, err := NewScheduler(sw, DefaultSchedulerConfig())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()
	<-sw.started

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(sw.release)
	<-done
	assert.Len(t, sw.calls(), 1)
}

func TestSchedulerLoop(t *testing.T) {
	sw := &fakeSweeper{started: make(chan struct{}, 4)}
	cfg := DefaultSchedulerConfig()
	cfg.RunOnStartup = true
	s, err := NewScheduler(sw, cfg)
	require.NoError(t, err)

	tick := make(chan time.Time)
	s.after = func(time.Duration) <-chan time.Time { return tick }

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(ctx))

	<-sw.started
	tick <- time.Now()
	<-sw.started

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())
	assert.Len(t, sw.calls(), 2)
}

func TestNewSchedulerValidation(t *testing.T) {
	_, err := NewScheduler(nil, DefaultSchedulerConfig())
	assert.Error(t, err)
	_, err = NewScheduler(&fakeSweeper{}, SchedulerConfig{RunAt: "25:00"})
	assert.Error(t, err)
}
