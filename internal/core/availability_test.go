package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu      sync.Mutex
	err     error
	calls   int32
	block   chan struct{}
	started chan struct{}
}

func (p *fakePinger) Ping(context.Context) error {
	atomic.AddInt32(&p.calls, 1)
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func TestMonitorUnknownIsOptimistic(t *testing.T) {
	m := NewMonitor(&fakePinger{}, MonitorOptions{}, logger.NewNop())
	assert.True(t, m.Active())
	assert.False(t, m.Status().Known)
}

func TestMonitorProbeUpdatesAndNotifies(t *testing.T) {
	pinger := &fakePinger{err: errors.New("connection refused")}
	m := NewMonitor(pinger, MonitorOptions{Burst: 5}, logger.NewNop())
	id, ch := m.Subscribe(4)

	status, probed := m.ProbeNow(context.Background())
	require.True(t, probed)
	assert.False(t, status.Active)
	assert.False(t, m.Active())
	assert.Equal(t, "connection refused", (<-ch).Error)

	pinger.setErr(nil)
	_, probed = m.ProbeNow(context.Background())
	require.True(t, probed)
	assert.True(t, m.Active())
	assert.True(t, (<-ch).Active)

	m.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
}

func TestMonitorIgnoresProbeWhileInFlight(t *testing.T) {
	pinger := &fakePinger{block: make(chan struct{}), started: make(chan struct{}, 1)}
	m := NewMonitor(pinger, MonitorOptions{Burst: 5}, logger.NewNop())

	done := make(chan struct{})
	go func() {
		m.ProbeNow(context.Background())
		close(done)
	}()
	<-pinger.started

	_, probed := m.ProbeNow(context.Background())
	assert.False(t, probed)

	close(pinger.block)
	<-done
	assert.Equal(t, int32(1), atomic.LoadInt32(&pinger.calls))
}

func TestMonitorRateLimitsOnDemandProbes(t *testing.T) {
	pinger := &fakePinger{}
	m := NewMonitor(pinger, MonitorOptions{Burst: 2, MinGap: time.Hour}, logger.NewNop())

	_, first := m.ProbeNow(context.Background())
	_, second := m.ProbeNow(context.Background())
	_, third := m.ProbeNow(context.Background())
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third)
	assert.Equal(t, int32(2), atomic.LoadInt32(&pinger.calls))
}

func TestMonitorRunProbesUntilCancelled(t *testing.T) {
	pinger := &fakePinger{}
	m := NewMonitor(pinger, MonitorOptions{Interval: 10 * time.Millisecond}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&pinger.calls) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.True(t, m.Status().Known)
}
