package quality

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classsync/internal/lifecycle"
	"classsync/pkg/types"
)

type fakeStats struct {
	mu     sync.Mutex
	sample types.QualitySample
	err    error
}

func (f *fakeStats) Stats(ctx context.Context) (types.QualitySample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sample, f.err
}

func (f *fakeStats) set(sample types.QualitySample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = sample
	f.err = nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestPolicy_Classify(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		sample types.QualitySample
		want   types.QualityLevel
	}{
		{"fast and wide", types.QualitySample{RTT: ms(50), DownlinkKbps: 2000}, types.QualityExcellent},
		{"fast but narrow", types.QualitySample{RTT: ms(50), DownlinkKbps: 600}, types.QualityGood},
		{"fast and starved", types.QualitySample{RTT: ms(50), DownlinkKbps: 100}, types.QualityFair},
		{"medium", types.QualitySample{RTT: ms(150), DownlinkKbps: 800}, types.QualityGood},
		{"slow", types.QualitySample{RTT: ms(300), DownlinkKbps: 5000}, types.QualityFair},
		{"very slow", types.QualitySample{RTT: ms(600), DownlinkKbps: 5000}, types.QualityPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.Classify(tt.sample))
		})
	}
}

func TestPolicy_ClassifyMonotonicInRTT(t *testing.T) {
	// Raising RTT with bandwidth fixed must never raise the level.
	p := DefaultPolicy()

	for _, bw := range []float64{100, 600, 2000} {
		prev := types.QualityExcellent.Rank()
		for rtt := 0; rtt <= 800; rtt += 25 {
			level := p.Classify(types.QualitySample{RTT: ms(rtt), DownlinkKbps: bw})
			require.LessOrEqual(t, level.Rank(), prev,
				"rtt=%dms bw=%.0f classified above previous", rtt, bw)
			prev = level.Rank()
		}
	}
}

func TestSampler_RunClassifiesPeriodically(t *testing.T) {
	guard := lifecycle.NewGuard()
	stats := &fakeStats{sample: types.QualitySample{RTT: ms(50), DownlinkKbps: 2000}}
	s := NewSampler(stats, guard, DefaultPolicy(), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return s.Level() == types.QualityExcellent
	}, time.Second, 5*time.Millisecond)

	stats.set(types.QualitySample{RTT: ms(600), DownlinkKbps: 2000})
	require.Eventually(t, func() bool {
		return s.Level() == types.QualityPoor
	}, time.Second, 5*time.Millisecond)
}

func TestSampler_ForceDegradedOverridesUntilNextSample(t *testing.T) {
	guard := lifecycle.NewGuard()
	stats := &fakeStats{sample: types.QualitySample{RTT: ms(50), DownlinkKbps: 2000}}
	s := NewSampler(stats, guard, DefaultPolicy(), 10*time.Millisecond, nil)

	s.ForceDegraded()
	require.Equal(t, types.QualityPoor, s.Level())

	// The next successful sample replaces the override.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return s.Level() == types.QualityExcellent
	}, time.Second, 5*time.Millisecond)
}

func TestSampler_ProviderErrorYieldsUnknown(t *testing.T) {
	guard := lifecycle.NewGuard()
	stats := &fakeStats{err: errors.New("transport gone")}
	s := NewSampler(stats, guard, DefaultPolicy(), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return s.Level() == types.QualityUnknown
	}, time.Second, 5*time.Millisecond)
}

func TestSampler_StopsOnTeardown(t *testing.T) {
	guard := lifecycle.NewGuard()
	stats := &fakeStats{sample: types.QualitySample{RTT: ms(50), DownlinkKbps: 2000}}

	var transitions []types.QualityLevel
	var mu sync.Mutex
	s := NewSampler(stats, guard, DefaultPolicy(), 10*time.Millisecond, func(l types.QualityLevel) {
		mu.Lock()
		transitions = append(transitions, l)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.Level() == types.QualityExcellent
	}, time.Second, 5*time.Millisecond)

	guard.Teardown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sampler kept running after teardown")
	}
}
