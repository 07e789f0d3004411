// Package quality classifies live network health from periodic transport
// statistics.
package quality

import (
	"context"
	"log"
	"sync"
	"time"

	"classsync/internal/lifecycle"
	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// DefaultInterval is how often the transport statistics are polled.
const DefaultInterval = 2 * time.Second

// Policy holds the classification thresholds. The exact values are a tuning
// parameter, not a contract; defaults follow the documented ladder.
type Policy struct {
	ExcellentRTT      time.Duration
	GoodRTT           time.Duration
	FairRTT           time.Duration
	HighBandwidthKbps float64
	MidBandwidthKbps  float64
}

// DefaultPolicy returns the default threshold ladder.
func DefaultPolicy() Policy {
	return Policy{
		ExcellentRTT:      100 * time.Millisecond,
		GoodRTT:           200 * time.Millisecond,
		FairRTT:           400 * time.Millisecond,
		HighBandwidthKbps: 1000,
		MidBandwidthKbps:  500,
	}
}

// Classify maps one sample to a quality level. Rules are evaluated in order;
// the first match wins, so raising RTT can never raise the level.
func (p Policy) Classify(s types.QualitySample) types.QualityLevel {
	switch {
	case s.RTT < p.ExcellentRTT && s.DownlinkKbps > p.HighBandwidthKbps:
		return types.QualityExcellent
	case s.RTT < p.GoodRTT && s.DownlinkKbps > p.MidBandwidthKbps:
		return types.QualityGood
	case s.RTT < p.FairRTT:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}

// Sampler polls a transport statistics provider on a fixed interval and
// keeps the most recent classification. A transport-level failure forces the
// level to poor until the next successful sample.
type Sampler struct {
	provider ports.StatsProvider
	guard    *lifecycle.Guard
	policy   Policy
	interval time.Duration
	onChange func(types.QualityLevel)

	mu    sync.RWMutex
	level types.QualityLevel
}

// NewSampler creates a sampler. onChange may be nil; when set it is invoked
// for every level transition, guarded against post-teardown delivery.
func NewSampler(provider ports.StatsProvider, guard *lifecycle.Guard, policy Policy, interval time.Duration, onChange func(types.QualityLevel)) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		provider: provider,
		guard:    guard,
		policy:   policy,
		interval: interval,
		onChange: onChange,
		level:    types.QualityUnknown,
	}
}

// Level returns the current classification.
func (s *Sampler) Level() types.QualityLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// ForceDegraded overrides the last classification with poor. Used when a
// transport disconnect or failure event arrives between samples, so stale
// "good" readings never outlive the transport they measured.
func (s *Sampler) ForceDegraded() {
	s.setLevel(types.QualityPoor)
}

// Run polls until the context is cancelled or the guard is torn down.
// Intended to run on its own goroutine.
func (s *Sampler) Run(ctx context.Context) {
	if s.provider == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.guard.Active() {
				return
			}
			s.sample(ctx)
		case <-s.guard.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	sample, err := s.provider.Stats(ctx)
	if err != nil {
		log.Printf("quality: stats unavailable: %v", err)
		s.setLevel(types.QualityUnknown)
		return
	}
	s.setLevel(s.policy.Classify(sample))
}

func (s *Sampler) setLevel(level types.QualityLevel) {
	s.mu.Lock()
	changed := s.level != level
	s.level = level
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.guard.Do(func() {
			s.onChange(level)
		})
	}
}
