package ports

import (
	"context"

	"classsync/pkg/types"
)

// StatsProvider exposes the live media transport statistics consumed by the
// quality sampler. Track publish/unpublish and device handling stay with the
// media SDK; only the statistics accessor crosses into this module.
type StatsProvider interface {
	Stats(ctx context.Context) (types.QualitySample, error)
}
