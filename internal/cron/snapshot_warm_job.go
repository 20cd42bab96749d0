package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

const snapshotWarmJobName = "home-snapshot-warm"

type snapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) (int, error)
}

type SnapshotWarmJobParams struct {
	Logger *logger.Logger
	Home   snapshotRefresher
}

// NewSnapshotWarmJob builds the job that rebuilds the cached home listing before it expires.
func NewSnapshotWarmJob(params SnapshotWarmJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Home == nil {
		return nil, fmt.Errorf("home service required")
	}
	return &snapshotWarmJob{logg: params.Logger, home: params.Home}, nil
}

type snapshotWarmJob struct {
	logg *logger.Logger
	home snapshotRefresher
}

func (j *snapshotWarmJob) Name() string { return snapshotWarmJobName }

func (j *snapshotWarmJob) Run(ctx context.Context) error {
	count, err := j.home.RefreshSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("refresh home snapshot: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "product_count", count)
	j.logg.Info(logCtx, "home snapshot warmed")
	return nil
}
