package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/udyogbooks/udyogbooks/internal/jobs"
)

// OverdueMarker flips past-due sent invoices to OVERDUE.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// ExpiryMarker flips stale sent proposals to EXPIRED.
type ExpiryMarker interface {
	MarkExpired(ctx context.Context) (int64, error)
}

// NightlySweepJob advances time-driven document statuses and invalidates the
// report cache when anything changed.
type NightlySweepJob struct {
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Invoices    OverdueMarker
	Proposals   ExpiryMarker
	BustReports func()
}

// NewNightlySweepJob initialises the sweep handler.
func NewNightlySweepJob(logger *slog.Logger, metrics *jobmetrics.Metrics, invoices OverdueMarker, proposals ExpiryMarker, bust func()) *NightlySweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &NightlySweepJob{Logger: logger, Metrics: metrics, Invoices: invoices, Proposals: proposals, BustReports: bust}
}

// Handle processes TaskTypeNightlySweep tasks.
func (j *NightlySweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.Metrics.Track("nightly_sweep")
	return tracker.End(j.sweep(ctx))
}

func (j *NightlySweepJob) sweep(ctx context.Context) error {
	var errs []error

	overdue, err := j.Invoices.MarkOverdue(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	expired, err := j.Proposals.MarkExpired(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	if overdue > 0 || expired > 0 {
		if j.BustReports != nil {
			j.BustReports()
		}
		j.Logger.Info("nightly sweep",
			slog.Int64("invoices_overdue", overdue),
			slog.Int64("proposals_expired", expired))
	}
	return errors.Join(errs...)
}
