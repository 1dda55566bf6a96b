package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/udyogbooks/udyogbooks/internal/jobs"
)

type stubMarker struct {
	count int64
	err   error
	calls int
}

func (s *stubMarker) MarkOverdue(ctx context.Context) (int64, error) {
	s.calls++
	return s.count, s.err
}

func (s *stubMarker) MarkExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.count, s.err
}

func TestSweepBustsCacheWhenStatusesChange(t *testing.T) {
	invoices := &stubMarker{count: 3}
	proposals := &stubMarker{count: 1}
	busted := 0
	job := NewNightlySweepJob(nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), invoices, proposals, func() { busted++ })

	err := job.Handle(context.Background(), NewNightlySweepTask())
	require.NoError(t, err)
	require.Equal(t, 1, invoices.calls)
	require.Equal(t, 1, proposals.calls)
	require.Equal(t, 1, busted)
}

func TestSweepLeavesCacheWhenNothingChanged(t *testing.T) {
	busted := 0
	job := NewNightlySweepJob(nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), &stubMarker{}, &stubMarker{}, func() { busted++ })

	require.NoError(t, job.Handle(context.Background(), NewNightlySweepTask()))
	require.Zero(t, busted)
}

func TestSweepRunsBothMarkersDespiteFailure(t *testing.T) {
	invoiceErr := errors.New("db down")
	invoices := &stubMarker{err: invoiceErr}
	proposals := &stubMarker{count: 2}
	busted := 0
	job := NewNightlySweepJob(nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), invoices, proposals, func() { busted++ })

	err := job.Handle(context.Background(), NewNightlySweepTask())
	require.ErrorIs(t, err, invoiceErr)
	require.Equal(t, 1, proposals.calls)
	require.Equal(t, 1, busted)
}
