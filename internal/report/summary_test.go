package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetrypulse/internal/report"
)

type fakeSummaryStore struct {
	total     int64
	errors    int64
	avgBuild  *float64
	top       *string
	totalErr  error
	errorsErr error
}

func (f *fakeSummaryStore) CountEvents(_ context.Context) (int64, error) {
	return f.total, f.totalErr
}

func (f *fakeSummaryStore) CountEventsMatching(_ context.Context, _ string) (int64, error) {
	return f.errors, f.errorsErr
}

func (f *fakeSummaryStore) AverageBuildDurationMs(_ context.Context) (*float64, error) {
	return f.avgBuild, nil
}

func (f *fakeSummaryStore) TopFramework(_ context.Context) (*string, error) {
	return f.top, nil
}

func TestComputeSummary_EmptyStore(t *testing.T) {
	s, err := report.ComputeSummary(context.Background(), &fakeSummaryStore{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), s.TotalEvents)
	assert.Equal(t, 0.0, s.ErrorRate)
	assert.Nil(t, s.AvgBuildMs)
	assert.Nil(t, s.TopFramework)
}

func TestComputeSummary_ErrorRateOneDecimal(t *testing.T) {
	s, err := report.ComputeSummary(context.Background(), &fakeSummaryStore{
		total:  3,
		errors: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), s.TotalEvents)
	assert.Equal(t, 33.3, s.ErrorRate)
}

func TestComputeSummary_ErrorRateAllErrors(t *testing.T) {
	s, err := report.ComputeSummary(context.Background(), &fakeSummaryStore{
		total:  4,
		errors: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.ErrorRate)
}

func TestComputeSummary_AvgBuildRoundedToInt(t *testing.T) {
	avg := 1234.6
	top := "react"
	s, err := report.ComputeSummary(context.Background(), &fakeSummaryStore{
		total:    10,
		avgBuild: &avg,
		top:      &top,
	})
	require.NoError(t, err)

	require.NotNil(t, s.AvgBuildMs)
	assert.Equal(t, int64(1235), *s.AvgBuildMs)
	require.NotNil(t, s.TopFramework)
	assert.Equal(t, "react", *s.TopFramework)
}

func TestComputeSummary_SubQueryErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := report.ComputeSummary(context.Background(), &fakeSummaryStore{
		errorsErr: boom,
	})
	assert.ErrorIs(t, err, boom)
}
