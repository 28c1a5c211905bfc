package report

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// errorEventPattern matches the error category used for the headline rate.
const errorEventPattern = "%error%"

// Summary is the four-metric KPI headline for the dashboard.
type Summary struct {
	TotalEvents  int64   `json:"totalEvents"`
	ErrorRate    float64 `json:"errorRate"`
	AvgBuildMs   *int64  `json:"avgBuildMs"`
	TopFramework *string `json:"topFramework"`
}

// SummaryStore is the slice of the storage layer the summary needs.
type SummaryStore interface {
	CountEvents(ctx context.Context) (int64, error)
	CountEventsMatching(ctx context.Context, pattern string) (int64, error)
	AverageBuildDurationMs(ctx context.Context) (*float64, error)
	TopFramework(ctx context.Context) (*string, error)
}

// ComputeSummary issues the four sub-queries concurrently and assembles the
// summary. The sub-queries do not share a snapshot; under concurrent
// ingestion they may observe slightly different row sets, which is accepted.
// Empty results are defaults (0 / null), never errors.
func ComputeSummary(ctx context.Context, s SummaryStore) (*Summary, error) {
	var (
		total      int64
		errorCount int64
		avgBuild   *float64
		top        *string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.CountEvents(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		errorCount, err = s.CountEventsMatching(ctx, errorEventPattern)
		return err
	})
	g.Go(func() error {
		var err error
		avgBuild, err = s.AverageBuildDurationMs(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.TopFramework(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalEvents:  total,
		TopFramework: top,
	}
	if total > 0 {
		summary.ErrorRate = math.Round(float64(errorCount)/float64(total)*1000) / 10
	}
	if avgBuild != nil {
		ms := int64(math.Round(*avgBuild))
		summary.AvgBuildMs = &ms
	}
	return summary, nil
}
