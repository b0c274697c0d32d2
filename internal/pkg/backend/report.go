package backend

import (
	"context"
	"fmt"
	"time"

	"spard/internal/pkg/allocation"
	"spard/internal/pkg/model"
	"spard/internal/pkg/report"
)

// GetHistoricalUsageReport returns per-account, per-user usage for one
// calendar month, normalized into marketplace component units. Validation
// happens before any backend call; an empty account list short-circuits to
// an empty report.
func (b *Backend) GetHistoricalUsageReport(ctx context.Context, accounts []string, year, month int) (model.UsageReport, error) {
	if month < 1 || month > 12 {
		return nil, &ValidationError{Msg: fmt.Sprintf("month must be in [1,12], got %d", month)}
	}
	if year < 1 {
		return nil, &ValidationError{Msg: fmt.Sprintf("year must be positive, got %d", year)}
	}
	if len(accounts) == 0 {
		return model.UsageReport{}, nil
	}
	start, end := allocation.MonthBounds(year, month)
	return b.usageReportWindow(ctx, accounts, start, end)
}

// GetCurrentUsageReport is the rolling variant: the current month from its
// first day up to now.
func (b *Backend) GetCurrentUsageReport(ctx context.Context, accounts []string) (model.UsageReport, error) {
	if len(accounts) == 0 {
		return model.UsageReport{}, nil
	}
	now := b.now()
	start, _ := allocation.MonthBounds(now.Year(), int(now.Month()))
	return b.usageReportWindow(ctx, accounts, start, now)
}

// usageReportWindow queries, parses, aggregates and converts one window.
// The reporting-specific unit factor, when configured, takes precedence over
// the limit-setting factor: a deployment may bill usage at a different
// granularity than it enforces limits. Accounts absent from backend results
// stay absent from the output.
func (b *Backend) usageReportWindow(ctx context.Context, accounts []string, start, end time.Time) (model.UsageReport, error) {
	cli := b.newCLI()
	raws, err := cli.UsageReportLines(ctx, accounts, start, end, b.slurm.ReportColumns)
	if err != nil {
		return nil, err
	}
	lines, err := report.ParseLines(raws, b.slurm.ReportDelimiter, b.slurm.ReportColumns)
	if err != nil {
		return nil, err
	}
	out := report.Aggregate(lines)
	for _, acct := range out {
		for _, usage := range acct {
			for comp, v := range usage {
				if cu, ok := b.components[comp]; ok {
					usage[comp] = report.Round2(v * cu.ReportingFactor())
				}
			}
		}
	}
	return out, nil
}
