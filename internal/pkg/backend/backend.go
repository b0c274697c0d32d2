// Package backend is the composition root of the periodic-limits subsystem:
// it turns marketplace policy into sacctmgr invocations and sacct output into
// marketplace-unit usage reports.
package backend

import (
	"context"
	"log/slog"
	"time"

	"spard/config"
	"spard/internal/pkg/allocation"
	"spard/internal/pkg/client/ldap"
	"spard/internal/pkg/client/slurmcli"
	"spard/internal/pkg/model"
	"spard/internal/pkg/report"
)

// Backend adapts the marketplace resource lifecycle to one SLURM cluster.
// All fields are set at construction and read-only afterwards; per-request
// mutable state lives in the per-call slurmcli.Client instances.
type Backend struct {
	logger     *slog.Logger
	policy     config.Periodic
	slurm      config.Slurm
	components map[string]model.ComponentUnitConfig
	qosNames   allocation.QoSNames

	ldap   *ldap.Client
	newCLI func() *slurmcli.Client
	now    func() time.Time
}

// New builds a Backend from validated configuration. The LDAP client is
// optional; without it membership sync falls back to local id lookups.
func New(cfg *config.Config, lcli *ldap.Client, logger *slog.Logger) *Backend {
	return &Backend{
		logger:     logger,
		policy:     cfg.Server.Periodic,
		slurm:      cfg.Server.Slurm,
		components: cfg.Server.Components,
		qosNames: allocation.QoSNames{
			Normal:   cfg.Server.Periodic.QoSNames.Normal,
			Slowdown: cfg.Server.Periodic.QoSNames.Slowdown,
			Blocked:  cfg.Server.Periodic.QoSNames.Blocked,
		},
		ldap:   lcli,
		newCLI: func() *slurmcli.Client { return slurmcli.New(logger) },
		now:    time.Now,
	}
}

// WithClientFactory overrides how per-call CLI clients are made. Test seam.
func (b *Backend) WithClientFactory(fn func() *slurmcli.Client) *Backend {
	b.newCLI = fn
	return b
}

// WithClock overrides the time source. Test seam.
func (b *Backend) WithClock(fn func() time.Time) *Backend {
	b.now = fn
	return b
}

// Package-level default Backend for convenience wiring.
var defaultBackend *Backend

// SetDefault sets the package-level default Backend.
func SetDefault(b *Backend) { defaultBackend = b }

// Default returns the package-level default Backend.
func Default() *Backend { return defaultBackend }

// usageInUnits queries sacct for the window and returns the account's total
// usage converted to marketplace allocation units via the limit-setting
// factors.
func (b *Backend) usageInUnits(ctx context.Context, cli *slurmcli.Client, account string, start, end time.Time) (float64, error) {
	raws, err := cli.UsageReportLines(ctx, []string{account}, start, end, b.slurm.ReportColumns)
	if err != nil {
		return 0, err
	}
	lines, err := report.ParseLines(raws, b.slurm.ReportDelimiter, b.slurm.ReportColumns)
	if err != nil {
		return 0, err
	}
	agg := report.Aggregate(lines)
	totals, ok := agg[account]
	if !ok {
		// Absent means no recorded usage in the window.
		return 0, nil
	}
	var units float64
	for comp, v := range totals[model.TotalAccountUsage] {
		if cu, ok := b.components[comp]; ok {
			units += v * cu.UnitFactor
		}
	}
	return units, nil
}
