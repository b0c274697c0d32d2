package backend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"spard/internal/pkg/allocation"
	"spard/internal/pkg/client/slurmcli"
	"spard/internal/pkg/model"
)

// TransitionRequest carries the marketplace-owned account state into one
// period transition or recalculation. LastPeriod is the period label the
// marketplace recorded at the previous transition; an empty label means the
// account has never transitioned.
type TransitionRequest struct {
	Account        string  `json:"account" binding:"required"`
	BaseAllocation float64 `json:"base_allocation" binding:"gte=0"`
	CurrentLevel   string  `json:"current_level"`
	LastPeriod     string  `json:"last_period"`
}

// TransitionResult is what one transition produced: the synthesized
// settings, the QoS decision, and the exact commands issued (empty for a
// preview).
type TransitionResult struct {
	Settings model.PeriodicSettings `json:"settings"`
	QoS      allocation.Transition  `json:"qos"`
	Commands []string               `json:"commands"`
}

// ApplyPeriodicSettings synthesizes the account's settings for the current
// period and pushes them to the cluster: fairshare, the configured limit
// type, a raw-usage reset when the period actually changed, and a QoS update
// when the state machine reports a change.
func (b *Backend) ApplyPeriodicSettings(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	cli := b.newCLI()
	settings, qos, err := b.synthesize(ctx, cli, req)
	if err != nil {
		return nil, err
	}

	if err := cli.SetFairshare(ctx, req.Account, settings.Fairshare); err != nil {
		return nil, fmt.Errorf("account %s: set fairshare: %w", req.Account, err)
	}
	if err := cli.SetLimit(ctx, req.Account, settings.LimitType, settings.LimitSpec); err != nil {
		return nil, fmt.Errorf("account %s: set %s: %w", req.Account, settings.LimitType, err)
	}
	if settings.RawUsageReset {
		if err := cli.ResetRawUsage(ctx, req.Account); err != nil {
			return nil, fmt.Errorf("account %s: reset raw usage: %w", req.Account, err)
		}
	}
	if qos.Changed {
		if err := cli.SetQoS(ctx, req.Account, qos.QoSName); err != nil {
			return nil, fmt.Errorf("account %s: set qos: %w", req.Account, err)
		}
	}

	b.logger.Info("applied periodic settings",
		"account", req.Account,
		"period", settings.Period,
		"fairshare", settings.Fairshare,
		"new_total_allocation", settings.Carryover.NewTotalAllocation,
		"raw_usage_reset", settings.RawUsageReset,
		"qos_changed", qos.Changed)

	return &TransitionResult{Settings: settings, QoS: qos, Commands: cli.Commands()}, nil
}

// PreviewPeriodicSettings computes the same settings without mutating the
// cluster. The usage lookups still run.
func (b *Backend) PreviewPeriodicSettings(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	cli := b.newCLI()
	settings, qos, err := b.synthesize(ctx, cli, req)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Settings: settings, QoS: qos}, nil
}

// synthesize runs the full settings calculation for one account: carryover
// over the previous period with actual elapsed days, fairshare, minute
// conversion, limit selection and the QoS evaluation against current usage.
func (b *Backend) synthesize(ctx context.Context, cli *slurmcli.Client, req TransitionRequest) (model.PeriodicSettings, allocation.Transition, error) {
	if req.BaseAllocation < 0 {
		return model.PeriodicSettings{}, allocation.Transition{}, &ValidationError{Msg: fmt.Sprintf("base allocation must be non-negative, got %v", req.BaseAllocation)}
	}
	level, err := allocation.ParseLevel(req.CurrentLevel)
	if err != nil {
		return model.PeriodicSettings{}, allocation.Transition{}, &ValidationError{Msg: err.Error()}
	}

	now := b.now()
	prevStart, prevEnd := allocation.PreviousPeriodBounds(now)

	// A corrupted usage history must never block awarding the next period's
	// base allocation; fall back to zero and say so.
	prevUsage, err := b.usageInUnits(ctx, cli, req.Account, prevStart, prevEnd)
	if err != nil {
		b.logger.Warn("previous-period usage lookup failed, falling back to zero",
			"account", req.Account, "period_start", prevStart, "err", err)
		prevUsage = 0
	}

	detail := allocation.Carryover(req.BaseAllocation, prevUsage,
		allocation.ElapsedDays(prevStart, prevEnd), b.policy.HalfLifeDays)

	minutes, spec := b.limitMinutes(detail.NewTotalAllocation)
	threshold := minutes
	grace := minutes * (1 + b.policy.GraceRatio)
	period := allocation.PeriodKey(now)

	settings := model.PeriodicSettings{
		Account:       req.Account,
		Period:        period,
		Fairshare:     allocation.Fairshare(detail.NewTotalAllocation),
		QoSThreshold:  threshold,
		GraceLimit:    grace,
		LimitType:     b.policy.LimitType,
		LimitSpec:     spec,
		RawUsageReset: period != req.LastPeriod,
		Carryover:     detail,
	}

	currentUsage, err := b.usageInUnits(ctx, cli, req.Account, allocation.PeriodStart(now), now)
	if err != nil {
		// A failed read must never drive a QoS change; a blocked account
		// would be unblocked by an outage. Leave the recorded level as is.
		b.logger.Warn("current-period usage lookup failed, leaving QoS untouched",
			"account", req.Account, "err", err)
		return settings, allocation.Transition{Level: level}, nil
	}
	qos := allocation.Evaluate(level, currentUsage*60, threshold, grace, b.qosNames)

	return settings, qos, nil
}

// limitMinutes converts a total allocation to backend-native minutes and the
// TRES spec to set. In billing-unit mode the whole allocation rides on the
// billing TRES; otherwise each limit-type component gets its own weighted
// minute budget and the threshold is their sum.
func (b *Backend) limitMinutes(totalAllocation float64) (float64, string) {
	if b.policy.BillingUnits {
		minutes := totalAllocation * 60
		return minutes, fmt.Sprintf("billing=%d", int64(math.Round(minutes)))
	}

	keys := make([]string, 0, len(b.components))
	for comp, cu := range b.components {
		if cu.AccountingType == "limit" {
			keys = append(keys, comp)
		}
	}
	sort.Strings(keys)

	var total float64
	parts := make([]string, 0, len(keys))
	for _, comp := range keys {
		minutes := totalAllocation * b.components[comp].UnitFactor * 60
		total += minutes
		parts = append(parts, fmt.Sprintf("%s=%d", comp, int64(math.Round(minutes))))
	}
	return total, strings.Join(parts, ",")
}

// batch support ----------------------------------------------------------

// BatchItem pairs one request with its outcome; a failed account never
// aborts the rest of the batch.
type BatchItem struct {
	Account string            `json:"account"`
	Result  *TransitionResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ApplyPeriodicSettingsBatch processes accounts sequentially, collecting
// per-account outcomes. Order follows the request order.
func (b *Backend) ApplyPeriodicSettingsBatch(ctx context.Context, reqs []TransitionRequest) []BatchItem {
	items := make([]BatchItem, 0, len(reqs))
	for _, req := range reqs {
		item := BatchItem{Account: req.Account}
		res, err := b.ApplyPeriodicSettings(ctx, req)
		if err != nil {
			b.logger.Error("period transition failed", "account", req.Account, "err", err)
			item.Error = err.Error()
		} else {
			item.Result = res
		}
		items = append(items, item)
	}
	return items
}
