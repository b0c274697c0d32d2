package model

// TotalAccountUsage is the synthetic user key under which the per-account
// aggregate is reported alongside the real per-user entries.
const TotalAccountUsage = "TOTAL_ACCOUNT_USAGE"

// UsageRecord is one observation of consumption for an (account, user) pair
// within a period. User may be TotalAccountUsage for the aggregate entry.
type UsageRecord struct {
	Account string             `json:"account"`
	User    string             `json:"user"`
	Usage   map[string]float64 `json:"usage"`
	Period  string             `json:"period"`
}

// UsageReport is the two-level aggregate shape returned by the reporter:
// account -> (user | TOTAL_ACCOUNT_USAGE) -> component -> amount.
type UsageReport map[string]map[string]map[string]float64

// CarryoverDetail is the result of one decay/carryover computation. It is
// produced fresh on every period transition and always travels inside a
// PeriodicSettings value.
type CarryoverDetail struct {
	PreviousUsage      float64 `json:"previous_usage"`
	DecayFactor        float64 `json:"decay_factor"`
	EffectiveUsage     float64 `json:"effective_usage"`
	UnusedAllocation   float64 `json:"unused_allocation"`
	NewTotalAllocation float64 `json:"new_total_allocation"`
}

// LimitType selects which sacctmgr association limit carries the periodic
// quota. Exactly one is configured per deployment.
type LimitType string

const (
	LimitGrpTresMins LimitType = "grp_tres_mins"
	LimitMaxTresMins LimitType = "max_tres_mins"
	LimitGrpTres     LimitType = "grp_tres"
)

// SacctmgrKey returns the sacctmgr "set" key for the limit type.
func (lt LimitType) SacctmgrKey() string {
	switch lt {
	case LimitGrpTresMins:
		return "GrpTRESMins"
	case LimitMaxTresMins:
		return "MaxTRESMins"
	case LimitGrpTres:
		return "GrpTRES"
	}
	return ""
}

// PeriodicSettings is the synthesized output applied to one account for one
// period: the fairshare weight, the QoS threshold/grace window in
// backend-native minutes, the limit specification to set and the carryover
// that produced the allocation.
type PeriodicSettings struct {
	Account       string          `json:"account"`
	Period        string          `json:"period"`
	Fairshare     int64           `json:"fairshare"`
	QoSThreshold  float64         `json:"qos_threshold"`
	GraceLimit    float64         `json:"grace_limit"`
	LimitType     LimitType       `json:"limit_type"`
	LimitSpec     string          `json:"limit_spec"`
	RawUsageReset bool            `json:"raw_usage_reset"`
	Carryover     CarryoverDetail `json:"carryover"`
}

// ComponentUnitConfig is the static per-marketplace-component configuration
// loaded once at backend construction and immutable afterwards.
type ComponentUnitConfig struct {
	MeasuredUnit        string  `yaml:"measuredUnit" json:"measured_unit"`
	UnitFactor          float64 `yaml:"unitFactor" json:"unit_factor" validate:"gt=0"`
	UnitFactorReporting float64 `yaml:"unitFactorReporting" json:"unit_factor_reporting" validate:"gte=0"`
	AccountingType      string  `yaml:"accountingType" json:"accounting_type" validate:"oneof=usage limit"`
	Label               string  `yaml:"label" json:"label"`
}

// ReportingFactor returns the factor used when emitting usage reports: the
// reporting-specific factor when configured, else the limit-setting factor.
func (c ComponentUnitConfig) ReportingFactor() float64 {
	if c.UnitFactorReporting > 0 {
		return c.UnitFactorReporting
	}
	return c.UnitFactor
}
