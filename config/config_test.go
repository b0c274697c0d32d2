package config

import (
	"testing"

	"spard/internal/pkg/model"
)

func validConfig() *Config {
	return &Config{
		Server: Server{
			Slurm: Slurm{
				ClusterName:   "test",
				ReportColumns: []string{"cpu"},
			},
			Periodic: Periodic{
				HalfLifeDays: 15,
				GraceRatio:   0.2,
				LimitType:    model.LimitGrpTresMins,
				QoSNames: QoSNames{
					Normal:   "hpc-normal",
					Slowdown: "hpc-slow",
					Blocked:  "hpc-blocked",
				},
			},
			Components: map[string]model.ComponentUnitConfig{
				"cpu": {MeasuredUnit: "node-hours", UnitFactor: 1, AccountingType: "limit"},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if cfg.Server.Slurm.ReportDelimiter != "|" {
		t.Errorf("delimiter default not applied: %q", cfg.Server.Slurm.ReportDelimiter)
	}
	if cfg.Server.Slurmdb.ClusterName != "test" {
		t.Errorf("slurmdb cluster default not applied: %q", cfg.Server.Slurmdb.ClusterName)
	}
}

func TestValidate_FailFast(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive half-life", func(c *Config) { c.Server.Periodic.HalfLifeDays = 0 }},
		{"negative half-life", func(c *Config) { c.Server.Periodic.HalfLifeDays = -7 }},
		{"grace ratio above 1", func(c *Config) { c.Server.Periodic.GraceRatio = 1.5 }},
		{"grace ratio negative", func(c *Config) { c.Server.Periodic.GraceRatio = -0.1 }},
		{"unknown limit type", func(c *Config) { c.Server.Periodic.LimitType = "grp_wall" }},
		{"missing qos name", func(c *Config) { c.Server.Periodic.QoSNames.Blocked = "" }},
		{"duplicate qos names", func(c *Config) { c.Server.Periodic.QoSNames.Slowdown = "hpc-normal" }},
		{"no components", func(c *Config) { c.Server.Components = nil }},
		{"zero unit factor", func(c *Config) {
			c.Server.Components["cpu"] = model.ComponentUnitConfig{UnitFactor: 0, AccountingType: "limit"}
		}},
		{"bad accounting type", func(c *Config) {
			c.Server.Components["cpu"] = model.ComponentUnitConfig{UnitFactor: 1, AccountingType: "quota"}
		}},
		{"report column without component", func(c *Config) {
			c.Server.Slurm.ReportColumns = []string{"cpu", "mem"}
		}},
		{"no report columns", func(c *Config) { c.Server.Slurm.ReportColumns = nil }},
		{"no cluster name", func(c *Config) { c.Server.Slurm.ClusterName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
