package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"spard/internal/pkg/model"
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	Slurm      Slurm                                `yaml:"slurm"`
	Slurmdb    Slurmdb                              `yaml:"slurmdb"`
	LDAP       LDAP                                 `yaml:"ldap"`
	Periodic   Periodic                             `yaml:"periodic"`
	Components map[string]model.ComponentUnitConfig `yaml:"components" validate:"required,min=1,dive"`
}

// Slurm holds the CLI-side settings: how sacct report output is shaped and
// which cluster the agent manages.
type Slurm struct {
	ClusterName     string   `yaml:"clusterName" validate:"required"`
	DefaultAccount  string   `yaml:"defaultAccount"`
	ReportDelimiter string   `yaml:"reportDelimiter"`
	ReportColumns   []string `yaml:"reportColumns" validate:"required,min=1"`
}

type Slurmdb struct {
	ClusterName     string `yaml:"clusterName"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parseTime"`
	Loc             string `yaml:"loc"`
	TLS             string `yaml:"tls"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime string `yaml:"connMaxLifetime"`
}

type LDAP struct {
	Enabled            bool   `yaml:"enabled"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	UseTLS             bool   `yaml:"useTLS"`
	StartTLS           bool   `yaml:"startTLS"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	ServerName         string `yaml:"serverName"`
	RootCAFile         string `yaml:"rootCAFile"`
	BindDN             string `yaml:"bindDN"`
	BindPassword       string `yaml:"bindPassword"`
	BaseDN             string `yaml:"baseDN"`
	UsernameAttr       string `yaml:"usernameAttr"`
	ConnectTimeout     string `yaml:"connectTimeout"`
	ReadTimeout        string `yaml:"readTimeout"`
}

// Periodic is the periodic-limits policy. All of it is validated at load
// time; a transition never fails on configuration.
type Periodic struct {
	HalfLifeDays float64         `yaml:"halfLifeDays" validate:"gt=0"`
	GraceRatio   float64         `yaml:"graceRatio" validate:"gte=0,lte=1"`
	BillingUnits bool            `yaml:"billingUnits"`
	LimitType    model.LimitType `yaml:"limitType" validate:"oneof=grp_tres_mins max_tres_mins grp_tres"`
	QoSNames     QoSNames        `yaml:"qosNames"`
}

// QoSNames maps the three abstract service levels to deployment-chosen
// backend QoS names.
type QoSNames struct {
	Normal   string `yaml:"normal" validate:"required"`
	Slowdown string `yaml:"slowdown" validate:"required"`
	Blocked  string `yaml:"blocked" validate:"required"`
}

// Load reads a YAML config file from the given path, unmarshals into Config
// and validates it. Configuration errors surface here, never later.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags plus the cross-field rules the tags cannot
// express, and applies defaults for optional fields.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	names := c.Server.Periodic.QoSNames
	if names.Normal == names.Slowdown || names.Normal == names.Blocked || names.Slowdown == names.Blocked {
		return fmt.Errorf("qosNames must map normal/slowdown/blocked to distinct QoS names")
	}
	for _, col := range c.Server.Slurm.ReportColumns {
		if _, ok := c.Server.Components[col]; !ok {
			return fmt.Errorf("reportColumns entry %q has no matching component", col)
		}
	}
	if c.Server.Slurm.ReportDelimiter == "" {
		c.Server.Slurm.ReportDelimiter = "|"
	}
	if c.Server.Slurmdb.ClusterName == "" {
		c.Server.Slurmdb.ClusterName = c.Server.Slurm.ClusterName
	}
	return nil
}
