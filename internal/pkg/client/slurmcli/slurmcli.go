package slurmcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"spard/internal/pkg/model"
)

// ErrUnavailable marks failures to reach the backend CLI (spawn failure,
// timeout, non-zero exit). Callers decide the retry policy; the client never
// retries on its own.
var ErrUnavailable = errors.New("slurm backend unavailable")

// ExecCommandFunc 定义 exec.CommandContext 的函数签名，方便 mock 测试.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client 提供使用命令与 Slurm 记账系统交互的功能 (sacctmgr/sacct/scancel/id).
//
// The commands slice is an append-only execution log of every successfully
// constructed invocation. It is the client's only mutable state; use one
// Client per account-processing task, never a shared singleton.
type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
	commands    []string
}

func New(logger *slog.Logger) *Client {
	return &Client{execCommand: exec.CommandContext, logger: logger}
}

func (c *Client) WithExecCommand(exec ExecCommandFunc) *Client {
	c.execCommand = exec
	return c
}

// Commands returns the execution log in invocation order.
func (c *Client) Commands() []string {
	out := make([]string, len(c.commands))
	copy(out, c.commands)
	return out
}

// run builds the argument list for one family, records the final command
// string and executes it. Illegal flag requests fail before anything is
// logged or executed.
func (c *Client) run(ctx context.Context, f Family, fl Flags, args ...string) (string, error) {
	argv, err := BuildArgs(f, fl, args...)
	if err != nil {
		return "", err
	}
	line := f.Command()
	if len(argv) > 0 {
		line += " " + strings.Join(argv, " ")
	}
	c.commands = append(c.commands, line)

	cmd := c.execCommand(ctx, f.Command(), argv...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// id exits non-zero for unknown users; that is an answer, not a
		// failure worth an error record.
		var exitErr *exec.ExitError
		if f == FamilyIDLookup && errors.As(err, &exitErr) {
			c.logger.Debug("id lookup miss", "cmd", line, "err", err)
		} else {
			c.logger.Error("failed to exec slurm command", "cmd", line, "output", string(out), "err", err)
		}
		return string(out), fmt.Errorf("exec %q: %w: %w", line, err, ErrUnavailable)
	}
	return string(out), nil
}

// CreateAccount registers a new account with sacctmgr.
func (c *Client) CreateAccount(ctx context.Context, name, description, organization string) error {
	if description == "" {
		description = name
	}
	if organization == "" {
		organization = name
	}
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"add", "account", name,
		fmt.Sprintf("description=%q", description),
		fmt.Sprintf("organization=%q", organization))
	return err
}

// SetFairshare updates the account's fairshare weight.
func (c *Client) SetFairshare(ctx context.Context, account string, fairshare int64) error {
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"modify", "account", account, "set",
		fmt.Sprintf("fairshare=%d", fairshare))
	return err
}

// SetLimit applies the configured limit type with the given TRES spec,
// e.g. "billing=119250" or "cpu=60000,gres/gpu=1200".
func (c *Client) SetLimit(ctx context.Context, account string, lt model.LimitType, spec string) error {
	key := lt.SacctmgrKey()
	if key == "" {
		return fmt.Errorf("unknown limit type %q", lt)
	}
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"modify", "account", account, "set",
		fmt.Sprintf("%s=%s", key, spec))
	return err
}

// SetQoS points the account at the given backend QoS.
func (c *Client) SetQoS(ctx context.Context, account, qos string) error {
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"modify", "account", account, "set",
		fmt.Sprintf("qos=%s", qos))
	return err
}

// ResetRawUsage zeroes the cluster's cumulative usage counter for the
// account. Issued only when a period transition actually changed the period.
func (c *Client) ResetRawUsage(ctx context.Context, account string) error {
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"modify", "account", account, "set", "RawUsage=0")
	return err
}

// AddUser creates a user association under the account.
func (c *Client) AddUser(ctx context.Context, username, account string) error {
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"add", "user", username, fmt.Sprintf("account=%s", account))
	return err
}

// RemoveUser removes the user association from the account.
func (c *Client) RemoveUser(ctx context.Context, username, account string) error {
	_, err := c.run(ctx, FamilyAccountManage,
		Flags{Parsable: true, NoHeader: true, Immediate: true},
		"remove", "user", "where",
		fmt.Sprintf("name=%s", username), "and",
		fmt.Sprintf("account=%s", account))
	return err
}

// AssocLimit is one association row from the limit-query path.
type AssocLimit struct {
	Account     string
	User        string
	Fairshare   string
	GrpTresMins string
	Qos         string
}

// ListAccountLimits reads the account's current association limits. This is
// the read-only sacctmgr variant: --immediate is never legal here.
func (c *Client) ListAccountLimits(ctx context.Context, account string) ([]AssocLimit, error) {
	out, err := c.run(ctx, FamilyLimitQuery,
		Flags{Parsable: true, NoHeader: true},
		"show", "association", "where",
		fmt.Sprintf("account=%s", account),
		"format=Account,User,Fairshare,GrpTRESMins,QOS")
	if err != nil {
		return nil, err
	}
	limits := make([]AssocLimit, 0)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			c.logger.Warn("invalid sacctmgr association line, skip", "line", line)
			continue
		}
		limits = append(limits, AssocLimit{
			Account:     fields[0],
			User:        fields[1],
			Fairshare:   fields[2],
			GrpTresMins: fields[3],
			Qos:         fields[4],
		})
	}
	return limits, nil
}

// UsageReportLines queries sacct for the given accounts over [start, end] and
// returns the raw delimiter-separated lines. Parsing belongs to the report
// package; the column set is deployment configuration.
func (c *Client) UsageReportLines(ctx context.Context, accounts []string, start, end time.Time, columns []string) ([]string, error) {
	format := append([]string{"Account", "User"}, columns...)
	out, err := c.run(ctx, FamilyReport,
		Flags{Parsable: true, NoHeader: true},
		"--allusers", "-X",
		fmt.Sprintf("--accounts=%s", strings.Join(accounts, ",")),
		fmt.Sprintf("--starttime=%s", start.Format("2006-01-02T15:04:05")),
		fmt.Sprintf("--endtime=%s", end.Format("2006-01-02T15:04:05")),
		fmt.Sprintf("--format=%s", strings.Join(format, ",")))
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// CancelJobs cancels the account's jobs, optionally restricted to one user.
// scancel supports none of the optional flags.
func (c *Client) CancelJobs(ctx context.Context, account, username string) error {
	args := []string{"-A", account}
	if username != "" {
		args = append(args, "-u", username)
	}
	_, err := c.run(ctx, FamilyCancel, Flags{}, args...)
	return err
}

// LocalUserExists checks for a local (passwd/NSS) user via id. A non-zero
// exit means the user is unknown, not that the backend is unavailable.
func (c *Client) LocalUserExists(ctx context.Context, username string) (bool, error) {
	out, err := c.run(ctx, FamilyIDLookup, Flags{}, "-u", username)
	if err != nil {
		// A non-zero exit from id means "no such user"; anything else is a
		// real backend failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	if _, convErr := strconv.Atoi(strings.TrimSpace(out)); convErr != nil {
		return false, nil
	}
	return true, nil
}
