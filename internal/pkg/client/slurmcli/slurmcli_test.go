package slurmcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"spard/internal/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// helper: build fake exec that returns output based on args
func fakeExec(outputFn func(name string, args ...string) string) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		// Use sh -c to emit prebuilt content
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", outputFn(name, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestBuildArgs_FlagLegality(t *testing.T) {
	cases := []struct {
		name    string
		family  Family
		flags   Flags
		want    []string
		wantErr bool
		pair    bool
	}{
		{"manage all flags", FamilyAccountManage, Flags{true, true, true}, []string{"--parsable2", "--noheader", "--immediate", "x"}, false, false},
		{"manage pair only", FamilyAccountManage, Flags{Parsable: true, NoHeader: true}, []string{"--parsable2", "--noheader", "x"}, false, false},
		{"manage no flags", FamilyAccountManage, Flags{}, []string{"x"}, false, false},
		{"query pair", FamilyLimitQuery, Flags{Parsable: true, NoHeader: true}, []string{"--parsable2", "--noheader", "x"}, false, false},
		{"query immediate illegal", FamilyLimitQuery, Flags{Parsable: true, NoHeader: true, Immediate: true}, nil, true, false},
		{"report pair", FamilyReport, Flags{Parsable: true, NoHeader: true}, []string{"--parsable2", "--noheader", "x"}, false, false},
		{"report immediate illegal", FamilyReport, Flags{Immediate: true}, nil, true, false},
		{"cancel pair illegal", FamilyCancel, Flags{Parsable: true}, nil, true, true},
		{"cancel immediate illegal", FamilyCancel, Flags{Immediate: true}, nil, true, false},
		{"cancel clean", FamilyCancel, Flags{}, []string{"x"}, false, false},
		{"id noheader illegal", FamilyIDLookup, Flags{NoHeader: true}, nil, true, true},
		{"id clean", FamilyIDLookup, Flags{}, []string{"x"}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildArgs(tc.family, tc.flags, "x")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got args %v", got)
				}
				var fe *FlagError
				if !errors.As(err, &fe) {
					t.Fatalf("expected *FlagError, got %T: %v", err, err)
				}
				if fe.Pair != tc.pair {
					t.Errorf("Pair = %v, want %v (%v)", fe.Pair, tc.pair, err)
				}
				if fe.Family != tc.family {
					t.Errorf("Family = %v, want %v", fe.Family, tc.family)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, " ") != strings.Join(tc.want, " ") {
				t.Errorf("args = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFlagError_Messages(t *testing.T) {
	pairErr := (&FlagError{Family: FamilyCancel, Flag: "--parsable2/--noheader", Pair: true}).Error()
	if !strings.Contains(pairErr, "flag pair") || !strings.Contains(pairErr, "cancel") {
		t.Errorf("unexpected pair message: %q", pairErr)
	}
	flagErr := (&FlagError{Family: FamilyReport, Flag: "--immediate"}).Error()
	if strings.Contains(flagErr, "flag pair") || !strings.Contains(flagErr, "--immediate") || !strings.Contains(flagErr, "report") {
		t.Errorf("unexpected flag message: %q", flagErr)
	}
}

func TestRun_IllegalFlagsNeverLogged(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string {
		t.Fatalf("command executed despite illegal flags: %s %v", name, args)
		return ""
	}))
	_, err := c.run(context.Background(), FamilyReport, Flags{Parsable: true, NoHeader: true, Immediate: true}, "--allusers")
	var fe *FlagError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FlagError, got %v", err)
	}
	if got := c.Commands(); len(got) != 0 {
		t.Errorf("execution log should be empty, got %v", got)
	}
}

func TestSetFairshare_CommandString(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string { return "" }))
	if err := c.SetFairshare(context.Background(), "hpc-proj", 662); err != nil {
		t.Fatalf("SetFairshare: %v", err)
	}
	want := "sacctmgr --parsable2 --noheader --immediate modify account hpc-proj set fairshare=662"
	got := c.Commands()
	if len(got) != 1 || got[0] != want {
		t.Errorf("commands = %v, want [%s]", got, want)
	}
}

func TestSetLimit_CommandString(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string { return "" }))
	if err := c.SetLimit(context.Background(), "hpc-proj", model.LimitGrpTresMins, "billing=119250"); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	want := "sacctmgr --parsable2 --noheader --immediate modify account hpc-proj set GrpTRESMins=billing=119250"
	if got := c.Commands(); len(got) != 1 || got[0] != want {
		t.Errorf("commands = %v, want [%s]", got, want)
	}
}

func TestListAccountLimits_NoImmediateAndParse(t *testing.T) {
	sample := "hpc-proj||10|billing=60000|hpc-normal\nhpc-proj|alice|1||hpc-normal\n"
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string {
		return sample
	}))
	limits, err := c.ListAccountLimits(context.Background(), "hpc-proj")
	if err != nil {
		t.Fatalf("ListAccountLimits: %v", err)
	}
	cmds := c.Commands()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 logged command, got %v", cmds)
	}
	if !strings.HasPrefix(cmds[0], "sacctmgr --parsable2 --noheader show association") {
		t.Errorf("unexpected command: %s", cmds[0])
	}
	if strings.Contains(cmds[0], "--immediate") {
		t.Errorf("limit query must never carry --immediate: %s", cmds[0])
	}
	if len(limits) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(limits))
	}
	if limits[0].GrpTresMins != "billing=60000" || limits[0].Qos != "hpc-normal" {
		t.Errorf("unexpected account row: %+v", limits[0])
	}
	if limits[1].User != "alice" {
		t.Errorf("unexpected user row: %+v", limits[1])
	}
}

func TestUsageReportLines_CommandShape(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string {
		return "hpc-proj|alice|100.0|10.0\n\nhpc-proj|bob|50.0|0.0"
	}))
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	lines, err := c.UsageReportLines(context.Background(), []string{"hpc-proj"}, start, end, []string{"cpu", "gres/gpu"})
	if err != nil {
		t.Fatalf("UsageReportLines: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("expected 2 non-empty lines, got %v", lines)
	}
	want := "sacct --parsable2 --noheader --allusers -X --accounts=hpc-proj " +
		"--starttime=2024-02-01T00:00:00 --endtime=2024-02-29T23:59:59 --format=Account,User,cpu,gres/gpu"
	if got := c.Commands(); len(got) != 1 || got[0] != want {
		t.Errorf("command = %v\nwant %s", got, want)
	}
}

func TestCancelJobs_NoOptionalFlags(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string { return "" }))
	if err := c.CancelJobs(context.Background(), "hpc-proj", "alice"); err != nil {
		t.Fatalf("CancelJobs: %v", err)
	}
	want := "scancel -A hpc-proj -u alice"
	if got := c.Commands(); len(got) != 1 || got[0] != want {
		t.Errorf("commands = %v, want [%s]", got, want)
	}
}

func TestLocalUserExists(t *testing.T) {
	c := New(testLogger()).WithExecCommand(fakeExec(func(name string, args ...string) string { return "1000" }))
	ok, err := c.LocalUserExists(context.Background(), "alice")
	if err != nil || !ok {
		t.Errorf("expected existing user, got ok=%v err=%v", ok, err)
	}

	missing := New(testLogger()).WithExecCommand(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "exit 1")
	})
	ok, err = missing.LocalUserExists(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if ok {
		t.Error("expected missing user")
	}
}

func TestLocalUserExists_MissNotLoggedAsError(t *testing.T) {
	failing := func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "exit 1")
	}

	// Default handler level is Info: an expected id miss must stay silent.
	var buf bytes.Buffer
	c := New(slog.New(slog.NewTextHandler(&buf, nil))).WithExecCommand(failing)
	if _, err := c.LocalUserExists(context.Background(), "ghost"); err != nil {
		t.Fatalf("LocalUserExists: %v", err)
	}
	if s := buf.String(); strings.Contains(s, "failed to exec") {
		t.Errorf("id miss logged as error: %q", s)
	}

	// Other families keep the error record.
	buf.Reset()
	c = New(slog.New(slog.NewTextHandler(&buf, nil))).WithExecCommand(failing)
	if err := c.CancelJobs(context.Background(), "hpc-proj", ""); err == nil {
		t.Fatal("expected scancel failure")
	}
	if s := buf.String(); !strings.Contains(s, "failed to exec") {
		t.Errorf("scancel failure missing error record: %q", s)
	}
}
