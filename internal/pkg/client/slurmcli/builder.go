package slurmcli

import "fmt"

// Family identifies one backend CLI command family. The set is closed: flag
// legality is decided by exhaustive switch, not by runtime lookup tables.
type Family int

const (
	// FamilyAccountManage covers sacctmgr mutations (add/modify/remove).
	FamilyAccountManage Family = iota
	// FamilyLimitQuery covers sacctmgr show/list. Same binary as
	// FamilyAccountManage, but the read path must never block on cluster
	// contention, so --immediate is deliberately illegal here.
	FamilyLimitQuery
	// FamilyReport covers sacct accounting reports.
	FamilyReport
	// FamilyCancel covers scancel.
	FamilyCancel
	// FamilyIDLookup covers id lookups of local users.
	FamilyIDLookup
)

// Command returns the binary invoked for the family.
func (f Family) Command() string {
	switch f {
	case FamilyAccountManage, FamilyLimitQuery:
		return "sacctmgr"
	case FamilyReport:
		return "sacct"
	case FamilyCancel:
		return "scancel"
	case FamilyIDLookup:
		return "id"
	}
	return ""
}

func (f Family) String() string {
	switch f {
	case FamilyAccountManage:
		return "account-manage"
	case FamilyLimitQuery:
		return "limit-query"
	case FamilyReport:
		return "report"
	case FamilyCancel:
		return "cancel"
	case FamilyIDLookup:
		return "id-lookup"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// Flags are the three optional flags a caller may request. Parsable and
// NoHeader form a paired option group; Immediate stands alone.
type Flags struct {
	Parsable  bool
	NoHeader  bool
	Immediate bool
}

// FlagError reports a flag requested for a family that does not support it.
// It is returned before any command is constructed or logged.
type FlagError struct {
	Family Family
	Flag   string
	Pair   bool
}

func (e *FlagError) Error() string {
	if e.Pair {
		return fmt.Sprintf("flag pair %s not supported by %s commands", e.Flag, e.Family)
	}
	return fmt.Sprintf("flag %s not supported by %s commands", e.Flag, e.Family)
}

// BuildArgs produces the final argument sequence for one invocation: the
// legal optional flags in the fixed order --parsable2 --noheader --immediate,
// followed by the positional args. Illegal requests fail without building
// anything.
func BuildArgs(f Family, fl Flags, args ...string) ([]string, error) {
	var pairLegal, immediateLegal bool
	switch f {
	case FamilyAccountManage:
		pairLegal, immediateLegal = true, true
	case FamilyLimitQuery, FamilyReport:
		pairLegal, immediateLegal = true, false
	case FamilyCancel, FamilyIDLookup:
		pairLegal, immediateLegal = false, false
	default:
		return nil, fmt.Errorf("unknown command family %d", int(f))
	}

	if (fl.Parsable || fl.NoHeader) && !pairLegal {
		return nil, &FlagError{Family: f, Flag: "--parsable2/--noheader", Pair: true}
	}
	if fl.Immediate && !immediateLegal {
		return nil, &FlagError{Family: f, Flag: "--immediate"}
	}

	out := make([]string, 0, len(args)+3)
	if fl.Parsable {
		out = append(out, "--parsable2")
	}
	if fl.NoHeader {
		out = append(out, "--noheader")
	}
	if fl.Immediate {
		out = append(out, "--immediate")
	}
	return append(out, args...), nil
}
