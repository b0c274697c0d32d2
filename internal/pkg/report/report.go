// Package report turns raw accounting output lines into typed usage records
// and aggregates them per account.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"spard/internal/pkg/model"
)

// Line is one parsed accounting line: who consumed what.
type Line struct {
	Account string
	User    string
	Usage   map[string]float64
}

// ParseLine parses one delimiter-separated accounting line laid out as
// account, user, then one value per entry of components. Empty value fields
// count as zero; a wrong field count or a non-numeric value is an error.
func ParseLine(raw, delimiter string, components []string) (Line, error) {
	fields := strings.Split(strings.TrimSpace(raw), delimiter)
	if len(fields) != len(components)+2 {
		return Line{}, fmt.Errorf("accounting line has %d fields, want %d: %q", len(fields), len(components)+2, raw)
	}
	line := Line{
		Account: strings.TrimSpace(fields[0]),
		User:    strings.TrimSpace(fields[1]),
		Usage:   make(map[string]float64, len(components)),
	}
	if line.Account == "" {
		return Line{}, fmt.Errorf("accounting line has empty account: %q", raw)
	}
	for i, comp := range components {
		val := strings.TrimSpace(fields[i+2])
		if val == "" {
			line.Usage[comp] = 0
			continue
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return Line{}, fmt.Errorf("accounting line value %q for %s: %w", val, comp, err)
		}
		if f < 0 {
			return Line{}, fmt.Errorf("accounting line has negative usage %v for %s: %q", f, comp, raw)
		}
		line.Usage[comp] = f
	}
	return line, nil
}

// ParseLines parses a batch, skipping empty lines.
func ParseLines(raws []string, delimiter string, components []string) ([]Line, error) {
	lines := make([]Line, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, err := ParseLine(raw, delimiter, components)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Aggregate groups lines by account, summing repeated (account, user) pairs,
// and adds the TOTAL_ACCOUNT_USAGE entry as the elementwise sum over the
// account's users. Every emitted value is rounded to 2 decimal places.
// Accounts without any contributing line are simply absent from the result;
// "absent" and "present with zero usage" are distinct states for callers.
func Aggregate(lines []Line) model.UsageReport {
	out := make(model.UsageReport)
	for _, line := range lines {
		acct, ok := out[line.Account]
		if !ok {
			acct = map[string]map[string]float64{
				model.TotalAccountUsage: make(map[string]float64),
			}
			out[line.Account] = acct
		}
		user, ok := acct[line.User]
		if !ok {
			user = make(map[string]float64)
			acct[line.User] = user
		}
		total := acct[model.TotalAccountUsage]
		for comp, v := range line.Usage {
			user[comp] += v
			total[comp] += v
		}
	}
	for _, acct := range out {
		for _, usage := range acct {
			for comp, v := range usage {
				usage[comp] = Round2(v)
			}
		}
	}
	return out
}

// Round2 rounds to 2 decimal places, the resolution usage is reported in.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
