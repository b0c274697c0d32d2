package allocation

import "fmt"

// Level is one of exactly three service-quality levels an account can be in.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelSlowdown Level = "slowdown"
	LevelBlocked  Level = "blocked"
)

// ParseLevel validates a level string coming in over the wire.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelNormal, LevelSlowdown, LevelBlocked:
		return Level(s), nil
	case "":
		// Newly provisioned accounts start at normal.
		return LevelNormal, nil
	}
	return "", fmt.Errorf("unknown QoS level %q", s)
}

// LevelFor maps a (usage, threshold, grace limit) triple to a level. Pure and
// path-independent: blocked at or above the grace limit, slowdown at or above
// the threshold, normal below.
func LevelFor(currentUsage, threshold, graceLimit float64) Level {
	switch {
	case currentUsage >= graceLimit:
		return LevelBlocked
	case currentUsage >= threshold:
		return LevelSlowdown
	default:
		return LevelNormal
	}
}

// QoSNames maps the abstract levels to deployment-chosen backend QoS names.
// Completeness is the config layer's concern; NameFor assumes a valid map.
type QoSNames struct {
	Normal   string
	Slowdown string
	Blocked  string
}

// NameFor returns the backend QoS name for a level.
func (n QoSNames) NameFor(level Level) string {
	switch level {
	case LevelSlowdown:
		return n.Slowdown
	case LevelBlocked:
		return n.Blocked
	default:
		return n.Normal
	}
}

// Transition is the outcome of one QoS evaluation: the level the usage maps
// to, whether it differs from the currently recorded level, and the backend
// QoS name to set when it does.
type Transition struct {
	Level   Level  `json:"level"`
	Changed bool   `json:"changed"`
	QoSName string `json:"qos_name,omitempty"`
}

// Evaluate compares the level the usage maps to against the account's
// currently recorded level. When nothing changed, QoSName stays empty and no
// backend update is needed.
func Evaluate(current Level, currentUsage, threshold, graceLimit float64, names QoSNames) Transition {
	next := LevelFor(currentUsage, threshold, graceLimit)
	if next == current {
		return Transition{Level: next}
	}
	return Transition{Level: next, Changed: true, QoSName: names.NameFor(next)}
}
