package enums

import "fmt"

// SnapshotAction classifies what a mutation did to the audited entity.
type SnapshotAction string

const (
	SnapshotActionCreate SnapshotAction = "CREATE"
	SnapshotActionUpdate SnapshotAction = "UPDATE"
	SnapshotActionDelete SnapshotAction = "DELETE"
)

var validSnapshotActions = []SnapshotAction{
	SnapshotActionCreate,
	SnapshotActionUpdate,
	SnapshotActionDelete,
}

// String implements fmt.Stringer.
func (s SnapshotAction) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SnapshotAction.
func (s SnapshotAction) IsValid() bool {
	for _, candidate := range validSnapshotActions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSnapshotAction converts raw input into a SnapshotAction.
func ParseSnapshotAction(value string) (SnapshotAction, error) {
	for _, candidate := range validSnapshotActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid snapshot action %q", value)
}
