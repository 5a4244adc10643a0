package snapshots

import (
	"reflect"
	"sort"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
)

// FieldChange records one field that differs between two document versions.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Diff compares two document versions field by field and returns the changed
// fields in stable order. A nil before or after stands for a create or delete,
// which carries no per-field changes; the action alone conveys the event.
func Diff(before, after map[string]any) []FieldChange {
	if before == nil || after == nil {
		return nil
	}

	keys := make(map[string]struct{}, len(before)+len(after))
	for key := range before {
		keys[key] = struct{}{}
	}
	for key := range after {
		keys[key] = struct{}{}
	}

	fields := make([]string, 0, len(keys))
	for key := range keys {
		fields = append(fields, key)
	}
	sort.Strings(fields)

	var changes []FieldChange
	for _, field := range fields {
		oldValue, hadOld := before[field]
		newValue, hasNew := after[field]
		if hadOld && hasNew && reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Old: oldValue, New: newValue})
	}
	return changes
}

// DetermineAction resolves the audit action for a mutation: an explicit delete
// wins, a document with no prior snapshot is a create, everything else is an
// update.
func DetermineAction(deleted bool, previous *models.Snapshot) enums.SnapshotAction {
	if deleted {
		return enums.SnapshotActionDelete
	}
	if previous == nil {
		return enums.SnapshotActionCreate
	}
	return enums.SnapshotActionUpdate
}
