package tasklog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a task within one normalized batch. Legacy logs carry small
// integer ids while synthesized ids are a millisecond timestamp plus a random
// fraction, so both live in a float64 domain.
type ID float64

func (id ID) String() string {
	return strconv.FormatFloat(float64(id), 'f', -1, 64)
}

// Status is the task status vocabulary the rest of the application expects.
type Status string

// Canonical status values
const (
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusIcebox     Status = "icebox"
	StatusInProgress Status = "in-progress"
)

// IsCanonical reports whether s is one of the canonical status values
func (s Status) IsCanonical() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusIcebox, StatusInProgress:
		return true
	default:
		return false
	}
}

// Field names used by stored task records
const (
	fieldID       = "id"
	fieldName     = "name"
	fieldText     = "text"
	fieldStatus   = "status"
	fieldDone     = "done"
	fieldDepth    = "depth"
	fieldSubtasks = "subtasks"
	fieldActTime  = "actTime"
	fieldPlanTime = "planTime"
	fieldPercent  = "percent"
	fieldSpaceID  = "space_id"
)

// canonicalFields are overwritten on output; everything else is carried in Extra.
var canonicalFields = map[string]bool{
	fieldID:       true,
	fieldName:     true,
	fieldStatus:   true,
	fieldDepth:    true,
	fieldSubtasks: true,
	fieldActTime:  true,
	fieldPlanTime: true,
	fieldPercent:  true,
	fieldSpaceID:  true,
}

// Task is the flat, canonical form of a task. The tree structure of the
// stored log is gone; Depth carries the nesting level for display.
type Task struct {
	ID       ID
	Name     string
	Status   Status
	Depth    int
	ActTime  float64
	PlanTime float64
	Percent  float64
	SpaceID  string

	// Extra holds every other field of the stored record, including the
	// legacy "text" and "done" fields. It never contains "subtasks".
	Extra map[string]any
}

// Raw returns the task as a generic record, the same shape it is stored in.
// Feeding Raw output back into Normalize is a no-op apart from ids.
func (t Task) Raw() map[string]any {
	m := make(map[string]any, len(t.Extra)+8)
	for k, v := range t.Extra {
		if canonicalFields[k] {
			continue
		}
		m[k] = v
	}
	m[fieldID] = float64(t.ID)
	m[fieldName] = t.Name
	m[fieldStatus] = string(t.Status)
	m[fieldDepth] = t.Depth
	m[fieldActTime] = t.ActTime
	m[fieldPlanTime] = t.PlanTime
	m[fieldPercent] = t.Percent
	m[fieldSpaceID] = t.SpaceID
	return m
}

// MarshalJSON flattens Extra alongside the canonical fields
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw())
}

// UnmarshalJSON reads a stored record without re-synthesizing its id.
// Field coercion follows the same rules as Normalize.
func (t *Task) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to parse task: %w", err)
	}

	*t = buildTask(rec, ID(toNumber(rec[fieldID])), seedDepth(Record(rec)))
	return nil
}

// RawTasks returns the raw form of every task, suitable for Normalize.
func RawTasks(tasks []Task) []any {
	raw := make([]any, len(tasks))
	for i := range tasks {
		raw[i] = tasks[i].Raw()
	}
	return raw
}
