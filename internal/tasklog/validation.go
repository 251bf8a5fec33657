package tasklog

import (
	"fmt"
)

// Warning is a non-fatal observation about a normalized batch
type Warning struct {
	TaskID  ID
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("Task %s: %s", w.TaskID, w.Message)
}

// Report compares a raw forest with the tasks normalized from it.
// Normalize itself never reports; callers that want to know what was
// dropped build a Report.
type Report struct {
	// Entries counts every entry of the raw forest that was reachable,
	// objects and garbage alike.
	Entries int
	// Records counts the object entries among them.
	Records int
	// Malformed counts the entries that were dropped.
	Malformed int
	// Output is the number of normalized tasks.
	Output   int
	Warnings []Warning
}

// Dropped returns how many reachable entries produced no task
func (r Report) Dropped() int {
	return r.Entries - r.Output
}

// Clean reports whether nothing was dropped and nothing looked odd
func (r Report) Clean() bool {
	return r.Malformed == 0 && len(r.Warnings) == 0 && r.Records == r.Output
}

// Validate builds a Report for tasks normalized from raw.
// It checks:
// - every reachable object entry produced exactly one task
// - ids are unique
// - statuses outside the canonical set, which Normalize passes through
// - depth jumps of more than one level between consecutive tasks
func Validate(raw any, tasks []Task) Report {
	report := Report{Output: len(tasks)}
	countEntries(raw, &report)

	if report.Records != report.Output {
		report.Warnings = append(report.Warnings, Warning{
			Message: fmt.Sprintf("Expected %d tasks, got %d", report.Records, report.Output),
		})
	}

	seen := make(map[ID]bool, len(tasks))
	for i := range tasks {
		task := &tasks[i]

		if seen[task.ID] {
			report.Warnings = append(report.Warnings, Warning{
				TaskID:  task.ID,
				Message: "Duplicate task ID",
			})
		}
		seen[task.ID] = true

		if !task.Status.IsCanonical() {
			report.Warnings = append(report.Warnings, Warning{
				TaskID:  task.ID,
				Message: fmt.Sprintf("Non-canonical status: %q", task.Status),
			})
		}

		if task.Depth < 0 {
			report.Warnings = append(report.Warnings, Warning{
				TaskID:  task.ID,
				Message: fmt.Sprintf("Negative depth: %d", task.Depth),
			})
		}

		prev := -1
		if i > 0 {
			prev = tasks[i-1].Depth
		}
		if task.Depth > prev+1 {
			report.Warnings = append(report.Warnings, Warning{
				TaskID:  task.ID,
				Message: fmt.Sprintf("Depth %d exceeds expected maximum %d", task.Depth, prev+1),
			})
		}
	}

	return report
}

// countEntries walks raw the same way Normalize does
func countEntries(raw any, report *Report) {
	roots, ok := sequence(raw)
	if !ok {
		return
	}

	var count func(v any)
	count = func(v any) {
		report.Entries++
		rec, ok := Classify(v).(Record)
		if !ok {
			report.Malformed++
			return
		}
		report.Records++
		if children, ok := sequence(rec[fieldSubtasks]); ok {
			for _, child := range children {
				count(child)
			}
		}
	}

	for _, v := range roots {
		count(v)
	}
}
