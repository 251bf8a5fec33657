package tasklog

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// legacyStatuses maps the older status vocabulary onto canonical values.
// Lookups are made on the upper-cased status.
var legacyStatuses = map[string]Status{
	"DONE":  StatusCompleted,
	"LATER": StatusIcebox,
	"TODO":  StatusPending,
}

// CanonicalStatus remaps a legacy status token. Values that are not legacy
// tokens, canonical or not, are returned unchanged.
func CanonicalStatus(s string) Status {
	if status, ok := legacyStatuses[strings.ToUpper(s)]; ok {
		return status
	}
	return Status(s)
}

// statusOf resolves the status of a record before remapping: an explicit
// status wins, then the legacy done flag, then pending.
func statusOf(rec Record) Status {
	if s, ok := rec[fieldStatus].(string); ok && s != "" {
		return CanonicalStatus(s)
	}
	if done, ok := rec[fieldDone].(bool); ok && done {
		return StatusCompleted
	}
	return StatusPending
}

// toNumber coerces v to a finite number, falling back to 0.
func toNumber(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// numeric reports the value of v when v already is a number. Strings do not
// count, matching how the depth hint was always written.
func numeric(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f = cast.ToFloat64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// scalarString returns a non-empty label for strings and non-zero numbers.
// Empty strings, zero, booleans and structured values yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool, nil:
		return ""
	}
	if f, ok := numeric(v); ok && f != 0 {
		return cast.ToString(v)
	}
	return ""
}

// resolveName prefers name, then text.
func resolveName(rec Record) string {
	if name := scalarString(rec[fieldName]); name != "" {
		return name
	}
	return scalarString(rec[fieldText])
}

// candidateID returns the stored id when it is usable: a finite, non-zero
// number or numeric string.
func candidateID(v any) (ID, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	}
	f := toNumber(v)
	if f == 0 {
		return 0, false
	}
	return ID(f), true
}

// seedDepth reads the depth hint of a root record. Fractions are truncated
// and negative values clamp to zero.
func seedDepth(node Node) int {
	rec, ok := node.(Record)
	if !ok {
		return 0
	}
	f, ok := numeric(rec[fieldDepth])
	if !ok || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
