package tasklog

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(start ID) *Normalizer {
	return NewNormalizer(WithIDSource(NewSequenceIDSource(start)))
}

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalize_StatusRemap(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  Status
	}{
		{name: "DONE", input: map[string]any{"status": "DONE"}, want: StatusCompleted},
		{name: "LATER", input: map[string]any{"status": "LATER"}, want: StatusIcebox},
		{name: "TODO", input: map[string]any{"status": "TODO"}, want: StatusPending},
		{name: "lowercase legacy token", input: map[string]any{"status": "done"}, want: StatusCompleted},
		{name: "mixed case legacy token", input: map[string]any{"status": "Later"}, want: StatusIcebox},
		{name: "done flag without status", input: map[string]any{"done": true}, want: StatusCompleted},
		{name: "done flag false", input: map[string]any{"done": false}, want: StatusPending},
		{name: "empty record", input: map[string]any{}, want: StatusPending},
		{name: "canonical passes through", input: map[string]any{"status": "in-progress"}, want: StatusInProgress},
		{name: "unknown passes through", input: map[string]any{"status": "blocked"}, want: Status("blocked")},
		{name: "status wins over done flag", input: map[string]any{"status": "LATER", "done": true}, want: StatusIcebox},
		{name: "empty status falls back to done flag", input: map[string]any{"status": "", "done": true}, want: StatusCompleted},
		{name: "non-string status is ignored", input: map[string]any{"status": 3.0}, want: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize([]any{tt.input})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Status)
		})
	}
}

func TestNormalize_NestedDepth(t *testing.T) {
	raw := decodeJSON(t, `[{"id":1,"text":"A","depth":0,"subtasks":[{"text":"B","depth":0,"done":false}]}]`)

	out := newTestNormalizer(1000).Normalize(raw)

	require.Len(t, out, 2)
	assert.Equal(t, ID(1), out[0].ID)
	assert.Equal(t, "A", out[0].Name)
	assert.Equal(t, 0, out[0].Depth)
	assert.Equal(t, StatusPending, out[0].Status)
	assert.NotContains(t, out[0].Extra, "subtasks")
	assert.Equal(t, "A", out[0].Extra["text"])

	assert.Equal(t, ID(1000), out[1].ID)
	assert.Equal(t, "B", out[1].Name)
	assert.Equal(t, 1, out[1].Depth, "child depth claim must be overridden")
	assert.Equal(t, StatusPending, out[1].Status)
	assert.Equal(t, false, out[1].Extra["done"])
}

func TestNormalize_GarbageTolerance(t *testing.T) {
	raw := []any{nil, 42.0, "x", map[string]any{"text": "ok"}}

	out := Normalize(raw)

	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Name)
}

func TestNormalize_GarbageInsideSubtasks(t *testing.T) {
	raw := decodeJSON(t, `[{"name":"parent","subtasks":[null,true,"x",{"name":"child","subtasks":[7]}]}]`)

	out := Normalize(raw)

	require.Len(t, out, 2)
	assert.Equal(t, "parent", out[0].Name)
	assert.Equal(t, "child", out[1].Name)
	assert.Equal(t, 1, out[1].Depth)
}

func TestNormalize_NumericCoercion(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  [3]float64
	}{
		{
			name:  "string, null and missing",
			input: map[string]any{"actTime": "45", "planTime": nil},
			want:  [3]float64{45, 0, 0},
		},
		{
			name:  "numbers kept",
			input: map[string]any{"actTime": 12.5, "planTime": 30.0, "percent": 80.0},
			want:  [3]float64{12.5, 30, 80},
		},
		{
			name:  "padded numeric string",
			input: map[string]any{"actTime": " 7 "},
			want:  [3]float64{7, 0, 0},
		},
		{
			name:  "non-numeric values",
			input: map[string]any{"actTime": "abc", "planTime": map[string]any{}, "percent": []any{1.0, 2.0}},
			want:  [3]float64{0, 0, 0},
		},
		{
			name:  "NaN and infinities",
			input: map[string]any{"actTime": math.NaN(), "planTime": math.Inf(1), "percent": "NaN"},
			want:  [3]float64{0, 0, 0},
		},
		{
			name:  "boolean true counts as one",
			input: map[string]any{"percent": true},
			want:  [3]float64{0, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize([]any{tt.input})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want[0], out[0].ActTime)
			assert.Equal(t, tt.want[1], out[0].PlanTime)
			assert.Equal(t, tt.want[2], out[0].Percent)
		})
	}
}

func TestNormalize_NonSequenceInput(t *testing.T) {
	inputs := map[string]any{
		"nil":        nil,
		"object":     map[string]any{"tasks": []any{map[string]any{"name": "a"}}},
		"string":     "[]",
		"number":     42.0,
		"bool":       true,
		"nil slice":  ([]any)(nil),
		"empty list": []any{},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			out := Normalize(input)
			require.NotNil(t, out)
			assert.Empty(t, out)
		})
	}
}

func TestNormalize_TypedSequences(t *testing.T) {
	t.Run("Should accept a slice of maps", func(t *testing.T) {
		out := Normalize([]map[string]any{{"name": "a"}, {"name": "b"}})
		require.Len(t, out, 2)
		assert.Equal(t, "b", out[1].Name)
	})

	t.Run("Should accept typed maps through reflection", func(t *testing.T) {
		out := Normalize([]map[string]string{{"name": "a", "status": "DONE"}})
		require.Len(t, out, 1)
		assert.Equal(t, StatusCompleted, out[0].Status)
	})

	t.Run("Should treat an array entry as a record without fields", func(t *testing.T) {
		out := Normalize([]any{[]any{"a", "b"}})
		require.Len(t, out, 1)
		assert.Equal(t, "", out[0].Name)
		assert.Equal(t, StatusPending, out[0].Status)
		assert.Empty(t, out[0].Extra)
	})
}

func TestNormalize_Uniqueness(t *testing.T) {
	raw := decodeJSON(t, `[
		{"id": 1, "name": "a"},
		{"id": 1, "name": "b"},
		{"name": "c", "subtasks": [{"id": 1, "name": "d"}, {"id": 2, "name": "e"}]},
		{"id": 2, "name": "f"}
	]`)

	out := newTestNormalizer(100).Normalize(raw)

	require.Len(t, out, 6)
	ids := make([]ID, len(out))
	for i, task := range out {
		ids[i] = task.ID
	}
	assert.Equal(t, []ID{1, 100, 101, 102, 2, 103}, ids)
}

func TestNormalize_IDResolution(t *testing.T) {
	tests := []struct {
		name   string
		stored any
		want   ID
	}{
		{name: "number", stored: 42.0, want: 42},
		{name: "numeric string", stored: "12", want: 12},
		{name: "json number", stored: json.Number("9"), want: 9},
		{name: "zero is synthesized", stored: 0.0, want: 500},
		{name: "empty string is synthesized", stored: "", want: 500},
		{name: "text is synthesized", stored: "abc", want: 500},
		{name: "bool is synthesized", stored: true, want: 500},
		{name: "missing is synthesized", stored: nil, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newTestNormalizer(500).Normalize([]any{map[string]any{"id": tt.stored}})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].ID)
		})
	}
}

func TestNormalize_StuckIDSource(t *testing.T) {
	stuck := IDSourceFunc(func() ID { return 7 })
	n := NewNormalizer(WithIDSource(stuck))

	out := n.Normalize([]any{map[string]any{}, map[string]any{}, map[string]any{}})

	require.Len(t, out, 3)
	assert.Equal(t, ID(7), out[0].ID)
	assert.Equal(t, ID(8), out[1].ID)
	assert.Equal(t, ID(9), out[2].ID)
}

func TestNormalize_ClockIDsAreUnique(t *testing.T) {
	raw := make([]any, 500)
	for i := range raw {
		raw[i] = map[string]any{"name": "same"}
	}

	out := Normalize(raw)

	require.Len(t, out, 500)
	seen := make(map[ID]bool)
	for _, task := range out {
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		assert.NotZero(t, task.ID)
		seen[task.ID] = true
	}
}

func TestNormalize_PreOrder(t *testing.T) {
	raw := decodeJSON(t, `[
		{"name": "A", "subtasks": [
			{"name": "B", "subtasks": [{"name": "C"}]},
			{"name": "D"}
		]},
		{"name": "E"}
	]`)

	out := Normalize(raw)

	require.Len(t, out, 5)
	var names []string
	var depths []int
	for _, task := range out {
		names = append(names, task.Name)
		depths = append(depths, task.Depth)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)
}

func TestNormalize_RootDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth any
		want  int
	}{
		{name: "stated depth kept", depth: 3.0, want: 3},
		{name: "int depth kept", depth: 2, want: 2},
		{name: "fraction truncated", depth: 2.7, want: 2},
		{name: "negative clamped", depth: -1.0, want: 0},
		{name: "string ignored", depth: "2", want: 0},
		{name: "NaN ignored", depth: math.NaN(), want: 0},
		{name: "missing", depth: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []any{map[string]any{
				"name":     "root",
				"depth":    tt.depth,
				"subtasks": []any{map[string]any{"name": "child", "depth": 9.0}},
			}}

			out := Normalize(raw)

			require.Len(t, out, 2)
			assert.Equal(t, tt.want, out[0].Depth)
			assert.Equal(t, tt.want+1, out[1].Depth)
		})
	}
}

func TestNormalize_NameResolution(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{name: "name wins", input: map[string]any{"name": "n", "text": "t"}, want: "n"},
		{name: "text fallback", input: map[string]any{"text": "t"}, want: "t"},
		{name: "empty name falls back", input: map[string]any{"name": "", "text": "t"}, want: "t"},
		{name: "numeric name", input: map[string]any{"name": 5.0}, want: "5"},
		{name: "nothing", input: map[string]any{}, want: ""},
		{name: "structured name ignored", input: map[string]any{"name": map[string]any{"x": 1.0}}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize([]any{tt.input})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Name)
		})
	}
}

func TestNormalize_ExtraFields(t *testing.T) {
	raw := []any{map[string]any{
		"id":       3.0,
		"name":     "x",
		"text":     "legacy",
		"done":     true,
		"color":    "red",
		"tags":     []any{"a"},
		"space_id": "work",
		"subtasks": []any{},
	}}

	out := Normalize(raw)

	require.Len(t, out, 1)
	task := out[0]
	assert.Equal(t, "work", task.SpaceID)
	assert.Equal(t, map[string]any{
		"text":  "legacy",
		"done":  true,
		"color": "red",
		"tags":  []any{"a"},
	}, task.Extra)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	child := map[string]any{"name": "child", "depth": 5.0}
	root := map[string]any{"id": 1.0, "status": "DONE", "subtasks": []any{child}}
	raw := []any{root, root}

	_ = Normalize(raw)

	assert.Equal(t, "DONE", root["status"])
	assert.Equal(t, 1.0, root["id"])
	assert.Len(t, root["subtasks"], 1)
	assert.Equal(t, 5.0, child["depth"])
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := decodeJSON(t, `[
		{"text": "a", "status": "DONE", "depth": 0, "subtasks": [
			{"text": "b", "status": "LATER"},
			{"text": "c", "done": true, "subtasks": [{"text": "d", "status": "weird"}]}
		]},
		{"id": 5, "name": "e", "status": "in-progress"}
	]`)

	first := Normalize(raw)
	second := Normalize(RawTasks(first))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Status, second[i].Status)
		assert.Equal(t, first[i].Depth, second[i].Depth)
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func TestNormalize_Concurrent(t *testing.T) {
	raw := decodeJSON(t, `[{"id":1,"subtasks":[{"id":1},{"id":1}]},{"id":1}]`)

	var wg sync.WaitGroup
	results := make([][]Task, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Normalize(raw)
		}(i)
	}
	wg.Wait()

	for _, out := range results {
		require.Len(t, out, 4)
		seen := make(map[ID]bool)
		for _, task := range out {
			assert.False(t, seen[task.ID])
			seen[task.ID] = true
		}
		assert.Equal(t, ID(1), out[0].ID)
	}
}

func TestClassify(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *map[string]any

	tests := []struct {
		name      string
		value     any
		wantValid bool
	}{
		{name: "object", value: map[string]any{}, wantValid: true},
		{name: "array", value: []any{}, wantValid: true},
		{name: "null", value: nil, wantValid: false},
		{name: "nil map", value: nilMap, wantValid: false},
		{name: "nil pointer", value: nilPtr, wantValid: false},
		{name: "number", value: 1.0, wantValid: false},
		{name: "string", value: "x", wantValid: false},
		{name: "bool", value: false, wantValid: false},
		{name: "int keyed map", value: map[int]any{1: "x"}, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch Classify(tt.value).(type) {
			case Record:
				if !tt.wantValid {
					t.Errorf("Classify(%v) = Record, want Malformed", tt.value)
				}
			case Malformed:
				if tt.wantValid {
					t.Errorf("Classify(%v) = Malformed, want Record", tt.value)
				}
			default:
				t.Fatalf("Classify(%v) returned unexpected node type", tt.value)
			}
		})
	}
}

func TestCanonicalStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCompleted, StatusIcebox, StatusInProgress} {
		if got := CanonicalStatus(string(s)); got != s {
			t.Errorf("CanonicalStatus(%q) = %q, want unchanged", s, got)
		}
		if !s.IsCanonical() {
			t.Errorf("%q should be canonical", s)
		}
	}
	if Status("DONE").IsCanonical() {
		t.Error("DONE should not be canonical")
	}
}
