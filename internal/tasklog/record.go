package tasklog

import (
	"encoding/json"
	"fmt"
)

// LogRecord is one dated task log, the unit of persistence
type LogRecord struct {
	Date  string `json:"date"`
	Tasks []Task `json:"tasks"`
	Memo  string `json:"memo"`
}

// RawRecord is a stored log before normalization. Tasks is left untyped
// because its shape depends on which version of the app wrote it.
type RawRecord struct {
	Date  string
	Tasks any
	Memo  string
}

// ParseRecord decodes a stored log payload. It supports multiple formats:
// 1. Record format: { "date": "...", "tasks": [...], "memo": "..." }
// 2. Double-encoded tasks: { "date": "...", "tasks": "[...]" }
// 3. Bare array format: [...]
// date names the log when the payload does not, and wins when both do,
// since stores key logs by date. The only error is a payload that is not JSON.
func ParseRecord(date string, data []byte) (*RawRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse log payload: %w", err)
	}

	rec := &RawRecord{Date: date}
	switch v := raw.(type) {
	case []any:
		rec.Tasks = v
	case map[string]any:
		if rec.Date == "" {
			rec.Date = scalarString(v["date"])
		}
		rec.Memo = scalarString(v["memo"])
		rec.Tasks = v["tasks"]

		// Some backends stored the task list as a JSON string column
		if s, ok := rec.Tasks.(string); ok {
			var nested any
			if err := json.Unmarshal([]byte(s), &nested); err == nil {
				rec.Tasks = nested
			} else {
				rec.Tasks = nil
			}
		}
	}

	return rec, nil
}

// NormalizeRecord flattens the tasks of a parsed log
func (n *Normalizer) NormalizeRecord(raw *RawRecord) *LogRecord {
	return &LogRecord{
		Date:  raw.Date,
		Tasks: n.Normalize(raw.Tasks),
		Memo:  raw.Memo,
	}
}

// DecodeRecord parses and normalizes a stored log payload
func (n *Normalizer) DecodeRecord(date string, data []byte) (*LogRecord, error) {
	raw, err := ParseRecord(date, data)
	if err != nil {
		return nil, err
	}
	return n.NormalizeRecord(raw), nil
}

// DecodeRecord parses and normalizes a payload with the default Normalizer
func DecodeRecord(date string, data []byte) (*LogRecord, error) {
	return defaultNormalizer.DecodeRecord(date, data)
}

// EncodeRecord serializes a normalized log for storage
func EncodeRecord(rec *LogRecord) ([]byte, error) {
	if rec.Tasks == nil {
		rec = &LogRecord{Date: rec.Date, Tasks: []Task{}, Memo: rec.Memo}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode log %s: %w", rec.Date, err)
	}
	return data, nil
}
