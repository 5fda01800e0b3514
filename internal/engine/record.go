package engine

import (
	"bytes"
	"encoding/json"

	"cloud.google.com/go/civil"
)

// RawTable is a spreadsheet range as returned by the sheet client.
// Row 0 is the header; rows may be ragged.
type RawTable [][]string

// cell returns row[i], or "" when the row is too short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// TaskMap is a string map that remembers insertion order.
// Setting an existing key replaces its value in place.
type TaskMap struct {
	keys   []string
	values map[string]string
}

// NewTaskMap returns an empty TaskMap.
func NewTaskMap() *TaskMap {
	return &TaskMap{values: make(map[string]string)}
}

func (m *TaskMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *TaskMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *TaskMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *TaskMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON writes a JSON object whose keys keep insertion order.
func (m *TaskMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AssignmentRecord is one day of person -> task assignments.
type AssignmentRecord struct {
	Date          Maybe[civil.Date] `json:"date"`
	DayOfWeek     Maybe[string]     `json:"dayOfWeek"`
	TasksByPerson *TaskMap          `json:"tasksByPerson"`
}

// emptyRecord is the valid "nothing scheduled" result.
func emptyRecord() AssignmentRecord {
	return AssignmentRecord{
		Date:          None[civil.Date](),
		DayOfWeek:     None[string](),
		TasksByPerson: NewTaskMap(),
	}
}

// HasTasks reports whether at least one person has a task.
func (r AssignmentRecord) HasTasks() bool {
	return r.TasksByPerson.Len() > 0
}

// SummaryEntry is one persisted daily summary.
type SummaryEntry struct {
	Date        string `json:"date"`
	DayOfWeek   string `json:"dayOfWeek"`
	Summary     string `json:"summary"`
	GeneratedAt string `json:"generatedAt,omitempty"`
	RunID       string `json:"runId,omitempty"`
}
