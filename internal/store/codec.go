// Package store persists the list of daily summaries as one JSON array,
// either in a Cloud Storage object or in a local file.
package store

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
)

// decodeEntries reads a stored summary list. Anything that is not a JSON
// array of summaries yields an empty list: the next save starts a new one.
func decodeEntries(data []byte, where string) []engine.SummaryEntry {
	if len(bytes.TrimSpace(data)) == 0 {
		return []engine.SummaryEntry{}
	}

	var entries []engine.SummaryEntry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		slog.Warn(config.ErrStoreCorrupt,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyObject, where,
			config.LogKeyError, err,
		)
		return []engine.SummaryEntry{}
	}
	return entries
}

func encodeEntries(entries []engine.SummaryEntry) ([]byte, error) {
	if entries == nil {
		entries = []engine.SummaryEntry{}
	}
	return json.MarshalIndent(entries, "", config.JSONIndent)
}
