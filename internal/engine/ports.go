package engine

import "context"

// SheetClient reads and extends the assignment spreadsheet.
type SheetClient interface {
	GetRows(ctx context.Context, rangeSpec string) (RawTable, error)
	AppendRow(ctx context.Context, sheetName string, cells []string) error
}

// Snapshot is the stored summary list plus the version it was read at.
type Snapshot struct {
	Entries []SummaryEntry
	// Version is opaque to the engine; SaveAll only succeeds while the
	// stored data is still at this version.
	Version string
}

// SummaryStore persists the whole summary list at once.
// SaveAll returns an error matching ErrConflict when another writer got there first.
type SummaryStore interface {
	LoadAll(ctx context.Context) (Snapshot, error)
	SaveAll(ctx context.Context, entries []SummaryEntry, version string) error
}

// Summarizer asks a generative model for a short summary of an anonymized record.
type Summarizer interface {
	Summarize(ctx context.Context, rec AssignmentRecord) (string, error)
}

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
