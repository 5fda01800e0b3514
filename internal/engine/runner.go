package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/tartampluch/go-taskdigest/internal/config"
)

// RunConfig holds the per-deployment parameters of a run.
type RunConfig struct {
	SheetName string
	// RangeSpec defaults to "<SheetName>!A:Z".
	RangeSpec     string
	Recipient     string
	DayOffset     int
	Location      *time.Location
	AppendNextRow bool
}

func (c RunConfig) rangeSpec() string {
	if c.RangeSpec != "" {
		return c.RangeSpec
	}
	return c.SheetName + config.SheetRangeSuffix
}

// Status is the outcome of a successful run.
type Status string

const (
	StatusDone       Status = "done"
	StatusNoTasks    Status = "no_tasks"
	StatusEmptySheet Status = "empty_sheet"
)

// Report describes what a run did.
type Report struct {
	RunID           string
	Status          Status
	TargetDate      civil.Date
	Entry           *SummaryEntry
	NextRowAppended bool
}

// Runner is the daily pipeline: sheet -> filter -> map -> anonymize ->
// summarize -> deanonymize -> persist -> mail -> next row.
type Runner struct {
	Clock      Clock
	Sheet      SheetClient
	Store      SummaryStore
	Summarizer Summarizer
	Mailer     Mailer

	// WeekdayName and FormatSubject let the locale layer inject its strings.
	WeekdayName   WeekdayNamer
	FormatSubject func(dayOfWeek, date string) string

	Config RunConfig
}

// Run executes one pass. A day without tasks is not an error: summarization
// and mail are skipped but the next scheduling row is still appended.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{
		RunID:      uuid.NewString(),
		TargetDate: TargetDate(r.clock(), r.Config.Location, r.Config.DayOffset),
	}
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyRunID, report.RunID,
		config.LogKeyTargetDate, report.TargetDate.String(),
	)
	log.InfoContext(ctx, config.MsgRunStarted)

	rangeSpec := r.Config.rangeSpec()
	rows, err := r.Sheet.GetRows(ctx, rangeSpec)
	if err != nil {
		return report, fetchErr(config.OpSheetRead, err)
	}
	log.InfoContext(ctx, config.MsgRowsFetched,
		config.LogKeyRange, rangeSpec,
		config.LogKeyRows, len(rows))

	if len(rows) == 0 {
		report.Status = StatusEmptySheet
	} else {
		filtered := FilterRows(rows, report.TargetDate)
		rec := MapTasks(filtered, r.WeekdayName)
		log.DebugContext(ctx, config.MsgTasksMapped,
			config.LogKeyMatched, len(filtered)-1,
			config.LogKeyPeople, rec.TasksByPerson.Len())

		if !rec.HasTasks() {
			report.Status = StatusNoTasks
		} else {
			entry, err := r.summarize(ctx, log, rec, report)
			if err != nil {
				return report, err
			}
			report.Entry = &entry
			report.Status = StatusDone
		}
	}

	if r.Config.AppendNextRow {
		next := FormatDate(report.TargetDate, 1)
		if err := r.Sheet.AppendRow(ctx, r.Config.SheetName, []string{next}); err != nil {
			return report, fetchErr(config.OpSheetAppend, err)
		}
		report.NextRowAppended = true
		log.InfoContext(ctx, config.MsgNextRowAppended, config.LogKeyValue, next)
	}

	log.InfoContext(ctx, config.MsgRunFinished,
		config.LogKeyStatus, string(report.Status),
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return report, nil
}

func (r *Runner) summarize(ctx context.Context, log *slog.Logger, rec AssignmentRecord, report Report) (SummaryEntry, error) {
	anon := Anonymize(rec)
	log.InfoContext(ctx, config.MsgAnonymized,
		config.LogKeyPeople, anon.PlaceholderToOriginal.Len())

	raw, err := r.Summarizer.Summarize(ctx, anon.Record)
	if err != nil {
		return SummaryEntry{}, fetchErr(config.OpSummarize, err)
	}
	summary := Deanonymize(raw, anon.PlaceholderToOriginal)
	log.DebugContext(ctx, config.MsgSummaryRestored, config.LogKeySummary, summary)

	date := rec.Date.OrElse(report.TargetDate)
	entry := SummaryEntry{
		Date:        FormatDate(date, 0),
		DayOfWeek:   rec.DayOfWeek.OrElse(""),
		Summary:     summary,
		GeneratedAt: r.clock().Now().UTC().Format(time.RFC3339),
		RunID:       report.RunID,
	}

	if err := AppendSummary(ctx, r.Store, entry); err != nil {
		return SummaryEntry{}, fetchErr(config.OpStoreAppend, err)
	}

	if err := r.Mailer.Send(ctx, r.Config.Recipient, r.subject(entry), summary); err != nil {
		return SummaryEntry{}, fetchErr(config.OpMailSend, err)
	}
	log.InfoContext(ctx, config.MsgMailSent)
	return entry, nil
}

func (r *Runner) subject(e SummaryEntry) string {
	if r.FormatSubject != nil {
		return r.FormatSubject(e.DayOfWeek, e.Date)
	}
	return fmt.Sprintf(config.FallbackSubject, e.DayOfWeek, e.Date)
}

func (r *Runner) clock() Clock {
	if r.Clock == nil {
		return RealClock{}
	}
	return r.Clock
}

// AppendSummary adds one entry with optimistic concurrency: the list is
// reloaded and the write retried while another writer keeps winning.
func AppendSummary(ctx context.Context, store SummaryStore, entry SummaryEntry) error {
	var lastErr error
	for attempt := 1; attempt <= config.StoreMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap, err := store.LoadAll(ctx)
		if err != nil {
			return err
		}
		entries := append(snap.Entries, entry)

		err = store.SaveAll(ctx, entries, snap.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
		slog.Warn(config.MsgStoreRetry,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyAttempt, attempt)
	}
	return fmt.Errorf("%s: %w", config.ErrStoreRetries, lastErr)
}
