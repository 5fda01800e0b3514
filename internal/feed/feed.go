// Package feed renders the stored summaries as an iCalendar feed: one
// all-day event per summary, so the history can be subscribed to from any
// calendar client.
package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
)

// Generator loads the summary list and turns it into ICS data.
type Generator struct {
	Clock engine.Clock
	Store engine.SummaryStore

	// FormatTitle injects the localized event title (the mail subject).
	FormatTitle func(dayOfWeek, date string) string
}

// Generate returns the feed and the number of events in it.
func (g *Generator) Generate(ctx context.Context) ([]byte, int, error) {
	snap, err := g.Store.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	clock := g.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}
	return Render(snap.Entries, clock.Now(), g.FormatTitle)
}

// Render builds the calendar. Entries whose date does not parse are skipped.
// With no events, a minimal valid VCALENDAR is returned.
func Render(entries []engine.SummaryEntry, now time.Time, formatTitle func(dayOfWeek, date string) string) ([]byte, int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(now.UTC())

	for _, e := range entries {
		date, ok := engine.ParseDate(e.Date).Get()
		if !ok {
			slog.Debug(config.MsgSkippedEntry,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyValue, e.Date)
			continue
		}

		title := fmt.Sprintf(config.FallbackSubject, e.DayOfWeek, e.Date)
		if formatTitle != nil {
			title = formatTitle(e.DayOfWeek, e.Date)
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, entryUID(e), config.ICalDomain))
		event.Props.SetText(config.PropSummary, title)
		event.Props.SetText(config.PropDescription, e.Summary)

		dtStart := ical.NewProp(config.PropDTStart)
		dtStart.SetDate(date.In(time.UTC))
		event.Props.Set(dtStart)
		event.Props.Set(dtStamp)

		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Debug(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyCount, len(cal.Children))
	return buf.Bytes(), len(cal.Children), nil
}

// entryUID is stable across refreshes: the same stored entry always yields
// the same event.
func entryUID(e engine.SummaryEntry) string {
	hash := sha256.Sum256([]byte(e.Date + "\x00" + e.RunID + "\x00" + e.Summary))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}
