package engine

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tartampluch/go-taskdigest/internal/config"
)

// dateLayouts is the closed list of spreadsheet date formats we accept.
// Slash dates are read month-first.
var dateLayouts = []string{
	config.DateFormatISO,
	config.DateFormatRFC3339,
	config.DateFormatISOLocal,
	config.DateFormatISOSpace,
	config.DateFormatISOSlash,
	config.DateFormatDotted,
	config.DateFormatDottedShort,
	config.DateFormatUSSlash,
}

// FormatDate renders d shifted by dayOffset calendar days as YYYY-MM-DD.
func FormatDate(d civil.Date, dayOffset int) string {
	return d.AddDays(dayOffset).String()
}

// ParseDate reads a spreadsheet cell as a calendar date.
// Empty cells are NotApplicable, anything outside dateLayouts is Invalid.
func ParseDate(cell string) Maybe[civil.Date] {
	value := strings.TrimSpace(cell)
	if value == "" {
		return None[civil.Date]()
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		// The calendar date is read in the offset written in the cell.
		return Some(civil.DateOf(t))
	}
	return Failed[civil.Date]()
}

// EqualsYMD compares calendar dates only.
func EqualsYMD(a, b civil.Date) bool {
	return a.Year == b.Year && a.Month == b.Month && a.Day == b.Day
}

// TargetDate returns today's date in loc, shifted by offset days.
func TargetDate(clock Clock, loc *time.Location, offset int) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(clock.Now().In(loc)).AddDays(offset)
}
