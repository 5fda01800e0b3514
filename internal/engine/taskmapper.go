package engine

import (
	"time"

	"cloud.google.com/go/civil"
)

// WeekdayNamer turns a weekday into its display name.
// Production code injects the locale catalog here.
type WeekdayNamer func(time.Weekday) string

// MapTasks builds the assignment record from the header and the first data row.
// Later matching rows are ignored.
func MapTasks(filtered RawTable, weekday WeekdayNamer) AssignmentRecord {
	if len(filtered) < 2 {
		return emptyRecord()
	}

	header := filtered[0]
	taskRow := filtered[1]

	rec := emptyRecord()
	rec.Date = ParseDate(cell(taskRow, 0))
	if d, ok := rec.Date.Get(); ok {
		rec.DayOfWeek = Some(weekdayName(d, weekday))
	} else if rec.Date.State() == Invalid {
		rec.DayOfWeek = Failed[string]()
	}

	for i := 1; i < len(header); i++ {
		person := header[i]
		task := cell(taskRow, i)
		if person == "" || task == "" {
			continue
		}
		rec.TasksByPerson.Set(person, task)
	}
	return rec
}

func weekdayName(d civil.Date, namer WeekdayNamer) string {
	wd := d.In(time.UTC).Weekday()
	if namer == nil {
		return wd.String()
	}
	return namer(wd)
}
