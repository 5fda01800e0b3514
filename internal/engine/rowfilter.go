package engine

import "cloud.google.com/go/civil"

// FilterRows keeps the header plus every data row whose first cell is the target date.
// Rows without a readable date are skipped, never reported.
func FilterRows(raw RawTable, target civil.Date) RawTable {
	if len(raw) == 0 {
		return RawTable{}
	}

	filtered := RawTable{raw[0]}
	for _, row := range raw[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		d, ok := ParseDate(row[0]).Get()
		if !ok {
			continue
		}
		if EqualsYMD(d, target) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
