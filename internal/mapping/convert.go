// Package mapping translates configuration-declared spreadsheet layouts
// (header cell addresses, column letters, row ranges) into validated
// invoice rows. Cell values arrive as strings in whatever shape the
// workbook produced, so every conversion here is defensive: a value that
// cannot be understood becomes the zero value, never an abort.
package mapping

import (
	"strconv"
	"strings"
	"time"
)

// blankMarker mirrors the "(Leer)" placeholder the pivot export writes
const blankMarker = "(Leer)"

// excelEpoch is day zero of the 1900 date system (including the
// fictional 1900-02-29 offset Excel carries around).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order when a cell holds a textual date
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02.01.06",
	"01-02-06",
	"2006-01-02T15:04:05Z07:00",
}

// CellString normalizes a raw cell value to a trimmed string. The
// "(Leer)" marker becomes the empty string.
func CellString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == blankMarker {
		return ""
	}
	return s
}

// CellFloat parses a numeric cell. Comma decimal separators and
// thousands apostrophes (de_CH formatting) are accepted. The second
// return value reports whether the cell held a number at all.
func CellFloat(raw string) (float64, bool) {
	s := CellString(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CellDate parses a date cell. Textual dates in the common layouts and
// raw Excel serial numbers are both understood. The zero time is
// returned when the cell holds no recognizable date.
func CellDate(raw string) time.Time {
	s := CellString(raw)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Excel serial: whole days since the 1900 epoch
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 && serial < 200000 {
		return excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	}
	return time.Time{}
}
