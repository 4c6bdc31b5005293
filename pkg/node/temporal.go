package node

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Precision is the number of significant parts in a date/time value.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
	PrecisionFraction
)

var errTemporal = errors.New("malformed date/time")

// layouts indexed by precision, for the date part (YYYYMMDD) followed by the
// time part (HHMMSS).
var dateLayouts = map[int]Precision{4: PrecisionYear, 6: PrecisionMonth, 8: PrecisionDay}
var timeLayouts = map[int]Precision{2: PrecisionHour, 4: PrecisionMinute, 6: PrecisionSecond}

// splitZone separates a trailing +ZZZZ/-ZZZZ offset.
func splitZone(s string) (string, *time.Location, error) {
	i := strings.LastIndexAny(s, "+-")
	if i < 0 {
		return s, time.UTC, nil
	}
	zone := s[i+1:]
	if len(zone) != 4 {
		return "", nil, errTemporal
	}
	hh, err1 := strconv.Atoi(zone[:2])
	mm, err2 := strconv.Atoi(zone[2:])
	if err1 != nil || err2 != nil || hh > 14 || mm > 59 {
		return "", nil, errTemporal
	}
	offset := hh*3600 + mm*60
	if s[i] == '-' {
		offset = -offset
	}
	return s[:i], time.FixedZone(s[i:], offset), nil
}

// ParseDateTime parses an HL7 DTM/TS value: YYYY[MM[DD[HH[MM[SS[.S+]]]]]][+/-ZZZZ].
func ParseDateTime(s string) (time.Time, Precision, error) {
	body, loc, err := splitZone(s)
	if err != nil {
		return time.Time{}, PrecisionNone, err
	}
	datePart, timePart := body, ""
	if len(body) > 8 {
		datePart, timePart = body[:8], body[8:]
	}
	prec, ok := dateLayouts[len(datePart)]
	if !ok {
		return time.Time{}, PrecisionNone, errTemporal
	}
	if timePart != "" && prec != PrecisionDay {
		return time.Time{}, PrecisionNone, errTemporal
	}
	nums, err := digits(datePart, 4, 2, 2)
	if err != nil {
		return time.Time{}, PrecisionNone, err
	}
	year, month, day := nums[0], 1, 1
	if len(nums) > 1 {
		month = nums[1]
	}
	if len(nums) > 2 {
		day = nums[2]
	}
	hour, minute, sec, nsec := 0, 0, 0, 0
	if timePart != "" {
		var tprec Precision
		hour, minute, sec, nsec, tprec, err = parseClock(timePart)
		if err != nil {
			return time.Time{}, PrecisionNone, err
		}
		prec = tprec
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, loc)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, PrecisionNone, errTemporal
	}
	return t, prec, nil
}

// ParseDate parses an HL7 DT value: YYYY[MM[DD]].
func ParseDate(s string) (time.Time, Precision, error) {
	if len(s) > 8 {
		return time.Time{}, PrecisionNone, errTemporal
	}
	return ParseDateTime(s)
}

// ParseTime parses an HL7 TM value: HH[MM[SS[.S+]]][+/-ZZZZ]. The date part of
// the result is zero.
func ParseTime(s string) (time.Time, Precision, error) {
	body, loc, err := splitZone(s)
	if err != nil {
		return time.Time{}, PrecisionNone, err
	}
	hour, minute, sec, nsec, prec, err := parseClock(body)
	if err != nil {
		return time.Time{}, PrecisionNone, err
	}
	return time.Date(0, 1, 1, hour, minute, sec, nsec, loc), prec, nil
}

func parseClock(s string) (hour, minute, sec, nsec int, prec Precision, err error) {
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i+1:]
		if len(s) != 6 || frac == "" || len(frac) > 9 {
			return 0, 0, 0, 0, PrecisionNone, errTemporal
		}
	}
	prec, ok := timeLayouts[len(s)]
	if !ok {
		return 0, 0, 0, 0, PrecisionNone, errTemporal
	}
	nums, err := digits(s, 2, 2, 2)
	if err != nil {
		return 0, 0, 0, 0, PrecisionNone, err
	}
	hour = nums[0]
	if len(nums) > 1 {
		minute = nums[1]
	}
	if len(nums) > 2 {
		sec = nums[2]
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return 0, 0, 0, 0, PrecisionNone, errTemporal
	}
	if frac != "" {
		n, ferr := strconv.Atoi(frac)
		if ferr != nil {
			return 0, 0, 0, 0, PrecisionNone, errTemporal
		}
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		nsec = n
		prec = PrecisionFraction
	}
	return hour, minute, sec, nsec, prec, nil
}

// digits reads consecutive fixed-width numbers until s is consumed.
func digits(s string, widths ...int) ([]int, error) {
	out := make([]int, 0, len(widths))
	for _, w := range widths {
		if s == "" {
			break
		}
		if len(s) < w {
			return nil, errTemporal
		}
		for i := 0; i < w; i++ {
			if s[i] < '0' || s[i] > '9' {
				return nil, errTemporal
			}
		}
		n, _ := strconv.Atoi(s[:w])
		out = append(out, n)
		s = s[w:]
	}
	if s != "" {
		return nil, errTemporal
	}
	return out, nil
}

// FormatDateTime renders t as an HL7 DTM value with the given precision.
// A zone offset is appended when t is not in UTC.
func FormatDateTime(t time.Time, prec Precision) string {
	layout := ""
	switch prec {
	case PrecisionYear:
		layout = "2006"
	case PrecisionMonth:
		layout = "200601"
	case PrecisionDay:
		layout = "20060102"
	case PrecisionHour:
		layout = "2006010215"
	case PrecisionMinute:
		layout = "200601021504"
	case PrecisionFraction:
		layout = "20060102150405.0000"
	default:
		layout = "20060102150405"
	}
	s := t.Format(layout)
	if prec >= PrecisionHour && t.Location() != time.UTC {
		s += t.Format("-0700")
	}
	return s
}

// FormatTime renders the clock part of t as an HL7 TM value.
func FormatTime(t time.Time, prec Precision) string {
	full := FormatDateTime(t, prec)
	if prec < PrecisionHour {
		return t.Format("15")
	}
	return full[8:]
}
