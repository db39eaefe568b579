package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"autoclaim/pkg/utcdate"
)

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// DateFormat is one recognised way of writing the journey date. Indexes
// point at the capture groups holding each component.
type DateFormat struct {
	Name    string
	Pattern *regexp.Regexp
	Day     int
	Month   int
	Year    int
}

// DefaultDateFormats is the fixed priority order. The first format with any
// match decides the date.
var DefaultDateFormats = []DateFormat{
	{
		Name:    "long-dmy",
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthNames + `\.?,?\s+(\d{4})\b`),
		Day:     1,
		Month:   2,
		Year:    3,
	},
	{
		Name:    "long-mdy",
		Pattern: regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`),
		Month:   1,
		Day:     2,
		Year:    3,
	},
	{
		Name:    "iso",
		Pattern: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		Year:    1,
		Month:   2,
		Day:     3,
	},
	{
		Name:    "slash-dmy",
		Pattern: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		Day:     1,
		Month:   2,
		Year:    3,
	},
	{
		Name:    "dash-dmy",
		Pattern: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		Day:     1,
		Month:   2,
		Year:    3,
	},
}

// dateResult distinguishes "no date at all" from "a date that does not exist".
type dateResult struct {
	date  time.Time
	raw   string
	found bool
	err   error
}

func extractDate(text string, formats []DateFormat) dateResult {
	for _, f := range formats {
		m := f.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		d, err := f.build(m)
		return dateResult{date: d, raw: m[0], found: true, err: err}
	}
	return dateResult{}
}

func (f DateFormat) build(m []string) (time.Time, error) {
	day, err := strconv.Atoi(m[f.Day])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(m[f.Year])
	if err != nil {
		return time.Time{}, err
	}

	var month time.Month
	if n, err := strconv.Atoi(m[f.Month]); err == nil {
		month = time.Month(n)
	} else {
		key := strings.ToLower(m[f.Month])
		if len(key) > 3 {
			key = key[:3]
		}
		month = months[key]
	}
	return utcdate.Date(year, month, day)
}
