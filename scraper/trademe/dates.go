package trademe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// listDateLayout is the output format for list dates.
const listDateLayout = "02/01/2006"

// nzLocation pins "today" and "yesterday" to New Zealand's calendar day
// regardless of where the scraper runs.
var nzLocation = func() *time.Location {
	loc, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		return time.FixedZone("NZST", 12*60*60)
	}
	return loc
}()

// ParseListDate converts a listed-date string such as "Listed: Mon, 4 Aug",
// "Listed: Today" or "Listed: Yesterday" into an absolute dd/mm/yyyy date
// relative to now in the New Zealand calendar.
//
// Bare weekday/month-day pairs are assumed to fall in the current year.
func ParseListDate(raw string, now time.Time) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errors.New("empty list date text")
	}

	now = now.In(nzLocation)
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "today"):
		return now.Format(listDateLayout), nil
	case strings.Contains(lowered, "yesterday"):
		return now.AddDate(0, 0, -1).Format(listDateLayout), nil
	}

	datePart := text
	if _, after, found := strings.Cut(text, ":"); found {
		datePart = strings.TrimSpace(after)
	}

	parsed, err := time.Parse("Mon, 2 Jan 2006", fmt.Sprintf("%s %d", datePart, now.Year()))
	if err != nil {
		return "", fmt.Errorf("parse list date %q: %w", raw, err)
	}
	return parsed.Format(listDateLayout), nil
}
