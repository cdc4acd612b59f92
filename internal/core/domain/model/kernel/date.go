package kernel

import (
	"time"

	"dispatch/internal/pkg/errs"
)

// DateLayout is the wire and storage form of calendar dates (route date, order date, cash day).
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errs.NewValueIsRequiredError("date")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause("date", err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}
