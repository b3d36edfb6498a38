package utils

import "time"

// PlanDateFormat is the dd/mm/yyyy layout the remote store persists plan
// dates in.
const PlanDateFormat = "02/01/2006"

// FormatPlanDate renders t in the store's date format.
func FormatPlanDate(t time.Time) string {
	return t.Format(PlanDateFormat)
}

// ParsePlanDate parses a dd/mm/yyyy date string.
func ParsePlanDate(s string) (time.Time, error) {
	return time.Parse(PlanDateFormat, s)
}
