package core

import "time"

// Date filters offered by every entry/order listing.
const (
	FilterAll     = "All"
	FilterDaily   = "Daily"
	FilterMonthly = "Monthly"
	FilterYearly  = "Yearly"
	FilterCustom  = "Custom"
)

// DateRange selects rows by creation timestamp. Custom requires both
// bounds; the named filters compute theirs from the reference time.
type DateRange struct {
	Filter string
	Start  *time.Time
	End    *time.Time
}

// Bounds resolves the range against now. A nil start and end means no
// restriction (FilterAll).
func (r DateRange) Bounds(now time.Time) (*time.Time, *time.Time, error) {
	switch r.Filter {
	case "", FilterAll:
		return nil, nil, nil
	case FilterDaily:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1)
		return &start, &end, nil
	case FilterMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)
		return &start, &end, nil
	case FilterYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(1, 0, 0)
		return &start, &end, nil
	case FilterCustom:
		if r.Start == nil || r.End == nil {
			return nil, nil, Validationf("custom range requires both start and end dates")
		}
		if r.End.Before(*r.Start) {
			return nil, nil, Validationf("custom range end precedes start")
		}
		end := r.End.AddDate(0, 0, 1)
		return r.Start, &end, nil
	default:
		return nil, nil, Validationf("unknown date filter %q", r.Filter)
	}
}
