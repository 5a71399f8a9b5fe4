// Package sequence validates ordered sibling sequences: a set of records
// under one parent, keyed by a strictly increasing order number, whose dates
// must stay monotonic with that order. Creation and date-edit paths share
// the same validator so the invariant cannot drift between them.
package sequence

import (
	"fmt"
	"sort"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
)

// Entry is one member of an ordered sibling sequence.
type Entry struct {
	ID    id.ID
	Order int
	Date  time.Time
}

// Ordered validates a sibling sequence. Label names the sequence member in
// error messages ("clutch"), FloorLabel names the lower date bound
// ("mating").
type Ordered struct {
	Label      string
	FloorLabel string
}

// byOrder returns a copy of entries sorted ascending by order.
func byOrder(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}

// MaxOrder returns the highest order among entries, 0 when empty.
func MaxOrder(entries []Entry) int {
	max := 0
	for _, e := range entries {
		if e.Order > max {
			max = e.Order
		}
	}
	return max
}

// NextOrder returns the smallest order a new entry may use.
func NextOrder(entries []Entry) int {
	return MaxOrder(entries) + 1
}

// ValidateAppend checks a new entry against the existing sequence.
// New entries only append: the requested order must exceed every existing
// order, and the date must not precede the floor date or the date of the
// current last entry.
func (o Ordered) ValidateAppend(entries []Entry, order int, date, floor time.Time) error {
	if order < 1 {
		return apperror.NewValidation(fmt.Sprintf("%s order must be a positive integer", o.Label)).
			WithDetail("order", order)
	}

	for _, e := range entries {
		if e.Order == order {
			return apperror.NewConflict(fmt.Sprintf("%s order %d is already recorded", o.Label, order)).
				WithDetail("order", order)
		}
	}

	if max := MaxOrder(entries); order <= max {
		return apperror.NewValidation(fmt.Sprintf("%s order must exceed %d", o.Label, max)).
			WithDetail("order", order).
			WithDetail("minAllowedOrder", max+1)
	}

	if date.Before(floor) {
		return apperror.NewValidation(fmt.Sprintf("%s date cannot precede the %s date", o.Label, o.FloorLabel)).
			WithDetail("date", date.Format(time.DateOnly)).
			WithDetail(o.FloorLabel+"Date", floor.Format(time.DateOnly))
	}

	sorted := byOrder(entries)
	if len(sorted) > 0 {
		prev := sorted[len(sorted)-1]
		if !date.After(prev.Date) {
			return apperror.NewValidation(fmt.Sprintf("%s date must be after %s %d's date (%s)",
				o.Label, o.Label, prev.Order, prev.Date.Format(time.DateOnly))).
				WithDetail("date", date.Format(time.DateOnly)).
				WithDetail("previousDate", prev.Date.Format(time.DateOnly))
		}
	}

	return nil
}

// ValidateDateChange checks a date edit for the entry with selfID.
// The new date must differ from the current one, must not precede the floor
// date, and must fall strictly inside the (previous, next) neighbor window
// by order.
func (o Ordered) ValidateDateChange(entries []Entry, selfID id.ID, newDate, floor time.Time) error {
	sorted := byOrder(entries)

	selfIdx := -1
	for i, e := range sorted {
		if e.ID == selfID {
			selfIdx = i
			break
		}
	}
	if selfIdx < 0 {
		return apperror.NewNotFound(o.Label, selfID.String())
	}

	self := sorted[selfIdx]
	if newDate.Equal(self.Date) {
		return apperror.NewValidation(fmt.Sprintf("new date equals the current %s date; nothing to change", o.Label)).
			WithDetail("date", newDate.Format(time.DateOnly))
	}

	if newDate.Before(floor) {
		return apperror.NewValidation(fmt.Sprintf("%s date cannot precede the %s date", o.Label, o.FloorLabel)).
			WithDetail("date", newDate.Format(time.DateOnly)).
			WithDetail(o.FloorLabel+"Date", floor.Format(time.DateOnly))
	}

	if selfIdx > 0 {
		prev := sorted[selfIdx-1]
		if !newDate.After(prev.Date) {
			return apperror.NewInvalidTransition(fmt.Sprintf("%s date must stay after %s %d's date (%s)",
				o.Label, o.Label, prev.Order, prev.Date.Format(time.DateOnly))).
				WithDetail("previousDate", prev.Date.Format(time.DateOnly))
		}
	}

	if selfIdx < len(sorted)-1 {
		next := sorted[selfIdx+1]
		if !newDate.Before(next.Date) {
			return apperror.NewInvalidTransition(fmt.Sprintf("%s date must stay before %s %d's date (%s)",
				o.Label, o.Label, next.Order, next.Date.Format(time.DateOnly))).
				WithDetail("nextDate", next.Date.Format(time.DateOnly))
		}
	}

	return nil
}
