package fees

import "github.com/hongminglow/jiahe-fees/internal/models"

// WithStart moves the start of r. If the new start falls after the current end,
// the end snaps forward to it and snapped is true so the form can flag the field.
func (r Range) WithStart(start models.YearMonth) (out Range, snapped bool) {
	out = Range{Start: start, End: r.End}
	if start.After(r.End) {
		out.End = start
		snapped = true
	}
	return out, snapped
}

// WithEnd moves the end of r. If the new end falls before the current start,
// the start snaps back to it and snapped is true.
func (r Range) WithEnd(end models.YearMonth) (out Range, snapped bool) {
	out = Range{Start: r.Start, End: end}
	if end.Before(r.Start) {
		out.Start = end
		snapped = true
	}
	return out, snapped
}

// SingleMonth is the range covering only ym.
func SingleMonth(ym models.YearMonth) Range { return Range{Start: ym, End: ym} }
