package models

// DateRange is an inclusive YYYY-MM-DD range; an empty bound is open.
type DateRange struct {
	From string `form:"from" json:"from,omitempty"`
	To   string `form:"to" json:"to,omitempty"`
}

// Contains reports whether the date falls inside the range. Dates compare as strings.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// ListFilter narrows record listings.
type ListFilter struct {
	ItemCode string
	Range    DateRange
	// OrderBy is a stored field name; empty means created_at.
	OrderBy    string
	Descending bool
}
