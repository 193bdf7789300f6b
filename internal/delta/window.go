package delta

import "time"

// DateField selects which commit timestamp the date window inspects.
// One field is used for the whole run; mixing fields between rebased and
// directly-committed history would filter inconsistently.
type DateField int

const (
	DateFieldCommitted DateField = iota
	DateFieldAuthored
)

// String returns a string representation of the date field.
func (f DateField) String() string {
	if f == DateFieldAuthored {
		return "authored"
	}
	return "committed"
}

// DateWindow is an optional inclusive timestamp window applied to a computed
// delta. A nil bound is unbounded on that side. The window is applied
// strictly after the identity diff: filtering before the diff would be
// unsound, because reachability from base, not timestamps, decides delta
// membership.
type DateWindow struct {
	After  *time.Time
	Before *time.Time
	Field  DateField
}

// Unbounded reports whether the window excludes nothing.
func (w DateWindow) Unbounded() bool {
	return w.After == nil && w.Before == nil
}

// Contains reports whether the commit's selected timestamp lies inside the
// window.
func (w DateWindow) Contains(c CommitRecord) bool {
	ts := c.CommittedAt
	if w.Field == DateFieldAuthored {
		ts = c.AuthoredAt
	}
	if w.After != nil && ts.Before(*w.After) {
		return false
	}
	if w.Before != nil && ts.After(*w.Before) {
		return false
	}
	return true
}

// Apply filters commits through the window, preserving order. An unbounded
// window returns the input unchanged.
func (w DateWindow) Apply(commits []CommitRecord) []CommitRecord {
	if w.Unbounded() {
		return commits
	}
	filtered := make([]CommitRecord, 0, len(commits))
	for _, c := range commits {
		if w.Contains(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
