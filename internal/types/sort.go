package types

import (
	"cmp"
	"slices"
)

// SortByReadiness orders tasks the way the ready queue hands them out:
// priority ascending, then sibling order, then title.
func SortByReadiness(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.Title, b.Title),
		)
	})
}

// SortSiblings orders children under a common parent by order, then title.
func SortSiblings(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.Title, b.Title),
		)
	})
}

// SortListing is the default ordering for unscoped listings: order,
// priority, title, with id as a final tiebreak so output is deterministic.
func SortListing(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
