package model

import "fmt"

// Visibility selects which todos a view shows.
type Visibility string

const (
	VisibilityAll       Visibility = "all"
	VisibilityActive    Visibility = "active"
	VisibilityCompleted Visibility = "completed"
)

// Visibilities lists every known filter in navigation order.
var Visibilities = []Visibility{VisibilityAll, VisibilityActive, VisibilityCompleted}

// ParseVisibility maps a filter name onto a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityAll, VisibilityActive, VisibilityCompleted:
		return v, nil
	}
	return VisibilityAll, fmt.Errorf("unknown visibility %q", s)
}

// All returns l unchanged.
func All(l List) List { return l }

// Active returns the todos that are not completed.
func Active(l List) List {
	return keep(l, func(t Todo) bool { return !t.Completed })
}

// Completed returns the completed todos.
func Completed(l List) List {
	return keep(l, func(t Todo) bool { return t.Completed })
}

// Filter applies the filter named by v. Unknown values behave like all.
func Filter(v Visibility, l List) List {
	switch v {
	case VisibilityActive:
		return Active(l)
	case VisibilityCompleted:
		return Completed(l)
	default:
		return All(l)
	}
}

func keep(l List, pred func(Todo) bool) List {
	out := make(List, 0, len(l))
	for _, t := range l {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// Remaining counts the todos still to do.
func Remaining(l List) int { return len(Active(l)) }

// AllDone reports whether nothing remains. An empty list counts as done.
func AllDone(l List) bool { return Remaining(l) == 0 }

// Pluralize picks the noun for a count of items.
func Pluralize(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}
