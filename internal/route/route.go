// Package route maps location fragments such as "#/active" onto a
// visibility filter.
package route

import (
	"strings"

	"github.com/idilsaglam/todo/internal/model"
)

// Parse reads a fragment like "#/completed", "#active" or "completed".
// Unknown fragments select all and come back cleared, so the caller can
// reset what it displays.
func Parse(fragment string) (model.Visibility, string) {
	name := strings.TrimPrefix(fragment, "#")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return model.VisibilityAll, fragment
	}
	v, err := model.ParseVisibility(name)
	if err != nil {
		return model.VisibilityAll, ""
	}
	return v, fragment
}

// Fragment renders the canonical fragment for v.
func Fragment(v model.Visibility) string {
	if v == model.VisibilityAll {
		return "#/"
	}
	return "#/" + string(v)
}

// Next cycles to the filter after v.
func Next(v model.Visibility) model.Visibility {
	for i, x := range model.Visibilities {
		if x == v {
			return model.Visibilities[(i+1)%len(model.Visibilities)]
		}
	}
	return model.VisibilityAll
}
