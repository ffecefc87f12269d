package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ID identifies a todo. Server ids and temporary client ids share the type;
// older caches stored numeric ids, so decoding accepts either form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Todo is the domain model for a todo entry.
type Todo struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// List is an ordered set of todos; index order is display order.
type List []Todo

// Clone returns a copy that shares no backing array with l.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Index returns the position of the todo with the given id, or -1.
func (l List) Index(id ID) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Patch carries the fields of a partial update. Nil means unchanged.
type Patch struct {
	Title     *string
	Completed *bool
}

func TitlePatch(title string) Patch { return Patch{Title: &title} }

func CompletedPatch(done bool) Patch { return Patch{Completed: &done} }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.Title == nil && p.Completed == nil }

// NormalizeTitle trims surrounding whitespace; an empty result means the
// title is blank and must not be persisted.
func NormalizeTitle(s string) string { return strings.TrimSpace(s) }
