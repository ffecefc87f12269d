package remote

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/idilsaglam/todo/internal/model"
)

// The server speaks the legacy schema: _id/text/visibility/createdAt.
// Everything outside this file sees only model.Todo.

const (
	queryFind = `
query {
  find {
    _id,
    text,
    createdAt,
    visibility
  }
}`

	mutationCreate = `
mutation createTodo($text: String!, $visibility: Boolean!) {
  create(text: $text, visibility: $visibility)
}`

	mutationUpdate = `
mutation updateTodo($_id: String!, $text: String, $visibility: Boolean) {
  update(_id: $_id, text: $text, visibility: $visibility)
}`

	mutationDelete = `
mutation deleteTodo($_id: String!) {
  delete(_id: $_id)
}`
)

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type serverTodo struct {
	ID         model.ID        `json:"_id"`
	Text       string          `json:"text"`
	Visibility bool            `json:"visibility"`
	CreatedAt  json.RawMessage `json:"createdAt,omitempty"`
}

func (s serverTodo) toModel() model.Todo {
	return model.Todo{ID: s.ID, Title: s.Text, Completed: s.Visibility}
}

type findData struct {
	Find []serverTodo `json:"find"`
}

type createData struct {
	Create json.RawMessage `json:"create"`
}

// createdID accepts an id scalar or an object carrying _id, since servers
// of this schema disagree on what create returns.
func createdID(raw json.RawMessage) (model.ID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var id model.ID
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return id, true
	}
	var obj serverTodo
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return obj.ID, true
	}
	return "", false
}

func createVars(title string, completed bool) map[string]any {
	return map[string]any{"text": title, "visibility": completed}
}

func updateVars(id model.ID, p model.Patch) map[string]any {
	v := map[string]any{"_id": string(id)}
	if p.Title != nil {
		v["text"] = *p.Title
	}
	if p.Completed != nil {
		v["visibility"] = *p.Completed
	}
	return v
}

func deleteVars(id model.ID) map[string]any {
	return map[string]any{"_id": string(id)}
}
