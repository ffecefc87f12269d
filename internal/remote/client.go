// Package remote talks to the todo GraphQL endpoint.
//
// Every operation is one POST of {query, variables} to the same URL; the
// response is {data, errors}. The client never retries: a failed call is a
// *SyncError and the caller decides what to do with it.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/idilsaglam/todo/internal/model"
)

const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

type Client struct {
	endpoint string
	http     *http.Client
	token    string
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout bounds each round trip. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

// FetchAll returns the authoritative list. Records without a title are
// dropped; they cannot be shown.
func (c *Client) FetchAll(ctx context.Context) (model.List, error) {
	var d findData
	if err := c.do(ctx, OpFetch, request{Query: queryFind}, &d); err != nil {
		return nil, err
	}
	out := make(model.List, 0, len(d.Find))
	for _, s := range d.Find {
		t := s.toModel()
		if model.NormalizeTitle(t.Title) == "" {
			c.log.Debug().Str("todo_id", t.ID.String()).Msg("skipping untitled server todo")
			continue
		}
		out = append(out, t)
	}
	c.log.Debug().Int("count", len(out)).Msg("fetched todos")
	return out, nil
}

// Create asks the server to store a new todo and returns its id.
func (c *Client) Create(ctx context.Context, title string, completed bool) (model.ID, error) {
	var d createData
	req := request{Query: mutationCreate, Variables: createVars(title, completed)}
	if err := c.do(ctx, OpCreate, req, &d); err != nil {
		return "", err
	}
	id, ok := createdID(d.Create)
	if !ok {
		return "", syncErr(OpCreate, 0, errNoCreated)
	}
	c.log.Debug().Str("todo_id", id.String()).Msg("created todo")
	return id, nil
}

// Update sends only the fields set in p.
func (c *Client) Update(ctx context.Context, id model.ID, p model.Patch) error {
	req := request{Query: mutationUpdate, Variables: updateVars(id, p)}
	if err := c.do(ctx, OpUpdate, req, nil); err != nil {
		return err
	}
	c.log.Debug().Str("todo_id", id.String()).Msg("updated todo")
	return nil
}

func (c *Client) Delete(ctx context.Context, id model.ID) error {
	req := request{Query: mutationDelete, Variables: deleteVars(id)}
	if err := c.do(ctx, OpDelete, req, nil); err != nil {
		return err
	}
	c.log.Debug().Str("todo_id", id.String()).Msg("deleted todo")
	return nil
}

// do performs one round trip and decodes data into out if out is not nil.
func (c *Client) do(ctx context.Context, op string, r request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(r)
	if err != nil {
		return syncErr(op, 0, fmt.Errorf("json marshal: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return syncErr(op, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return syncErr(op, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return syncErr(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return syncErr(op, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return syncErr(op, resp.StatusCode, fmt.Errorf("json unmarshal: %w", err))
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return syncErr(op, resp.StatusCode, fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return syncErr(op, resp.StatusCode, errNoData)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return syncErr(op, resp.StatusCode, fmt.Errorf("decode data: %w", err))
	}
	return nil
}
