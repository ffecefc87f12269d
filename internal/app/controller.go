// Package app holds the controller that owns the todo list. Views read its
// state and call its methods; it keeps the cache slot and the remote store
// following along.
package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/route"
)

// Cache is the write-through snapshot. store.Slot satisfies it.
type Cache interface {
	Load() model.List
	Save(model.List) error
}

// Remote is the authoritative store. remote.Client satisfies it.
type Remote interface {
	FetchAll(ctx context.Context) (model.List, error)
	Create(ctx context.Context, title string, completed bool) (model.ID, error)
	Update(ctx context.Context, id model.ID, p model.Patch) error
	Delete(ctx context.Context, id model.ID) error
}

type Options struct {
	// ReconcileIDs keeps a pending table for local creates and swaps the
	// temporary id for the server id once create answers. Updates and
	// deletes for a pending todo wait for that answer.
	ReconcileIDs bool

	// PropagateBulk makes RemoveCompleted and SetAllCompleted send one
	// delete or update per affected todo. Off, both are local only.
	PropagateBulk bool

	// OnSyncFailure observes remote failures. Local state is never rolled
	// back.
	OnSyncFailure func(op string, id model.ID, err error)

	// NewID mints temporary ids. Defaults to "tmp-" + a UUIDv7.
	NewID func() model.ID

	Logger zerolog.Logger
}

// State is a snapshot of everything a view binds to.
type State struct {
	Todos      model.List
	NewTodo    string
	Edited     model.ID
	Visibility model.Visibility
	Fragment   string
	Pending    int
}

type Controller struct {
	mu         sync.Mutex
	todos      model.List
	newTodo    string
	edited     model.ID
	beforeEdit string
	visibility model.Visibility
	fragment   string

	pending map[model.ID]*pendingCreate
	// tombstones hides server ids with a delete in flight or just done
	// from refreshes that may predate it. See dropDeletedLocked.
	tombstones map[model.ID]uint64
	fetchGen   uint64

	observers map[int]func()
	nextObs   int

	cache  Cache
	remote Remote
	opt    Options
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  *errgroup.Group
}

// New loads the cache synchronously; the list is usable before any network
// traffic. remote may be nil for a local-only controller.
func New(cache Cache, remote Remote, opt Options) *Controller {
	if opt.NewID == nil {
		opt.NewID = tempID
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		todos:      cache.Load(),
		visibility: model.VisibilityAll,
		pending:    map[model.ID]*pendingCreate{},
		tombstones: map[model.ID]uint64{},
		observers:  map[int]func(){},
		cache:      cache,
		remote:     remote,
		opt:        opt,
		log:        opt.Logger,
		ctx:        ctx,
		cancel:     cancel,
		tasks:      new(errgroup.Group),
	}
	if c.todos == nil {
		c.todos = model.List{}
	}
	return c
}

func tempID() model.ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return model.ID("tmp-" + u.String())
}

// Subscribe registers fn to run after every state change. fn runs on the
// goroutine that made the change, without the controller lock held.
func (c *Controller) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// persistLocked mirrors the list into the cache. Called after every change
// to todos, with c.mu held.
func (c *Controller) persistLocked() {
	if err := c.cache.Save(c.todos); err != nil {
		c.log.Warn().Err(err).Msg("failed to save cache")
	}
}

// ---------------------------------------------------
// Views
// ---------------------------------------------------

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Todos:      c.todos.Clone(),
		NewTodo:    c.newTodo,
		Edited:     c.edited,
		Visibility: c.visibility,
		Fragment:   c.fragment,
		Pending:    len(c.pending),
	}
}

func (c *Controller) Todos() model.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.todos.Clone()
}

// Filtered is the subset the current visibility shows.
func (c *Controller) Filtered() model.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Filter(c.visibility, c.todos.Clone())
}

func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Remaining(c.todos)
}

func (c *Controller) AllDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.AllDone(c.todos)
}

func (c *Controller) NewTodo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newTodo
}

// Edited returns the todo being edited, if any.
func (c *Controller) Edited() (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edited == "" {
		return model.Todo{}, false
	}
	if i := c.todos.Index(c.edited); i >= 0 {
		return c.todos[i], true
	}
	return model.Todo{}, false
}

func (c *Controller) Visibility() model.Visibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibility
}

// ---------------------------------------------------
// Navigation
// ---------------------------------------------------

func (c *Controller) SetVisibility(v model.Visibility) {
	c.mu.Lock()
	c.visibility = v
	c.fragment = route.Fragment(v)
	c.mu.Unlock()
	c.notify()
}

// Navigate applies a location fragment. Unknown fragments select all and
// clear the stored fragment.
func (c *Controller) Navigate(fragment string) model.Visibility {
	v, frag := route.Parse(fragment)
	c.mu.Lock()
	c.visibility = v
	c.fragment = frag
	c.mu.Unlock()
	c.notify()
	return v
}

// ---------------------------------------------------
// Mutations
// ---------------------------------------------------

// SetNewTodo binds the text of the new-todo input.
func (c *Controller) SetNewTodo(s string) {
	c.mu.Lock()
	c.newTodo = s
	c.mu.Unlock()
	c.notify()
}

// AddTodo appends a todo with a temporary id and clears the input. Blank
// titles change nothing and reach nobody.
func (c *Controller) AddTodo(title string) (model.ID, bool) {
	title = model.NormalizeTitle(title)
	if title == "" {
		return "", false
	}

	c.mu.Lock()
	id := c.opt.NewID()
	c.todos = append(c.todos, model.Todo{ID: id, Title: title})
	c.newTodo = ""
	c.persistLocked()
	c.createLocked(id, title)
	c.mu.Unlock()

	c.log.Debug().Str("todo_id", id.String()).Msg("added todo")
	c.notify()
	return id, true
}

// RemoveTodo drops the todo with id and asks the remote to delete it.
func (c *Controller) RemoveTodo(id model.ID) bool {
	c.mu.Lock()
	ok := c.removeLocked(id)
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

func (c *Controller) removeLocked(id model.ID) bool {
	i := c.todos.Index(id)
	if i < 0 {
		return false
	}
	c.todos = append(c.todos[:i:i], c.todos[i+1:]...)
	if c.edited == id {
		c.edited = ""
	}
	c.persistLocked()
	c.deleteLocked(id)
	return true
}

// EditTodo starts editing id, remembering its title for CancelEdit. An edit
// already in progress on another todo is committed first.
func (c *Controller) EditTodo(id model.ID) bool {
	c.mu.Lock()
	i := c.todos.Index(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	if c.edited != "" && c.edited != id {
		c.doneEditLocked()
		i = c.todos.Index(id)
		if i < 0 {
			c.mu.Unlock()
			c.notify()
			return false
		}
	}
	c.beforeEdit = c.todos[i].Title
	c.edited = id
	c.mu.Unlock()
	c.notify()
	return true
}

// UpdateEdit binds the in-progress title of the edited todo. The text is
// kept as typed; DoneEdit trims it.
func (c *Controller) UpdateEdit(title string) {
	c.mu.Lock()
	i := c.todos.Index(c.edited)
	if c.edited == "" || i < 0 {
		c.mu.Unlock()
		return
	}
	c.todos[i].Title = title
	c.persistLocked()
	c.mu.Unlock()
	c.notify()
}

// CancelEdit restores the title the todo had when editing started.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	if c.edited == "" {
		c.mu.Unlock()
		return
	}
	if i := c.todos.Index(c.edited); i >= 0 {
		c.todos[i].Title = c.beforeEdit
		c.persistLocked()
	}
	c.edited = ""
	c.mu.Unlock()
	c.notify()
}

// DoneEdit commits the edit. A title that trims to nothing deletes the todo.
func (c *Controller) DoneEdit() {
	c.mu.Lock()
	if c.edited == "" {
		c.mu.Unlock()
		return
	}
	c.doneEditLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) doneEditLocked() {
	id := c.edited
	c.edited = ""
	i := c.todos.Index(id)
	if i < 0 {
		return
	}
	title := model.NormalizeTitle(c.todos[i].Title)
	if title == "" {
		c.removeLocked(id)
		return
	}
	c.todos[i].Title = title
	c.persistLocked()
	c.updateLocked(id, model.TitlePatch(title))
}

// CompleteTodo sets the completion flag and sends it to the remote.
func (c *Controller) CompleteTodo(id model.ID, completed bool) bool {
	c.mu.Lock()
	ok := c.completeLocked(id, func(bool) bool { return completed })
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

// ToggleTodo flips the flag as it stands when the lock is taken.
func (c *Controller) ToggleTodo(id model.ID) bool {
	c.mu.Lock()
	ok := c.completeLocked(id, func(done bool) bool { return !done })
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

func (c *Controller) completeLocked(id model.ID, next func(bool) bool) bool {
	i := c.todos.Index(id)
	if i < 0 {
		return false
	}
	done := next(c.todos[i].Completed)
	c.todos[i].Completed = done
	c.persistLocked()
	c.updateLocked(id, model.CompletedPatch(done))
	return true
}

// RemoveCompleted keeps only the active todos.
func (c *Controller) RemoveCompleted() int {
	c.mu.Lock()
	removed := model.Completed(c.todos)
	c.todos = model.Active(c.todos)
	for _, t := range removed {
		if t.ID == c.edited {
			c.edited = ""
		}
	}
	c.persistLocked()
	if c.opt.PropagateBulk {
		for _, t := range removed {
			c.deleteLocked(t.ID)
		}
	}
	c.mu.Unlock()
	c.notify()
	return len(removed)
}

// SetAllCompleted sets the flag on every todo.
func (c *Controller) SetAllCompleted(completed bool) {
	c.mu.Lock()
	var changed []model.ID
	for i := range c.todos {
		if c.todos[i].Completed != completed {
			changed = append(changed, c.todos[i].ID)
		}
		c.todos[i].Completed = completed
	}
	c.persistLocked()
	if c.opt.PropagateBulk {
		for _, id := range changed {
			c.updateLocked(id, model.CompletedPatch(completed))
		}
	}
	c.mu.Unlock()
	c.notify()
}
