package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/remote"
)

// SyncState is where a locally created todo stands with the remote.
type SyncState int

const (
	// Confirmed covers todos the server knows, and any todo when ids are
	// not reconciled.
	Confirmed SyncState = iota
	Pending
	Abandoned
)

func (s SyncState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Abandoned:
		return "abandoned"
	default:
		return "confirmed"
	}
}

// pendingCreate tracks one create in flight. done closes once the server
// answered; serverID stays empty if it failed.
type pendingCreate struct {
	done      chan struct{}
	serverID  model.ID
	abandoned bool
}

// SyncState reports the state of id in the pending table.
func (c *Controller) SyncState(id model.ID) SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	switch {
	case !ok:
		return Confirmed
	case p.abandoned:
		return Abandoned
	default:
		return Pending
	}
}

// Start fetches the remote list in the background and replaces local state
// when it arrives. A failed fetch leaves the cached list in place.
func (c *Controller) Start() {
	if c.remote == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks.Go(func() error {
		return c.Refresh(c.ctx)
	})
}

// Refresh fetches the remote list and replaces local state with it.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.remote == nil {
		return nil
	}
	c.mu.Lock()
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	list, err := c.remote.FetchAll(ctx)
	if err != nil {
		c.syncFailed(remote.OpFetch, "", err)
		return err
	}

	c.mu.Lock()
	list = c.dropDeletedLocked(list, gen)
	// Local creates the server has not answered yet would vanish otherwise.
	for _, t := range c.todos {
		if p, ok := c.pending[t.ID]; ok && !p.abandoned {
			list = append(list, t)
		}
	}
	c.todos = list
	if c.edited != "" && c.todos.Index(c.edited) < 0 {
		c.edited = ""
	}
	c.persistLocked()
	c.mu.Unlock()

	c.log.Info().Int("count", len(list)).Msg("replaced todos with remote state")
	c.notify()
	return nil
}

// dropDeletedLocked removes todos the user deleted from a fetched list.
// A tombstone of 0 marks a delete still in flight. Otherwise it holds the
// first fetch generation that started after the delete returned; fetches
// from that generation on are trusted and retire the tombstone.
func (c *Controller) dropDeletedLocked(list model.List, gen uint64) model.List {
	if len(c.tombstones) == 0 {
		return list
	}
	out := make(model.List, 0, len(list))
	for _, t := range list {
		if after, ok := c.tombstones[t.ID]; ok && (after == 0 || gen < after) {
			continue
		}
		out = append(out, t)
	}
	for id, after := range c.tombstones {
		if after != 0 && gen >= after {
			delete(c.tombstones, id)
		}
	}
	return out
}

// settleTombstone records that the delete of id returned.
func (c *Controller) settleTombstone(id model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tombstones[id]; ok {
		c.tombstones[id] = c.fetchGen + 1
	}
}

// Wait blocks until every remote call issued so far has finished and
// returns the first failure among them. Calls issued while waiting belong
// to the next Wait.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	g := c.tasks
	c.tasks = new(errgroup.Group)
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels remote calls still in flight and waits for them to return.
func (c *Controller) Close() error {
	c.cancel()
	err := c.Wait(context.Background())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Controller) syncFailed(op string, id model.ID, err error) {
	c.log.Warn().
		Err(err).
		Str("op", op).
		Str("todo_id", id.String()).
		Msg("remote sync failed")
	if c.opt.OnSyncFailure != nil {
		c.opt.OnSyncFailure(op, id, err)
	}
}

// spawnLocked runs fn in the background. The caller never waits for it.
func (c *Controller) spawnLocked(op string, id model.ID, fn func(ctx context.Context) error) {
	c.tasks.Go(func() error {
		err := fn(c.ctx)
		if err != nil {
			c.syncFailed(op, id, err)
		}
		return err
	})
}

func (c *Controller) createLocked(id model.ID, title string) {
	if c.remote == nil {
		return
	}
	if !c.opt.ReconcileIDs {
		c.spawnLocked(remote.OpCreate, id, func(ctx context.Context) error {
			_, err := c.remote.Create(ctx, title, false)
			return err
		})
		return
	}

	p := &pendingCreate{done: make(chan struct{})}
	c.pending[id] = p
	c.spawnLocked(remote.OpCreate, id, func(ctx context.Context) error {
		sid, err := c.remote.Create(ctx, title, false)
		c.confirm(id, p, sid, err)
		return err
	})
}

// confirm resolves a pending create, renaming the local todo in place.
func (c *Controller) confirm(tmp model.ID, p *pendingCreate, sid model.ID, err error) {
	c.mu.Lock()
	delete(c.pending, tmp)
	if err == nil {
		p.serverID = sid
	}
	close(p.done)

	if err == nil && p.abandoned {
		c.tombstones[sid] = 0
	}

	changed := false
	if err == nil && !p.abandoned {
		if i := c.todos.Index(tmp); i >= 0 {
			if c.todos.Index(sid) >= 0 {
				// A refresh already brought the server copy in.
				c.todos = append(c.todos[:i:i], c.todos[i+1:]...)
			} else {
				c.todos[i].ID = sid
			}
			if c.edited == tmp {
				c.edited = sid
			}
			c.persistLocked()
			changed = true
		}
	}
	c.mu.Unlock()

	if err == nil {
		c.log.Debug().Str("temp_id", tmp.String()).Str("todo_id", sid.String()).Msg("confirmed todo")
	}
	if changed {
		c.notify()
	}
}

// resolve waits for a pending create and returns the id to send. ok is
// false when the create failed, leaving nothing on the server to touch.
func resolve(ctx context.Context, id model.ID, p *pendingCreate) (model.ID, bool, error) {
	if p == nil {
		return id, true, nil
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	if p.serverID == "" {
		return "", false, nil
	}
	return p.serverID, true, nil
}

func (c *Controller) updateLocked(id model.ID, patch model.Patch) {
	if c.remote == nil {
		return
	}
	p := c.pending[id]
	c.spawnLocked(remote.OpUpdate, id, func(ctx context.Context) error {
		sid, ok, err := resolve(ctx, id, p)
		if err != nil || !ok {
			return err
		}
		return c.remote.Update(ctx, sid, patch)
	})
}

func (c *Controller) deleteLocked(id model.ID) {
	if c.remote == nil {
		return
	}
	p := c.pending[id]
	if p != nil {
		p.abandoned = true
	} else {
		c.tombstones[id] = 0
	}
	c.spawnLocked(remote.OpDelete, id, func(ctx context.Context) error {
		sid, ok, err := resolve(ctx, id, p)
		if err != nil || !ok {
			return err
		}
		err = c.remote.Delete(ctx, sid)
		c.settleTombstone(sid)
		return err
	})
}
