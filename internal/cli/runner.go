package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo/internal/app"
	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/remote"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/ui"
)

// session is everything one command invocation needs: resolved config, the
// log file, the cache slot and the controller on top of them.
type session struct {
	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	slot      store.Slot
	remote    *remote.Client
	ctl       *app.Controller
}

func openSession(cmd *cobra.Command, f *rootFlags) (*session, error) {
	dir, err := config.ResolveDir(f.configDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir, cmd.Flags())
	if err != nil {
		return nil, err
	}
	themeOK := applyOutput(cfg.Theme, f)

	log, closer, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	log = log.With().Str("cmd", cmd.Name()).Logger()
	if !themeOK {
		log.Warn().Str("theme", cfg.Theme).Msg("unknown theme, using " + ui.DefaultTheme)
	}

	slot, err := store.Open(store.Options{Backend: cfg.Cache.Backend, Dir: cfg.Cache.Dir}, log)
	if err != nil {
		closer.Close()
		return nil, err
	}

	s := &session{cfg: cfg, log: log, logCloser: closer, slot: slot}
	opt := app.Options{
		ReconcileIDs:  cfg.Sync.ReconcileIDs,
		PropagateBulk: cfg.Sync.PropagateBulk,
		Logger:        log,
	}
	if cfg.Remote() {
		s.remote = remote.New(cfg.APIURL,
			remote.WithToken(auth.NewStore(dir).Token()),
			remote.WithTimeout(cfg.Sync.Timeout),
			remote.WithLogger(log),
		)
		// A nil *remote.Client must not end up inside the interface.
		s.ctl = app.New(slot, s.remote, opt)
	} else {
		s.ctl = app.New(slot, nil, opt)
	}
	log.Debug().
		Str("config_dir", dir).
		Str("api_url", cfg.APIURL).
		Str("backend", cfg.Cache.Backend).
		Msg("session opened")
	return s, nil
}

func (s *session) Close() error {
	err := s.ctl.Close()
	err = errors.Join(err, s.slot.Close())
	return errors.Join(err, s.logCloser.Close())
}

// refresh pulls the remote list so indexes match what the server holds.
// Failing is not fatal: the cached list is still usable.
func (s *session) refresh(cmd *cobra.Command) {
	if s.remote == nil {
		return
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.Sync.Timeout)
	defer cancel()
	if err := s.ctl.Refresh(ctx); err != nil {
		ui.Warn(cmd.ErrOrStderr(), "using cached todos: "+err.Error())
	}
}

// settle waits for the remote calls the command started.
func (s *session) settle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Sync.Timeout)
	defer cancel()
	return s.ctl.Wait(ctx)
}

// oneShot runs fn against a refreshed controller and reports a sync failure
// as a warning. The local change stands either way.
func (f *rootFlags) oneShot(fn func(cmd *cobra.Command, s *session, args []string) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, f)
		if err != nil {
			return err
		}
		defer s.Close()

		s.refresh(cmd)
		msg, err := fn(cmd, s, args)
		if err != nil {
			return err
		}
		if err := s.settle(cmd.Context()); err != nil {
			ui.Warn(cmd.ErrOrStderr(), "not synced: "+err.Error())
		}
		if msg != "" {
			ui.OK(cmd.OutOrStdout(), msg)
		}
		return nil
	}
}

// byIndex resolves a 1-based index into the full list.
func byIndex(s *session, arg string) (model.Todo, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Todo{}, usageErrorf("not a number: %s", arg)
	}
	todos := s.ctl.Todos()
	if n < 1 || n > len(todos) {
		return model.Todo{}, usageErrorf("index out of range: have %d, got %d", len(todos), n)
	}
	return todos[n-1], nil
}

// -------------- rendering helpers --------------

func stats(items model.List) (done, pending int) {
	pending = model.Remaining(items)
	return len(items) - pending, pending
}

func listLines(all model.List, v model.Visibility) []string {
	t := ui.Current()
	d, p := stats(all)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d  %s",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(all),
		ui.C(t.Muted, string(v)),
	)

	lines := []string{header, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)), ""}
	lines = append(lines, flatLines(all, v)...)
	lines = append(lines, "", ui.C(t.Muted, fmt.Sprintf("%d %s left", p, model.Pluralize(p))))
	return lines
}

// flatLines shows the todos v selects, numbered by their place in the full
// list so done and rm take the same index.
func flatLines(all model.List, v model.Visibility) []string {
	t := ui.Current()
	var out []string
	for i, it := range all {
		if len(model.Filter(v, model.List{it})) == 0 {
			continue
		}
		idx := fmt.Sprintf("%2d.", i+1)
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.C(ui.Dim, idx), ui.C(color, box), ui.Truncate(it.Title, 80)))
	}
	if len(out) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	return out
}
