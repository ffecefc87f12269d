// Package cli is the todo command line: one-shot commands over the
// controller and the interactive list as the default.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/route"
	"github.com/idilsaglam/todo/internal/tui"
	"github.com/idilsaglam/todo/internal/ui"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

type rootFlags struct {
	configDir  string
	apiURL     string
	theme      string
	noColor    bool
	forceColor bool
}

// usageError marks a failure the user can fix by calling differently.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

// usageArgs turns an argument validation failure into a usage error.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageErrorf("%s\nusage: %s", err, cmd.UseLine())
		}
		return nil
	}
}

// applyOutput reports false when theme is not one ui knows.
func applyOutput(theme string, f *rootFlags) bool {
	ui.SetColorForcing(f.forceColor, f.noColor)
	return ui.SetTheme(theme)
}

func newRootCmd(f *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "todo keeps a todo list in sync with a GraphQL server",
		Version:       Version,
		Args:          usageArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          f.runUI,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%s\nusage: %s", err, cmd.UseLine())
	})

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: $TODO_CONFIG_DIR or the user config dir)")
	pf.StringVar(&f.apiURL, "api-url", "", "GraphQL endpoint; empty keeps todos local")
	pf.StringVar(&f.theme, "theme", "", "output theme: "+strings.Join(ui.ThemeNames(), ", "))
	pf.BoolVar(&f.noColor, "no-color", false, "disable colors")
	pf.BoolVar(&f.forceColor, "force-color", false, "force colors even when not a terminal")

	root.AddCommand(
		&cobra.Command{
			Use:   "ui",
			Short: "Open the interactive list (default)",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  f.runUI,
		},
		newListCmd(f),
		newAddCmd(f),
		newDoneCmd(f),
		newRemoveCmd(f),
		newEditCmd(f),
		newClearCompletedCmd(f),
		newAllDoneCmd(f),
		newSyncCmd(f),
		newAuthCmd(f),
		&cobra.Command{
			Use:   "version",
			Short: "Print the todo version",
			Args:  usageArgs(cobra.NoArgs),
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "todo", Version)
			},
		},
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f := &rootFlags{}
	root := newRootCmd(f)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	ui.Fail(stderr, err.Error())
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitError
}

func (f *rootFlags) runUI(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Run(cmd.Context(), s.ctl, tui.Options{
		Input:  cmd.InOrStdin(),
		Output: cmd.OutOrStdout(),
		Remote: s.cfg.APIURL,
	})
}

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "ls [route]",
		Aliases: []string{"list"},
		Short:   "List todos; route is all, active or completed (#/active works too)",
		Args:    usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, f)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				if _, frag := route.Parse(args[0]); frag == "" {
					return usageErrorf("unknown route: %s", args[0])
				}
				s.ctl.Navigate(args[0])
			}
			s.refresh(cmd)
			ui.Panel(cmd.OutOrStdout(), listLines(s.ctl.Todos(), s.ctl.Visibility()))
			return nil
		},
	}
}

func newAddCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (title can be multiple words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			if _, ok := s.ctl.AddTodo(strings.Join(args, " ")); !ok {
				return "", usageErrorf("add: empty title")
			}
			return "added", nil
		}),
	}
}

func newDoneCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle done for the todo at a 1-based index",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			t, err := byIndex(s, args[0])
			if err != nil {
				return "", err
			}
			s.ctl.ToggleTodo(t.ID)
			if t.Completed {
				return "reopened", nil
			}
			return "completed", nil
		}),
	}
}

func newRemoveCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the todo at a 1-based index",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			t, err := byIndex(s, args[0])
			if err != nil {
				return "", err
			}
			s.ctl.RemoveTodo(t.ID)
			return "removed", nil
		}),
	}
}

func newEditCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <title...>",
		Short: "Retitle a todo; a blank title removes it",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			t, err := byIndex(s, args[0])
			if err != nil {
				return "", err
			}
			s.ctl.EditTodo(t.ID)
			s.ctl.UpdateEdit(strings.Join(args[1:], " "))
			s.ctl.DoneEdit()
			if s.ctl.Todos().Index(t.ID) < 0 {
				return "removed", nil
			}
			return "edited", nil
		}),
	}
}

func newClearCompletedCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove every completed todo",
		Args:  usageArgs(cobra.NoArgs),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			n := s.ctl.RemoveCompleted()
			return fmt.Sprintf("cleared %d %s", n, model.Pluralize(n)), nil
		}),
	}
}

func newAllDoneCmd(f *rootFlags) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "all-done",
		Short: "Mark every todo completed (--undo reopens them)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: f.oneShot(func(cmd *cobra.Command, s *session, args []string) (string, error) {
			s.ctl.SetAllCompleted(!undo)
			if undo {
				return "reopened all", nil
			}
			return "completed all", nil
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark every todo active instead")
	return cmd
}

func newSyncCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the cached list with the server's",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, f)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.remote == nil {
				return usageErrorf("no api_url configured; set API_URL or pass --api-url")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.Sync.Timeout)
			defer cancel()
			if err := s.ctl.Refresh(ctx); err != nil {
				return err
			}
			n := len(s.ctl.Todos())
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("synced %d %s from %s", n, model.Pluralize(n), s.remote.Endpoint()))
			return nil
		},
	}
}
