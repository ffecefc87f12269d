package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/ui"
)

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func newAuthCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the token sent to the GraphQL endpoint",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErrorf("usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Store a token read from stdin",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  f.withTokens(authLogin),
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Delete the stored token",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  f.withTokens(authLogout),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the token comes from",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  f.withTokens(authStatus),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Decode the token claims locally",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  f.withTokens(authWhoAmI),
		},
	)
	return cmd
}

// withTokens hands fn the credential store of the resolved config dir.
// Auth commands need neither the cache nor the network.
func (f *rootFlags) withTokens(fn func(cmd *cobra.Command, tokens auth.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir, err := config.ResolveDir(f.configDir)
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir, cmd.Flags())
		if err != nil {
			return err
		}
		applyOutput(cfg.Theme, f)
		return fn(cmd, auth.NewStore(dir))
	}
}

func authLogin(cmd *cobra.Command, tokens auth.Store) error {
	fmt.Fprint(cmd.OutOrStdout(), "Paste your token: ")
	token, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && strings.TrimSpace(token) == "" {
		return fmt.Errorf("read token: %w", err)
	}
	if err := tokens.Set(token, nil); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	ui.OK(cmd.OutOrStdout(), "logged in")
	return nil
}

func authLogout(cmd *cobra.Command, tokens auth.Store) error {
	ti, _ := tokens.Get()
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(cmd.OutOrStdout(), "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
		return nil
	}
	if err := tokens.Delete(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ui.OK(cmd.OutOrStdout(), "logged out")
	return nil
}

func authStatus(cmd *cobra.Command, tokens auth.Store) error {
	out := cmd.OutOrStdout()
	ti, err := tokens.Get()
	if err != nil {
		return err
	}
	if ti == nil {
		fmt.Fprintln(out, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(out, "Run: todo auth login")
		return nil
	}
	fmt.Fprintf(out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "expires: (unknown)")
	}
	fmt.Fprintln(out, "env override: "+auth.EnvToken)
	return nil
}

// whoami decodes a JWT locally without verifying it; opaque tokens print
// basic info.
func authWhoAmI(cmd *cobra.Command, tokens auth.Store) error {
	out := cmd.OutOrStdout()
	ti, _ := tokens.Get()
	if ti == nil {
		return usageErrorf("not logged in. Run: todo auth login")
	}
	if p, ok := auth.Payload(ti.Token); ok {
		fmt.Fprintln(out, "JWT payload:")
		fmt.Fprintln(out, p)
		return nil
	}
	fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
	fmt.Fprintln(out, "source:", ti.Source)
	return nil
}
