package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/remote/remotetest"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
)

type result struct {
	code           int
	stdout, stderr string
}

type harness struct {
	t     *testing.T
	dir   string
	extra []string
	stdin string
}

func newHarness(t *testing.T, extra ...string) *harness {
	t.Helper()
	for _, k := range []string{"API_URL", "TODO_API_URL", "TODO_TOKEN", "TODO_CONFIG_DIR", "TODO_CACHE_BACKEND"} {
		t.Setenv(k, "")
	}
	return &harness{t: t, dir: t.TempDir(), extra: extra}
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config-dir", h.dir, "--no-color"}, h.extra...)
	full = append(full, args...)
	code := Execute(context.Background(), full, strings.NewReader(h.stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (h *harness) cached() model.List {
	return jsonstore.New(h.dir, zerolog.Nop()).Load()
}

func TestLocal_Lifecycle(t *testing.T) {
	h := newHarness(t)

	r := h.run("add", "Buy", "milk")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "added")
	require.Equal(t, exitOK, h.run("add", "Walk the dog").code)

	r = h.run("ls")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, " 1. ☐ Buy milk")
	assert.Contains(t, r.stdout, " 2. ☐ Walk the dog")
	assert.Contains(t, r.stdout, "2 items left")

	r = h.run("done", "1")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "completed")

	r = h.run("ls", "#/active")
	require.Equal(t, exitOK, r.code)
	assert.NotContains(t, r.stdout, "Buy milk")
	assert.Contains(t, r.stdout, " 2. ☐ Walk the dog")
	assert.Contains(t, r.stdout, "1 item left")

	r = h.run("ls", "completed")
	assert.Contains(t, r.stdout, " 1. ☑ Buy milk")

	require.Equal(t, exitOK, h.run("edit", "2", "  Walk", "the cat ").code)
	assert.Equal(t, "Walk the cat", h.cached()[1].Title)

	r = h.run("clear-completed")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "cleared 1 item")

	require.Equal(t, exitOK, h.run("all-done").code)
	assert.True(t, model.AllDone(h.cached()))
	require.Equal(t, exitOK, h.run("all-done", "--undo").code)
	assert.Equal(t, 1, model.Remaining(h.cached()))

	require.Equal(t, exitOK, h.run("rm", "1").code)
	assert.Empty(t, h.cached())
	assert.Contains(t, h.run("ls").stdout, "no items")
}

func TestLocal_EditBlankRemoves(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, exitOK, h.run("add", "temp").code)

	r := h.run("edit", "1", "   ")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "removed")
	assert.Empty(t, h.cached())
}

func TestSQLiteBackend(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TODO_CACHE_BACKEND", "sqlite")

	require.Equal(t, exitOK, h.run("add", "kept in sqlite").code)
	assert.Contains(t, h.run("ls").stdout, "kept in sqlite")
	assert.Empty(t, h.cached())
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, exitOK, h.run("add", "one").code)

	cases := map[string][]string{
		"not a number":   {"done", "x"},
		"out of range":   {"rm", "7"},
		"missing index":  {"done"},
		"blank title":    {"add", "   "},
		"unknown route":  {"ls", "#/someday"},
		"unknown flag":   {"ls", "--bogus"},
		"unknown cmd":    {"frobnicate"},
		"sync no remote": {"sync"},
		"auth bare":      {"auth"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			r := h.run(args...)
			assert.Equal(t, exitUsage, r.code)
			assert.Contains(t, r.stderr, "✖")
		})
	}
	assert.Len(t, h.cached(), 1)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	r := h.run("version")
	assert.Equal(t, exitOK, r.code)
	assert.Equal(t, "todo dev\n", r.stdout)
}

func TestRemote_CommandsReachServer(t *testing.T) {
	srv := remotetest.NewServer(remotetest.Record{ID: "s1", Text: "from server"})
	defer srv.Close()
	h := newHarness(t, "--api-url", srv.URL)

	r := h.run("ls")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "from server")

	require.Equal(t, exitOK, h.run("add", "from cli").code)
	recs := srv.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "from cli", recs[1].Text)
	// The cache holds the server id, not the temporary one.
	assert.Equal(t, model.ID(recs[1].ID), h.cached()[1].ID)

	require.Equal(t, exitOK, h.run("done", "1").code)
	assert.True(t, srv.Records()[0].Visibility)

	r = h.run("sync")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "synced 2 items")
}

func TestRemote_DownKeepsLocalChange(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.Fail("find", 502)
	srv.Fail("create", 502)
	h := newHarness(t, "--api-url", srv.URL)

	r := h.run("add", "offline")
	assert.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stderr, "using cached todos")
	assert.Contains(t, r.stderr, "not synced")
	require.Len(t, h.cached(), 1)
	assert.Equal(t, "offline", h.cached()[0].Title)

	assert.Equal(t, exitError, h.run("sync").code)
}

func TestAuth_FileToken(t *testing.T) {
	h := newHarness(t)

	r := h.run("auth", "status")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "not logged in")
	assert.Equal(t, exitUsage, h.run("auth", "whoami").code)

	h.stdin = "Bearer opaque-token\n"
	r = h.run("auth", "login")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "logged in")

	r = h.run("auth", "status")
	assert.Contains(t, r.stdout, "source: file")
	assert.Contains(t, r.stdout, "expires: (unknown)")

	r = h.run("auth", "whoami")
	assert.Contains(t, r.stdout, "Opaque token")

	require.Equal(t, exitOK, h.run("auth", "logout").code)
	assert.Contains(t, h.run("auth", "status").stdout, "not logged in")
}

func TestAuth_EnvTokenSentToServer(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	h := newHarness(t, "--api-url", srv.URL)
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"ada"}`))
	t.Setenv("TODO_TOKEN", "hdr."+payload+".sig")

	r := h.run("auth", "whoami")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, `{"sub":"ada"}`)

	r = h.run("auth", "logout")
	assert.Contains(t, r.stdout, "nothing to delete")

	require.Equal(t, exitOK, h.run("ls").code)
	calls := srv.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "Bearer hdr."+payload+".sig", calls[0].Auth)
}
