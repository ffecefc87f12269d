package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/remote/remotetest"
)

func TestFetchAll_MapsServerFields(t *testing.T) {
	srv := remotetest.NewServer(
		remotetest.Record{ID: "a1", Text: "Buy milk", Visibility: false},
		remotetest.Record{ID: "b2", Text: "Walk dog", Visibility: true},
		remotetest.Record{ID: "c3", Text: "   "},
	)
	defer srv.Close()

	got, err := New(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.List{
		{ID: "a1", Title: "Buy milk"},
		{ID: "b2", Title: "Walk dog", Completed: true},
	}, got)
}

func TestCreate_ReturnsServerID(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()

	id, err := New(srv.URL, WithToken("secret")).Create(context.Background(), "Buy milk", false)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	recs := srv.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, string(id), recs[0].ID)
	assert.Equal(t, "Buy milk", recs[0].Text)

	calls := srv.CallsFor(OpCreate)
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer secret", calls[0].Auth)
	assert.Equal(t, map[string]any{"text": "Buy milk", "visibility": false}, calls[0].Variables)
}

func TestUpdate_SendsOnlyChangedFields(t *testing.T) {
	srv := remotetest.NewServer(remotetest.Record{ID: "a1", Text: "old"})
	defer srv.Close()
	c := New(srv.URL)

	require.NoError(t, c.Update(context.Background(), "a1", model.TitlePatch("new")))
	require.NoError(t, c.Update(context.Background(), "a1", model.CompletedPatch(true)))

	calls := srv.CallsFor(OpUpdate)
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"_id": "a1", "text": "new"}, calls[0].Variables)
	assert.Equal(t, map[string]any{"_id": "a1", "visibility": true}, calls[1].Variables)
	assert.Equal(t, []remotetest.Record{{ID: "a1", Text: "new", Visibility: true}}, srv.Records())
}

func TestDelete(t *testing.T) {
	srv := remotetest.NewServer(remotetest.Record{ID: "a1", Text: "x"})
	defer srv.Close()

	require.NoError(t, New(srv.URL).Delete(context.Background(), "a1"))
	assert.Empty(t, srv.Records())

	err := New(srv.URL).Delete(context.Background(), "a1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSync)
	assert.Contains(t, err.Error(), "graphql")
}

func TestErrors_AreSyncErrors(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.Fail("find", http.StatusInternalServerError)

	_, err := New(srv.URL).FetchAll(context.Background())
	var se *SyncError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, OpFetch, se.Op)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.ErrorIs(t, err, ErrSync)
}

func TestErrors_Transport(t *testing.T) {
	srv := remotetest.NewServer()
	url := srv.URL
	srv.Close()

	_, err := New(url).Create(context.Background(), "x", false)
	assert.ErrorIs(t, err, ErrSync)
}

func TestErrors_MalformedBodies(t *testing.T) {
	cases := map[string]string{
		"not json":  `<html>oops</html>`,
		"no data":   `{}`,
		"null data": `{"data":null}`,
		"bad shape": `{"data":{"find":"nope"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			_, err := New(ts.URL).FetchAll(context.Background())
			assert.ErrorIs(t, err, ErrSync)
		})
	}
}

func TestCreate_HeterogeneousIDShapes(t *testing.T) {
	cases := map[string]struct {
		body string
		want model.ID
	}{
		"string": {`{"data":{"create":"abc"}}`, "abc"},
		"number": {`{"data":{"create":42}}`, "42"},
		"object": {`{"data":{"create":{"_id":"obj-1","text":"x"}}}`, "obj-1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(c.body))
			}))
			defer ts.Close()

			id, err := New(ts.URL).Create(context.Background(), "x", false)
			require.NoError(t, err)
			assert.Equal(t, c.want, id)
		})
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"create":null}}`))
	}))
	defer ts.Close()
	_, err := New(ts.URL).Create(context.Background(), "x", false)
	assert.ErrorIs(t, err, ErrSync)
}

func TestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	_, err := New(ts.URL, WithTimeout(50*time.Millisecond)).FetchAll(context.Background())
	assert.ErrorIs(t, err, ErrSync)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
