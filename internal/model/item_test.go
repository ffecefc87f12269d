package model

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_DecodesStringAndNumber(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"id":1696000000000,"title":"old","completed":true},{"id":"abc","title":"new","completed":false}]`), &l)
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, ID("1696000000000"), l[0].ID)
	assert.Equal(t, ID("abc"), l[1].ID)

	b, err := json.Marshal(l[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1696000000000","title":"old","completed":true}`, string(b))
}

func TestID_RejectsObjects(t *testing.T) {
	var td Todo
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"x":1},"title":"t"}`), &td))
}

func TestList_IndexAndClone(t *testing.T) {
	l := List{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, l.Index("b"))
	assert.Equal(t, -1, l.Index("zz"))

	c := l.Clone()
	c[0].Title = "changed"
	assert.Empty(t, l[0].Title)
}

func TestPatch(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	p := TitlePatch("x")
	require.NotNil(t, p.Title)
	assert.Equal(t, "x", *p.Title)
	assert.Nil(t, p.Completed)
	assert.False(t, CompletedPatch(false).Empty())
	assert.Equal(t, "", NormalizeTitle("   "))
	assert.Equal(t, "Buy milk", NormalizeTitle("  Buy milk \t"))
}
