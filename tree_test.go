package awaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParsePath(t *testing.T, s string) Path {
	t.Helper()
	p, err := ParsePath(s)
	require.NoError(t, err)
	return p
}

func TestTreeInsertAndLookup(t *testing.T) {
	tree := NewTree()
	node := tree.Insert(mustParsePath(t, "/3/0/15"))
	node.SetValue(NewStringValue("Pacific/Auckland"))

	found, ok := tree.Lookup(mustParsePath(t, "/3/0/15"))
	require.True(t, ok)
	v, ok := found.Value()
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Pacific/Auckland", s)

	_, ok = tree.Lookup(mustParsePath(t, "/3/0/16"))
	assert.False(t, ok)
}

func TestTreeInsertDoesNotShadowAncestors(t *testing.T) {
	tree := NewTree()
	instNode := tree.Insert(mustParsePath(t, "/3/0"))
	instNode.SetResult(Success)
	resNode := tree.Insert(mustParsePath(t, "/3/0/15"))
	resNode.SetValue(NewStringValue("x"))

	instAgain, ok := tree.Lookup(mustParsePath(t, "/3/0"))
	require.True(t, ok)
	r, ok := instAgain.Result()
	require.True(t, ok)
	assert.Equal(t, Success, r, "inserting the resource path must not shadow the instance node's own result")

	resAgain, ok := tree.Lookup(mustParsePath(t, "/3/0/15"))
	require.True(t, ok)
	_, ok = resAgain.Value()
	assert.True(t, ok)
}

func TestTreeWalkIsPreOrderSortedByID(t *testing.T) {
	tree := NewTree()
	tree.Insert(mustParsePath(t, "/3/1"))
	tree.Insert(mustParsePath(t, "/3/0"))
	tree.Insert(mustParsePath(t, "/1/0"))

	var seen []string
	tree.Walk(func(n *Node) { seen = append(seen, n.Path().String()) })
	assert.Equal(t, []string{"/1", "/1/0", "/3", "/3/0", "/3/1"}, seen)
}

func TestTreeLeaves(t *testing.T) {
	tree := NewTree()
	tree.Insert(mustParsePath(t, "/3/0")) // registered entity: instance with no resources
	tree.Insert(mustParsePath(t, "/1"))   // bare object: no instances

	var leafPaths []string
	for _, n := range tree.Leaves() {
		leafPaths = append(leafPaths, n.Path().String())
	}
	assert.ElementsMatch(t, []string{"/3/0", "/1"}, leafPaths)
}
