package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{"/", "/a", "/a/b/c", "/a//b/", "/a/b/"}
	for _, s := range cases {
		p, err := Parse(s)
		require.NoError(t, err, s)
		p2, err := Parse(p.String())
		require.NoError(t, err)
		assert.True(t, p.Equal(p2), "round trip of %q", s)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse("a/b")
	assert.Error(t, err)

	_, err = Parse("/a:b")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	root := Root
	p, err := New(root, "a")
	require.NoError(t, err)
	assert.Equal(t, "/a", p.String())

	q, err := New(p, "b")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", q.String())

	_, err = New(root, "")
	assert.Error(t, err)

	_, err = New(root, "a/b")
	assert.Error(t, err)

	_, err = New(root, "a:b")
	assert.Error(t, err)
}

func TestIsRoot(t *testing.T) {
	assert.True(t, Root.IsRoot())
	p := MustParse("/a")
	assert.False(t, p.IsRoot())
}

func TestParentAndLast(t *testing.T) {
	p := MustParse("/a/b/c")
	parent, err := p.Parent()
	require.NoError(t, err)
	assert.Equal(t, "/a/b", parent.String())

	last, err := p.Last()
	require.NoError(t, err)
	assert.Equal(t, "c", last)

	_, err = Root.Parent()
	assert.Error(t, err)

	_, err = Root.Last()
	assert.Error(t, err)
}

func TestElemsAndNElem(t *testing.T) {
	p := MustParse("/a/b/c")
	assert.Equal(t, []string{"a", "b", "c"}, p.Elems())
	assert.Equal(t, 3, p.NElem())
	assert.Equal(t, 0, Root.NElem())
}

func TestIsSubpath(t *testing.T) {
	root := Root
	a := MustParse("/a")
	ab := MustParse("/a/b")
	other := MustParse("/x")

	assert.True(t, a.IsSubpath(a))
	assert.True(t, ab.IsSubpath(a))
	assert.True(t, a.IsSubpath(root))
	assert.False(t, a.IsSubpath(other))
	assert.False(t, other.IsSubpath(ab))
}

func TestEqualAndHashable(t *testing.T) {
	p1 := MustParse("/a/b")
	p2 := MustParse("/a/b/")
	assert.True(t, p1.Equal(p2))

	set := map[Path]bool{p1: true}
	assert.True(t, set[p2])
}

func TestGobRoundTrip(t *testing.T) {
	p := MustParse("/a/b")
	data, err := p.GobEncode()
	require.NoError(t, err)

	var q Path
	require.NoError(t, q.GobDecode(data))
	assert.True(t, p.Equal(q))
}
