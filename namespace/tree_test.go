package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsfs.io/errs"
	"nsfs.io/path"
	"nsfs.io/rpc"
)

func stub(addr string) rpc.Stub {
	s, err := rpc.NewFromAddress("test.Store", rpc.Address(addr))
	if err != nil {
		panic(err)
	}
	return s
}

func TestRootAlwaysExistsAndIsDirectory(t *testing.T) {
	tr := New()
	assert.True(t, tr.PathExists(path.Root))
	isDir, err := tr.IsFolder(path.Root)
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestAddFileCreatesIntermediateDirs(t *testing.T) {
	tr := New()
	h := stub("A:1")
	ok, err := tr.AddFile(path.MustParse("/b/c"), h, h)
	require.NoError(t, err)
	assert.True(t, ok)

	isDir, err := tr.IsFolder(path.MustParse("/b"))
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = tr.IsFolder(path.MustParse("/b/c"))
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestListS1Scenario(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/a"), a, a)
	require.NoError(t, err)
	_, err = tr.AddFile(path.MustParse("/b/c"), a, a)
	require.NoError(t, err)
	_, err = tr.AddFile(path.MustParse("/b/d"), a, a)
	require.NoError(t, err)

	names, err := tr.List(path.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = tr.List(path.MustParse("/b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, names)

	isDir, err := tr.IsFolder(path.MustParse("/b"))
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = tr.IsFolder(path.MustParse("/a"))
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestListFailsOnMissingOrFile(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/a"), a, a)
	require.NoError(t, err)

	_, err = tr.List(path.MustParse("/missing"))
	assert.True(t, errs.Is(errs.NotExist, err))

	_, err = tr.List(path.MustParse("/a"))
	assert.True(t, errs.Is(errs.NotExist, err))
}

func TestAddFileRootReturnsFalse(t *testing.T) {
	tr := New()
	h := stub("A:1")
	ok, err := tr.AddFile(path.Root, h, h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteSubtreeS4Scenario(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/a"), a, a)
	require.NoError(t, err)
	_, err = tr.AddFile(path.MustParse("/b/c"), a, a)
	require.NoError(t, err)
	_, err = tr.AddFile(path.MustParse("/b/d"), a, a)
	require.NoError(t, err)

	require.NoError(t, tr.Delete(path.MustParse("/b")))
	assert.False(t, tr.PathExists(path.MustParse("/b")))
	assert.False(t, tr.PathExists(path.MustParse("/b/c")))
	assert.True(t, tr.PathExists(path.MustParse("/a")))
}

func TestDeleteRootFails(t *testing.T) {
	tr := New()
	err := tr.Delete(path.Root)
	assert.Error(t, err)
}

func TestDeleteMissingFails(t *testing.T) {
	tr := New()
	err := tr.Delete(path.MustParse("/missing"))
	assert.True(t, errs.Is(errs.NotExist, err))
}

func TestGetStorageHandleOverwrittenByLastRegistrant(t *testing.T) {
	tr := New()
	a := stub("A:1")
	b := stub("B:2")
	_, err := tr.AddFile(path.MustParse("/a"), a, a)
	require.NoError(t, err)
	_, err = tr.AddFile(path.MustParse("/a"), b, b)
	require.NoError(t, err)

	h, err := tr.GetStorageHandle(path.MustParse("/a"))
	require.NoError(t, err)
	assert.True(t, h.Equal(b))
}

func TestGetHandleFailsOnDirectory(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/b/c"), a, a)
	require.NoError(t, err)

	_, err = tr.GetStorageHandle(path.MustParse("/b"))
	assert.True(t, errs.Is(errs.NotExist, err))
}

func TestParentExists(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/b/c"), a, a)
	require.NoError(t, err)

	assert.True(t, tr.ParentExists(path.MustParse("/b/x")))
	assert.False(t, tr.ParentExists(path.MustParse("/missing/x")))
	assert.False(t, tr.ParentExists(path.Root))
}

func TestCreateThroughExistingFileFails(t *testing.T) {
	tr := New()
	a := stub("A:1")
	_, err := tr.AddFile(path.MustParse("/a"), a, a)
	require.NoError(t, err)

	_, err = tr.AddFile(path.MustParse("/a/b"), a, a)
	assert.Error(t, err)
}
