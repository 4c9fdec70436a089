package naming

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsfs.io/errs"
	p "nsfs.io/path"
	"nsfs.io/rpc"
	"nsfs.io/storageserver"
	"nsfs.io/wire"
)

func startNaming(t *testing.T) *Server {
	t.Helper()
	s := New("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func startStorage(t *testing.T, root string, registrationAddr rpc.Address) *storageserver.Server {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	s := storageserver.New(root)
	require.NoError(t, s.Start("127.0.0.1", registrationAddr))
	t.Cleanup(s.Stop)
	return s
}

func writeLocalFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, nil, 0o644))
}

func TestS1RegisterAndList(t *testing.T) {
	ns := startNaming(t)
	root := t.TempDir()
	writeLocalFile(t, root, "/a")
	writeLocalFile(t, root, "/b/c")
	writeLocalFile(t, root, "/b/d")
	startStorage(t, root, ns.RegistrationAddr)

	names, err := ns.List(p.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = ns.List(p.MustParse("/b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, names)

	isDir, err := ns.IsDirectory(p.MustParse("/b"))
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = ns.IsDirectory(p.MustParse("/a"))
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestS2DuplicateRegistration(t *testing.T) {
	ns := startNaming(t)
	rootA := t.TempDir()
	writeLocalFile(t, rootA, "/a")
	writeLocalFile(t, rootA, "/b/c")
	writeLocalFile(t, rootA, "/b/d")
	a := startStorage(t, rootA, ns.RegistrationAddr)

	rootB := t.TempDir()
	writeLocalFile(t, rootB, "/a")
	writeLocalFile(t, rootB, "/e")
	startStorage(t, rootB, ns.RegistrationAddr)

	storageA, err := ns.GetStorage(p.MustParse("/a"))
	require.NoError(t, err)
	assert.True(t, storageA.Equal(a.ByteStub))

	_, err = ns.GetStorage(p.MustParse("/e"))
	require.NoError(t, err)
}

func TestS3CreateWithMissingParent(t *testing.T) {
	ns := startNaming(t)

	_, err := ns.CreateFile(p.MustParse("/x/y"))
	assert.True(t, errs.Is(errs.NotExist, err))

	root := t.TempDir()
	startStorage(t, root, ns.RegistrationAddr)

	ok, err := ns.CreateDirectory(p.MustParse("/x"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ns.CreateFile(p.MustParse("/x/y"))
	require.NoError(t, err)
	assert.True(t, ok)

	h, err := ns.GetStorage(p.MustParse("/x/y"))
	require.NoError(t, err)
	assert.False(t, h.IsZero())
}

func TestCreateFileIsIdempotent(t *testing.T) {
	ns := startNaming(t)
	root := t.TempDir()
	startStorage(t, root, ns.RegistrationAddr)

	ok, err := ns.CreateFile(p.MustParse("/f"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ns.CreateFile(p.MustParse("/f"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS4DeleteSubtree(t *testing.T) {
	ns := startNaming(t)
	root := t.TempDir()
	writeLocalFile(t, root, "/a")
	writeLocalFile(t, root, "/b/c")
	writeLocalFile(t, root, "/b/d")
	startStorage(t, root, ns.RegistrationAddr)

	ok, err := ns.Delete(p.MustParse("/b"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.False(t, isPresent(t, ns, "/b"))
	assert.False(t, isPresent(t, ns, "/b/c"))

	_, err = os.Stat(filepath.Join(root, "b"))
	assert.True(t, os.IsNotExist(err))
}

func isPresent(t *testing.T, ns *Server, path string) bool {
	t.Helper()
	_, err := ns.IsDirectory(p.MustParse(path))
	return err == nil
}

func TestS5ByteIOBounds(t *testing.T) {
	ns := startNaming(t)
	root := t.TempDir()
	startStorage(t, root, ns.RegistrationAddr)

	ok, err := ns.CreateFile(p.MustParse("/f"))
	require.NoError(t, err)
	require.True(t, ok)

	h, err := ns.GetStorage(p.MustParse("/f"))
	require.NoError(t, err)

	var n int64
	require.NoError(t, h.Call("Write", wire.WriteArgs{Path: p.MustParse("/f"), Offset: 0, Data: []byte{1, 2, 3}}, nil))
	require.NoError(t, h.Call("Size", p.MustParse("/f"), &n))
	assert.Equal(t, int64(3), n)

	require.NoError(t, h.Call("Write", wire.WriteArgs{Path: p.MustParse("/f"), Offset: 3, Data: []byte{4, 5}}, nil))
	require.NoError(t, h.Call("Size", p.MustParse("/f"), &n))
	assert.Equal(t, int64(5), n)

	var data []byte
	require.NoError(t, h.Call("Read", wire.ReadArgs{Path: p.MustParse("/f"), Offset: 0, Length: 5}, &data))
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, data)

	err = h.Call("Read", wire.ReadArgs{Path: p.MustParse("/f"), Offset: 0, Length: 11}, &data)
	assert.True(t, errs.Is(errs.OutOfRange, err))

	err = h.Call("Read", wire.ReadArgs{Path: p.MustParse("/f"), Offset: -1, Length: 1}, &data)
	assert.True(t, errs.Is(errs.OutOfRange, err))
}

func TestS6TransportErrorSurfacesDistinctly(t *testing.T) {
	ns := startNaming(t)
	root := t.TempDir()
	writeLocalFile(t, root, "/a")
	storage := startStorage(t, root, ns.RegistrationAddr)

	storage.Stop()
	time.Sleep(50 * time.Millisecond)

	ok, err := ns.Delete(p.MustParse("/a"))
	require.NoError(t, err)
	assert.False(t, ok, "a transport failure on the remote delete must surface as false, not NotExist")
}
