package storageserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsfs.io/errs"
	p "nsfs.io/path"
	"nsfs.io/rpc"
)

// fakeRegistrar stands in for a naming server's registration interface so
// storageserver tests can exercise Start's registration handshake without
// pulling in the naming package (which itself depends on storageserver in
// its own tests, but not the other way around — this keeps the dependency
// one-directional).
type fakeRegistrar struct {
	gotPaths []p.Path
	toDelete []p.Path
}

func (f *fakeRegistrar) methods() rpc.Methods {
	return rpc.Methods{
		"Register": {
			NewArgs: func() interface{} { return new(registerArgs) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				a := args.(*registerArgs)
				f.gotPaths = a.Paths
				return f.toDelete, nil
			},
		},
	}
}

// registerArgs mirrors wire.RegisterArgs's shape locally so this test fixture
// need not import wire just to decode what the real Server.Start sends;
// fields and wire encoding are identical since wire.RegisterArgs carries no
// custom Gob methods of its own.
type registerArgs struct {
	Storage rpc.Stub
	Command rpc.Stub
	Paths   []p.Path
}

func startFakeRegistrar(t *testing.T, f *fakeRegistrar) rpc.Address {
	t.Helper()
	sk, err := rpc.NewSkeleton("naming.Registration", f.methods(), f, "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, sk.Start())
	t.Cleanup(func() { sk.Stop() })
	return sk.Addr()
}

func TestStartRegistersLocalFilesAndReconciles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "dup"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "keep"), nil, 0o644))

	f := &fakeRegistrar{toDelete: []p.Path{p.MustParse("/b/dup")}}
	regAddr := startFakeRegistrar(t, f)

	s := New(root)
	require.NoError(t, s.Start("127.0.0.1", regAddr))
	t.Cleanup(s.Stop)

	assert.ElementsMatch(t, []p.Path{p.MustParse("/a"), p.MustParse("/b/dup"), p.MustParse("/b/keep")}, f.gotPaths)

	_, err := os.Stat(filepath.Join(root, "b", "dup"))
	assert.True(t, os.IsNotExist(err), "a path the registrar reports as a duplicate must be deleted locally")

	_, err = os.Stat(filepath.Join(root, "b", "keep"))
	assert.NoError(t, err, "a path the registrar does not report as a duplicate must survive")

	assert.False(t, s.ByteStub.IsZero())
	assert.False(t, s.CommandStub.IsZero())
}

func TestStartPrunesDirectoryEmptiedByReconcile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "only"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "only", "dup"), nil, 0o644))

	f := &fakeRegistrar{toDelete: []p.Path{p.MustParse("/only/dup")}}
	regAddr := startFakeRegistrar(t, f)

	s := New(root)
	require.NoError(t, s.Start("127.0.0.1", regAddr))
	t.Cleanup(s.Stop)

	_, err := os.Stat(filepath.Join(root, "only"))
	assert.True(t, os.IsNotExist(err), "an ancestor directory left empty by reconciliation must be pruned")
}

func TestStartFailsOnMissingRoot(t *testing.T) {
	f := &fakeRegistrar{}
	regAddr := startFakeRegistrar(t, f)

	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	err := s.Start("127.0.0.1", regAddr)
	assert.True(t, errs.Is(errs.NotExist, err))
}

func TestCreateThenByteIO(t *testing.T) {
	root := t.TempDir()
	f := &fakeRegistrar{}
	regAddr := startFakeRegistrar(t, f)

	s := New(root)
	require.NoError(t, s.Start("127.0.0.1", regAddr))
	t.Cleanup(s.Stop)

	ok, err := s.Create(p.MustParse("/f"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Create(p.MustParse("/f"))
	require.NoError(t, err)
	assert.False(t, ok, "creating an already-existing file must be a no-op")

	n, err := s.Size(p.MustParse("/f"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Write(p.MustParse("/f"), 0, []byte{1, 2, 3}))
	n, err = s.Size(p.MustParse("/f"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.Write(p.MustParse("/f"), 3, []byte{4, 5}))
	n, err = s.Size(p.MustParse("/f"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	data, err := s.Read(p.MustParse("/f"), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, data)

	_, err = s.Read(p.MustParse("/f"), 0, 6)
	assert.True(t, errs.Is(errs.OutOfRange, err))

	_, err = s.Read(p.MustParse("/f"), -1, 1)
	assert.True(t, errs.Is(errs.OutOfRange, err))

	ok, err = s.Delete(p.MustParse("/f"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Size(p.MustParse("/f"))
	assert.True(t, errs.Is(errs.NotExist, err))
}

func TestCreateRootIsNoop(t *testing.T) {
	root := t.TempDir()
	f := &fakeRegistrar{}
	regAddr := startFakeRegistrar(t, f)

	s := New(root)
	require.NoError(t, s.Start("127.0.0.1", regAddr))
	t.Cleanup(s.Stop)

	ok, err := s.Create(p.Root)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete(p.Root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadFailsOnDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d"), 0o755))

	f := &fakeRegistrar{}
	regAddr := startFakeRegistrar(t, f)

	s := New(root)
	require.NoError(t, s.Start("127.0.0.1", regAddr))
	t.Cleanup(s.Stop)

	_, err := s.Read(p.MustParse("/d"), 0, 0)
	assert.True(t, errs.Is(errs.NotExist, err))
}
