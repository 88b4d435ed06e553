package directoryservice_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/directoryservice"
)

// fakePutStream feeds a fixed list of directories into
// DirectoryService.Put and captures the response.
type fakePutStream struct {
	grpc.ServerStream

	directories []*castorev1.Directory
	resp        *castorev1.PutDirectoryResponse
}

func (s *fakePutStream) Recv() (*castorev1.Directory, error) {
	if len(s.directories) == 0 {
		return nil, io.EOF
	}
	directory := s.directories[0]
	s.directories = s.directories[1:]
	return directory, nil
}

func (s *fakePutStream) SendAndClose(resp *castorev1.PutDirectoryResponse) error {
	s.resp = resp
	return nil
}

// fakeGetStream collects the directories DirectoryService.Get sends.
type fakeGetStream struct {
	grpc.ServerStream

	sent []*castorev1.Directory
}

func (s *fakeGetStream) Send(directory *castorev1.Directory) error {
	s.sent = append(s.sent, directory)
	return nil
}

func mustDigest(d *castorev1.Directory) []byte {
	dgst, err := d.Digest()
	if err != nil {
		panic(err)
	}
	return dgst
}

// diamond returns the four directories of a diamond-shaped graph:
// A -> B, A -> C, B -> D, C -> D.
func diamond() (a, b, c, d *castorev1.Directory) {
	d = &castorev1.Directory{
		Symlinks: []*castorev1.SymlinkNode{{Name: []byte("self"), Target: []byte(".")}},
	}
	b = &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{{Name: []byte("d"), Digest: mustDigest(d), Size: d.Size()}},
	}
	c = &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{{Name: []byte("d"), Digest: mustDigest(d), Size: d.Size()}},
		Files:       []*castorev1.FileNode{{Name: []byte("f"), Digest: make([]byte, 32), Size: 1}},
	}
	a = &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{
			{Name: []byte("b"), Digest: mustDigest(b), Size: b.Size()},
			{Name: []byte("c"), Digest: mustDigest(c), Size: c.Size()},
		},
	}
	return a, b, c, d
}

func TestPut(t *testing.T) {
	t.Run("leaves first", func(t *testing.T) {
		srv := directoryservice.NewGRPCServer(directoryservice.NewMemoryStore())
		a, b, c, d := diamond()

		stream := &fakePutStream{directories: []*castorev1.Directory{d, b, c, a}}
		require.NoError(t, srv.Put(stream))
		require.NotNil(t, stream.resp)
		assert.Equal(t, mustDigest(a), stream.resp.GetRootDigest())
	})

	t.Run("dangling reference", func(t *testing.T) {
		store := directoryservice.NewMemoryStore()
		srv := directoryservice.NewGRPCServer(store)
		a, _, _, _ := diamond()

		// sending the root without its children is an error, and must
		// not leave anything visible.
		stream := &fakePutStream{directories: []*castorev1.Directory{a}}
		err := srv.Put(stream)
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.False(t, store.Has(mustDigest(a)))
	})

	t.Run("invalid directory", func(t *testing.T) {
		store := directoryservice.NewMemoryStore()
		srv := directoryservice.NewGRPCServer(store)

		unsorted := &castorev1.Directory{
			Files: []*castorev1.FileNode{
				{Name: []byte("b"), Digest: make([]byte, 32), Size: 1},
				{Name: []byte("a"), Digest: make([]byte, 32), Size: 1},
			},
		}
		valid := &castorev1.Directory{}

		// the whole transaction is atomic: the valid directory sent
		// before the invalid one must not become visible either.
		stream := &fakePutStream{directories: []*castorev1.Directory{valid, unsorted}}
		err := srv.Put(stream)
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.False(t, store.Has(mustDigest(valid)))
	})

	t.Run("empty stream", func(t *testing.T) {
		srv := directoryservice.NewGRPCServer(directoryservice.NewMemoryStore())

		err := srv.Put(&fakePutStream{})
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("referencing preexisting directory", func(t *testing.T) {
		store := directoryservice.NewMemoryStore()
		srv := directoryservice.NewGRPCServer(store)
		a, b, c, d := diamond()

		// upload the leaf on its own first.
		stream := &fakePutStream{directories: []*castorev1.Directory{d}}
		require.NoError(t, srv.Put(stream))

		// a second stream may refer to it without re-sending it.
		stream = &fakePutStream{directories: []*castorev1.Directory{b, c, a}}
		require.NoError(t, srv.Put(stream))
		assert.Equal(t, mustDigest(a), stream.resp.GetRootDigest())
	})
}

func TestGet(t *testing.T) {
	setup := func(t *testing.T) (*directoryservice.GRPCServer, *castorev1.Directory, *castorev1.Directory, *castorev1.Directory, *castorev1.Directory) {
		srv := directoryservice.NewGRPCServer(directoryservice.NewMemoryStore())
		a, b, c, d := diamond()
		stream := &fakePutStream{directories: []*castorev1.Directory{d, b, c, a}}
		require.NoError(t, srv.Put(stream))
		return srv, a, b, c, d
	}

	t.Run("non-recursive", func(t *testing.T) {
		srv, a, _, _, _ := setup(t)

		stream := &fakeGetStream{}
		require.NoError(t, srv.Get(&castorev1.GetDirectoryRequest{
			ByWhat: &castorev1.GetDirectoryRequest_Digest{Digest: mustDigest(a)},
		}, stream))
		require.Len(t, stream.sent, 1)
		assert.Equal(t, mustDigest(a), mustDigest(stream.sent[0]))
	})

	t.Run("recursive diamond", func(t *testing.T) {
		srv, a, _, _, d := setup(t)

		stream := &fakeGetStream{}
		require.NoError(t, srv.Get(&castorev1.GetDirectoryRequest{
			ByWhat:    &castorev1.GetDirectoryRequest_Digest{Digest: mustDigest(a)},
			Recursive: true,
		}, stream))

		// the shared leaf appears exactly once, so the diamond closure
		// has 4 messages, not 5.
		require.Len(t, stream.sent, 4)

		// the leaf comes first, the root last, and every referenced
		// digest has been sent before the directory referencing it.
		assert.Equal(t, mustDigest(d), mustDigest(stream.sent[0]))
		assert.Equal(t, mustDigest(a), mustDigest(stream.sent[3]))

		sentSoFar := make(map[string]struct{})
		for _, directory := range stream.sent {
			for _, childNode := range directory.GetDirectories() {
				_, found := sentSoFar[string(childNode.GetDigest())]
				assert.True(t, found, "referenced directory must have been sent earlier")
			}
			sentSoFar[string(mustDigest(directory))] = struct{}{}
		}
	})

	t.Run("not found", func(t *testing.T) {
		srv, _, _, _, _ := setup(t)

		err := srv.Get(&castorev1.GetDirectoryRequest{
			ByWhat: &castorev1.GetDirectoryRequest_Digest{Digest: make([]byte, 32)},
		}, &fakeGetStream{})
		require.Error(t, err)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("invalid digest", func(t *testing.T) {
		srv, _, _, _, _ := setup(t)

		err := srv.Get(&castorev1.GetDirectoryRequest{
			ByWhat: &castorev1.GetDirectoryRequest_Digest{Digest: []byte{0x01}},
		}, &fakeGetStream{})
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
