package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/domain"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"file":   fs,
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ref, err := domain.AnswerArtifactRef(7)
			require.NoError(t, err)

			exists, err := store.Exists(ctx, ref)
			require.NoError(t, err)
			assert.False(t, exists)

			_, err = store.Get(ctx, ref)
			require.ErrorIs(t, err, ErrArtifactNotFound)

			put, err := store.Put(ctx, "玉山", domain.ArtifactAnswer, ref.Key)
			require.NoError(t, err)
			assert.Equal(t, "7.txt", put.Key)
			assert.Equal(t, int64(len("玉山")), put.Size)
			assert.Equal(t, domain.ArtifactAnswer, put.Kind)
			require.NoError(t, put.Validate())

			got, err := store.Get(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, "玉山", got)

			_, err = store.Put(ctx, "雪山", domain.ArtifactAnswer, ref.Key)
			require.NoError(t, err)
			got, err = store.Get(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, "雪山", got, "put replaces content")

			require.NoError(t, store.Delete(ctx, ref))
			require.NoError(t, store.Delete(ctx, ref), "delete is idempotent")
			exists, err = store.Exists(ctx, ref)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestStore_EmptyKey(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Put(ctx, "x", domain.ArtifactAnswer, "")
			require.ErrorIs(t, err, ErrArtifactKeyEmpty)
			_, err = store.Get(ctx, domain.ArtifactRef{})
			require.ErrorIs(t, err, ErrArtifactKeyEmpty)
			_, err = store.Exists(ctx, domain.ArtifactRef{})
			require.ErrorIs(t, err, ErrArtifactKeyEmpty)
			require.ErrorIs(t, store.Delete(ctx, domain.ArtifactRef{}), ErrArtifactKeyEmpty)
		})
	}
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape.txt", "a/b.txt", "..", "."} {
		_, err := store.Put(context.Background(), "x", domain.ArtifactAnswer, key)
		require.ErrorIs(t, err, ErrArtifactKeyInvalid, key)
	}
}

func TestFileStore_WritesFileAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "answer text", domain.ArtifactAnswer, "1.txt")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.txt", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "answer text", string(data))
}

func TestFileStore_ConcurrentPuts(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, _ := domain.AnswerArtifactRef(i)
			_, err := store.Put(context.Background(), ref.Key, domain.ArtifactAnswer, ref.Key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 1; i <= 20; i++ {
		ref, _ := domain.AnswerArtifactRef(i)
		got, err := store.Get(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, ref.Key, got)
	}
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestInMemoryStore_Len(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Put(context.Background(), "a", domain.ArtifactAnswer, "1.txt")
	_, _ = s.Put(context.Background(), "b", domain.ArtifactAnswer, "2.txt")
	assert.Equal(t, 2, s.Len())
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.txt")
	require.NoError(t, WriteFileAtomic(path, []byte("a\nb\n")))
	require.NoError(t, WriteFileAtomic(path, []byte("c\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(data))

	err = WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "x.txt"), []byte("x"))
	require.Error(t, err)
}
