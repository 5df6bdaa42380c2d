package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aijournal/journal-api/internal/core/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func blobOf(seq int64, records ...string) *domain.Blob {
	b := &domain.Blob{Version: domain.BlobVersion, Sequence: seq}
	for _, r := range records {
		b.Records = append(b.Records, json.RawMessage(r))
	}
	return b
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestReadCollection_MissingFileIsEmpty(t *testing.T) {
	s := openTemp(t)

	blob, err := s.ReadCollection(context.Background(), "entries")
	require.NoError(t, err)
	require.Empty(t, blob.Records)
	require.Zero(t, blob.Sequence)
}

func TestWriteThenRead(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCollection(ctx, "entries", blobOf(2, `{"id":1}`, `{"id":2}`)))

	blob, err := s.ReadCollection(ctx, "entries")
	require.NoError(t, err)
	require.Equal(t, int64(2), blob.Sequence)
	require.Len(t, blob.Records, 2)
	require.JSONEq(t, `{"id":2}`, string(blob.Records[1]))

	// No temporary files are left behind.
	files, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "entries.json", files[0].Name())
}

func TestWriteCollection_ReplacesWholeBlob(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCollection(ctx, "users", blobOf(3, `{"id":1}`, `{"id":2}`, `{"id":3}`)))
	require.NoError(t, s.WriteCollection(ctx, "users", blobOf(3, `{"id":2}`)))

	blob, err := s.ReadCollection(ctx, "users")
	require.NoError(t, err)
	require.Len(t, blob.Records, 1)
	require.Equal(t, int64(3), blob.Sequence)
}

func TestReadCollection_LegacyArray(t *testing.T) {
	s := openTemp(t)
	legacy := `[{"id":4,"userId":1,"text":"old","date":"2024-01-02T03:04:05.000Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "entries.json"), []byte(legacy), 0o600))

	blob, err := s.ReadCollection(context.Background(), "entries")
	require.NoError(t, err)
	require.Equal(t, int64(4), blob.Sequence)
	require.Len(t, blob.Records, 1)
}

func TestReadCollection_CorruptIsFormatError(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "entries.json"), []byte(`{"version":1,"records":[`), 0o600))

	_, err := s.ReadCollection(context.Background(), "entries")
	require.ErrorIs(t, err, domain.ErrStorageFormat)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "entries", se.Collection)
}

func TestReadCollection_UnreadableIsIOError(t *testing.T) {
	s := openTemp(t)
	// A directory where the file should be cannot be read as a file.
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "entries.json"), 0o750))

	_, err := s.ReadCollection(context.Background(), "entries")
	require.ErrorIs(t, err, domain.ErrStorageIO)
}

func TestInvalidCollectionName(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, name := range []string{"", "../etc", "Users", "a/b"} {
		_, err := s.ReadCollection(ctx, name)
		require.ErrorIs(t, err, domain.ErrStorageIO, name)
		require.ErrorIs(t, s.WriteCollection(ctx, name, domain.NewBlob()), domain.ErrStorageIO, name)
	}
}

func TestClose(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	_, err := s.ReadCollection(ctx, "entries")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.WriteCollection(ctx, "entries", domain.NewBlob()), ErrClosed)
	require.ErrorIs(t, s.Ping(ctx), ErrClosed)
}

func TestCanceledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.WriteCollection(ctx, "entries", domain.NewBlob()), context.Canceled)
}

func TestConcurrentReadersSeeCompleteBlobs(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.WriteCollection(ctx, "entries", blobOf(0)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 50; i++ {
			records := make([]string, 0, i)
			for j := int64(1); j <= i; j++ {
				records = append(records, `{"id":1,"text":"padding padding padding"}`)
			}
			_ = s.WriteCollection(ctx, "entries", blobOf(i, records...))
		}
	}()

	for i := 0; i < 200; i++ {
		blob, err := s.ReadCollection(ctx, "entries")
		require.NoError(t, err)
		require.Len(t, blob.Records, int(blob.Sequence))
	}
	wg.Wait()
}

func TestWriteCollection_DirSyncFailureAfterCommit(t *testing.T) {
	s := openTemp(t)
	s.syncDir = func(string) error { return errors.New("sync: input/output error") }
	ctx := context.Background()

	err := s.WriteCollection(ctx, "entries", blobOf(1, `{"id":1}`))
	require.NoError(t, err, "a committed blob must not be reported as failed")

	got, err := s.ReadCollection(ctx, "entries")
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	require.JSONEq(t, `{"id":1}`, string(got.Records[0]))
}
