// Package file implements the document store on the local filesystem, one
// JSON file per collection.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/infrastructure/db/document"
	"github.com/aijournal/journal-api/pkg/metrics"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("file store: closed")

	validName = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)
)

// Store keeps each collection in <dir>/<name>.json. Writes go to a temporary
// file in the same directory which is synced and renamed over the target, so
// a reader sees either the previous or the new blob, never a mix.
type Store struct {
	dir     string
	closed  atomic.Bool
	logger  zerolog.Logger
	syncDir func(dir string) error
}

// Open prepares dir for use, creating it if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("file store: empty data directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: zerolog.Nop(), syncDir: syncDir}, nil
}

// WithLogger sets the logger used for failures that do not fail the call.
func (s *Store) WithLogger(logger zerolog.Logger) *Store {
	s.logger = logger
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) check(op, name string) error {
	if s.closed.Load() {
		return &domain.StorageError{Op: op, Collection: name, Kind: domain.ErrStorageIO, Err: ErrClosed}
	}
	if !validName.MatchString(name) {
		return &domain.StorageError{Op: op, Collection: name, Kind: domain.ErrStorageIO, Err: fmt.Errorf("invalid collection name %q", name)}
	}
	return nil
}

// ReadCollection implements ports.DocumentStore. A missing file is an empty
// collection.
func (s *Store) ReadCollection(ctx context.Context, name string) (*domain.Blob, error) {
	if err := s.check("read", name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewBlob(), nil
	}
	if err != nil {
		return nil, s.fail("read", name, domain.ErrStorageIO, err)
	}

	blob, err := document.DecodeBlob(data)
	if err != nil {
		return nil, s.fail("read", name, domain.ErrStorageFormat, err)
	}
	return blob, nil
}

// WriteCollection implements ports.DocumentStore. The blob is on disk when
// it returns; an error means the previous blob is still in place.
func (s *Store) WriteCollection(ctx context.Context, name string, blob *domain.Blob) error {
	if err := s.check("write", name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := document.EncodeBlob(blob)
	if err != nil {
		return s.fail("write", name, domain.ErrStorageFormat, err)
	}
	if err := s.replace(name, data); err != nil {
		return s.fail("write", name, domain.ErrStorageIO, err)
	}
	return nil
}

func (s *Store) replace(name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), s.path(name)); err != nil {
		return err
	}

	// The rename committed the blob; a failed directory sync is logged, not returned.
	if serr := s.syncDir(s.dir); serr != nil {
		s.logger.Warn().Err(serr).Str("collection", name).Msg("data directory sync failed after commit")
	}
	return nil
}

// syncDir makes the rename itself durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}

func (s *Store) fail(op, name string, kind, err error) error {
	k := "io"
	if errors.Is(kind, domain.ErrStorageFormat) {
		k = "format"
	}
	metrics.StoreOperationErrorsTotal.WithLabelValues(op, k).Inc()
	return &domain.StorageError{Op: op, Collection: name, Kind: kind, Err: err}
}

// Ping reports whether the data directory is still usable.
func (s *Store) Ping(context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Close marks the store closed. It is safe to call more than once.
func (s *Store) Close(context.Context) error {
	s.closed.Store(true)
	return nil
}
