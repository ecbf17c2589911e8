package registry

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/compress"
	"github.com/arloliu/coil/errs"
)

// ErrNotFound is returned by a Store that holds no registry yet. It wraps
// errs.ErrRegistryUnavailable.
var ErrNotFound = errors.Wrap(errs.ErrRegistryUnavailable, "registry not found")

// Store persists the registry that travels alongside one encoded payload.
type Store interface {
	Save(ctx context.Context, reg *Registry) error
	Load(ctx context.Context) (*Registry, error)
}

// FileStore keeps a registry in a sidecar file.
type FileStore struct {
	path string
	opts []PersistOption
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by path. opts apply to every Save.
func NewFileStore(path string, opts ...PersistOption) *FileStore {
	if path == "" {
		path = DefaultFileName
	}

	return &FileStore{path: path, opts: opts}
}

// Path returns the sidecar file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, reg *Registry) error {
	_, err := s.SaveWithStats(ctx, reg)
	return err
}

// SaveWithStats is Save reporting the size of the written file.
func (s *FileStore) SaveWithStats(ctx context.Context, reg *Registry) (compress.Stats, error) {
	if err := ctx.Err(); err != nil {
		return compress.Stats{}, err
	}

	return SaveFileWithStats(s.path, reg, s.opts...)
}

// Load implements Store. A missing file yields ErrNotFound.
func (s *FileStore) Load(ctx context.Context) (*Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "%s", s.path)
	}

	return LoadFile(s.path)
}

// MemoryStore keeps a copy of the last saved registry in memory.
type MemoryStore struct {
	mu  sync.RWMutex
	reg *Registry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, reg *Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.reg = reg.Clone()
	s.mu.Unlock()

	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) (*Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reg == nil {
		return nil, ErrNotFound
	}

	return s.reg.Clone(), nil
}
