package registry

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

var pebbleKeyPrefix = []byte("coil/registry/")

// PebbleStore keeps many registries in a Pebble database, one per key.
// It is safe for concurrent use.
type PebbleStore struct {
	db      *pebble.DB
	ownsDB  bool
	persist []PersistOption
}

// OpenPebbleStore opens (or creates) a Pebble database at path. The store
// owns the database and closes it on Close.
func OpenPebbleStore(path string, opts *pebble.Options, persist ...PersistOption) (*PebbleStore, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open registry database %s", path)
	}

	s := NewPebbleStore(db, persist...)
	s.ownsDB = true

	return s, nil
}

// NewPebbleStore wraps an open database. Registries are written as compact
// JSON unless persist options say otherwise.
func NewPebbleStore(db *pebble.DB, persist ...PersistOption) *PebbleStore {
	opts := append([]PersistOption{WithIndent("")}, persist...)

	return &PebbleStore{db: db, persist: opts}
}

func pebbleKey(key string) []byte {
	k := make([]byte, 0, len(pebbleKeyPrefix)+len(key))
	k = append(k, pebbleKeyPrefix...)

	return append(k, key...)
}

// Put stores reg under key.
func (s *PebbleStore) Put(ctx context.Context, key string, reg *Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(reg, s.persist...)
	if err != nil {
		return err
	}

	return errors.Wrapf(s.db.Set(pebbleKey(key), data, pebble.Sync), "store registry %s", key)
}

// Get returns the registry stored under key, or ErrNotFound.
func (s *PebbleStore) Get(ctx context.Context, key string) (*Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, closer, err := s.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read registry %s", key)
	}
	defer closer.Close()

	return Unmarshal(data)
}

// Delete removes the registry stored under key.
func (s *PebbleStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return errors.Wrapf(s.db.Delete(pebbleKey(key), pebble.Sync), "delete registry %s", key)
}

// Session returns a Store bound to one key.
func (s *PebbleStore) Session(key string) Store {
	return &pebbleSession{store: s, key: key}
}

// Close closes the database if the store opened it.
func (s *PebbleStore) Close() error {
	if !s.ownsDB {
		return nil
	}

	return s.db.Close()
}

type pebbleSession struct {
	store *PebbleStore
	key   string
}

func (p *pebbleSession) Save(ctx context.Context, reg *Registry) error {
	return p.store.Put(ctx, p.key, reg)
}

func (p *pebbleSession) Load(ctx context.Context) (*Registry, error) {
	return p.store.Get(ctx, p.key)
}
