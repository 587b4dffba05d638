package memstore

import (
	"bytes"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"sync/atomic"
	"time"
)

// entry is the stored state of one key. Entries are immutable and replaced as a whole.
type entry struct {
	index    uint64 // write index of the last write, encoded as the vclock
	siblings []store.Content
}

type keyMap = xsync.MapOf[string, entry]

type storeImpl struct {
	buckets  *xsync.MapOf[string, *keyMap]
	index    atomic.Uint64
	clientID atomic.Pointer[[]byte]
	info     store.ServerInfo
	now      func() time.Time
}

// NewMemStore creates a new in-memory store instance.
// This store is not persistent and only lives as long as the process; it backs
// the development server.
func NewMemStore(info store.ServerInfo) store.IStore {
	return newMemStore(info, time.Now)
}

func newMemStore(info store.ServerInfo, now func() time.Time) *storeImpl {
	return &storeImpl{
		buckets: xsync.NewMapOf[string, *keyMap](),
		info:    info,
		now:     now,
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique version.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Ping() error {
	return nil
}

func (s *storeImpl) ServerInfo() (store.ServerInfo, error) {
	return s.info, nil
}

func (s *storeImpl) ClientID() ([]byte, error) {
	id := s.clientID.Load()
	if id == nil {
		return nil, nil
	}
	return bytes.Clone(*id), nil
}

func (s *storeImpl) SetClientID(id []byte) error {
	if len(id) == 0 {
		return store.NewError(store.RetCInvalidOperation, "client id must not be empty")
	}
	id = bytes.Clone(id)
	s.clientID.Store(&id)
	return nil
}

func (s *storeImpl) Get(bucket, key string) (*store.Object, bool, error) {
	if err := validate(bucket, key); err != nil {
		return nil, false, err
	}

	keys, ok := s.buckets.Load(bucket)
	if !ok {
		return nil, false, nil
	}
	e, ok := keys.Load(key)
	if !ok {
		return nil, false, nil
	}

	siblings := make([]store.Content, len(e.siblings))
	copy(siblings, e.siblings)

	return &store.Object{
		Bucket:   bucket,
		Key:      key,
		VClock:   store.EncodeVClock(e.index),
		Siblings: siblings,
	}, true, nil
}

func (s *storeImpl) Put(bucket, key string, vclock []byte, content store.Content) ([]byte, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}

	keys, _ := s.buckets.LoadOrCompute(bucket, func() *keyMap {
		return xsync.NewMapOf[string, entry]()
	})

	content.Value = bytes.Clone(content.Value)
	content.LastModified = s.now().UnixNano()

	written, _ := keys.Compute(key, func(old entry, loaded bool) (entry, bool) {
		idx := s.incAndGetIndex()

		// A write that saw the current version replaces every sibling
		if current, ok := store.DecodeVClock(vclock); !loaded || (ok && current == old.index) {
			return entry{index: idx, siblings: []store.Content{content}}, false
		}

		// Otherwise the write is concurrent to the stored ones and becomes a sibling
		siblings := make([]store.Content, 0, len(old.siblings)+1)
		siblings = append(siblings, old.siblings...)
		siblings = append(siblings, content)
		return entry{index: idx, siblings: siblings}, false
	})

	return store.EncodeVClock(written.index), nil
}

func (s *storeImpl) Delete(bucket, key string, _ []byte) error {
	if err := validate(bucket, key); err != nil {
		return err
	}
	if keys, ok := s.buckets.Load(bucket); ok {
		keys.Delete(key)
	}
	return nil
}

func (s *storeImpl) ListBuckets() ([]string, error) {
	buckets := make([]string, 0, s.buckets.Size())
	s.buckets.Range(func(name string, keys *keyMap) bool {
		if keys.Size() > 0 {
			buckets = append(buckets, name)
		}
		return true
	})
	sort.Strings(buckets)
	return buckets, nil
}

func (s *storeImpl) ListKeys(bucket string) ([]string, error) {
	if bucket == "" {
		return nil, store.NewError(store.RetCInvalidOperation, "bucket must not be empty")
	}

	keys, ok := s.buckets.Load(bucket)
	if !ok {
		return []string{}, nil
	}

	result := make([]string, 0, keys.Size())
	keys.Range(func(key string, _ entry) bool {
		result = append(result, key)
		return true
	})
	sort.Strings(result)
	return result, nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func validate(bucket, key string) error {
	if bucket == "" {
		return store.NewError(store.RetCInvalidOperation, "bucket must not be empty")
	}
	if key == "" {
		return store.NewError(store.RetCInvalidOperation, "key must not be empty")
	}
	return nil
}
