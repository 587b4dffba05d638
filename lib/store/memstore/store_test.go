package memstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serialkv/lib/store"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fixedClock returns strictly increasing times so LastModified is predictable
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Unix(1700000000, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore() *storeImpl {
	return newMemStore(store.ServerInfo{Node: "test", ServerVersion: "dev"}, fixedClock())
}

func TestPutGet(t *testing.T) {
	s := newTestStore()

	vclock, err := s.Put("users", "alice", nil, store.Content{Value: []byte("v1"), ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	obj, found, err := s.Get("users", "alice")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(obj.VClock, vclock) {
		t.Errorf("vclock mismatch: put returned %x, get returned %x", vclock, obj.VClock)
	}
	if len(obj.Siblings) != 1 || string(obj.Siblings[0].Value) != "v1" || obj.Siblings[0].ContentType != "text/plain" {
		t.Errorf("unexpected siblings: %+v", obj.Siblings)
	}
	if obj.Siblings[0].LastModified == 0 {
		t.Error("last modified was not set")
	}

	if _, found, _ := s.Get("users", "bob"); found {
		t.Error("found a key that was never written")
	}
	if _, found, _ := s.Get("nope", "alice"); found {
		t.Error("found a key in a bucket that does not exist")
	}
}

func TestSiblings(t *testing.T) {
	tests := []struct {
		name         string
		vclock       func(first []byte) []byte
		wantSiblings []string
	}{
		{"current vclock replaces", func(first []byte) []byte { return first }, []string{"b"}},
		{"missing vclock adds a sibling", func([]byte) []byte { return nil }, []string{"a", "b"}},
		{"stale vclock adds a sibling", func([]byte) []byte { return store.EncodeVClock(0) }, []string{"a", "b"}},
		{"foreign vclock adds a sibling", func([]byte) []byte { return []byte("x") }, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			first, _ := s.Put("b", "k", nil, store.Content{Value: []byte("a")})
			second, err := s.Put("b", "k", tt.vclock(first), store.Content{Value: []byte("b")})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if reflect.DeepEqual(first, second) {
				t.Fatal("vclock did not change on write")
			}

			obj, _, _ := s.Get("b", "k")
			var got []string
			for _, c := range obj.Siblings {
				got = append(got, string(c.Value))
			}
			if !reflect.DeepEqual(got, tt.wantSiblings) {
				t.Errorf("siblings = %v, want %v", got, tt.wantSiblings)
			}
		})
	}
}

func TestResolveSiblings(t *testing.T) {
	s := newTestStore()
	s.Put("b", "k", nil, store.Content{Value: []byte("old")})
	s.Put("b", "k", nil, store.Content{Value: []byte("new")})

	obj, _, _ := s.Get("b", "k")
	if !obj.HasConflict() {
		t.Fatal("expected a conflict")
	}

	// Writing the resolved value with the read vclock collapses the siblings
	winner := store.LastWriteWins(obj)
	if string(winner.Value) != "new" {
		t.Fatalf("last write wins picked %q", winner.Value)
	}
	s.Put("b", "k", obj.VClock, winner)

	obj, _, _ = s.Get("b", "k")
	if obj.HasConflict() || string(obj.Siblings[0].Value) != "new" {
		t.Fatalf("conflict was not resolved: %+v", obj.Siblings)
	}
}

func TestDeleteAndListing(t *testing.T) {
	s := newTestStore()
	for _, b := range []string{"zeta", "alpha"} {
		for _, k := range []string{"k3", "k1", "k2"} {
			if _, err := s.Put(b, k, nil, store.Content{Value: []byte(k)}); err != nil {
				t.Fatalf("put: %v", err)
			}
		}
	}

	buckets, _ := s.ListBuckets()
	if !reflect.DeepEqual(buckets, []string{"alpha", "zeta"}) {
		t.Errorf("buckets = %v", buckets)
	}
	keys, _ := s.ListKeys("alpha")
	if !reflect.DeepEqual(keys, []string{"k1", "k2", "k3"}) {
		t.Errorf("keys = %v", keys)
	}

	for _, k := range []string{"k1", "k2", "k3"} {
		if err := s.Delete("zeta", k, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}
	if err := s.Delete("zeta", "missing", nil); err != nil {
		t.Fatalf("deleting a missing key failed: %v", err)
	}

	buckets, _ = s.ListBuckets()
	if !reflect.DeepEqual(buckets, []string{"alpha"}) {
		t.Errorf("empty bucket still listed: %v", buckets)
	}
	keys, _ = s.ListKeys("zeta")
	if len(keys) != 0 {
		t.Errorf("keys of emptied bucket = %v", keys)
	}
}

func TestInvalidArguments(t *testing.T) {
	s := newTestStore()
	tests := []struct {
		name string
		call func() error
	}{
		{"put without bucket", func() error { _, err := s.Put("", "k", nil, store.Content{}); return err }},
		{"put without key", func() error { _, err := s.Put("b", "", nil, store.Content{}); return err }},
		{"get without key", func() error { _, _, err := s.Get("b", ""); return err }},
		{"delete without bucket", func() error { return s.Delete("", "k", nil) }},
		{"list keys without bucket", func() error { _, err := s.ListKeys(""); return err }},
		{"empty client id", func() error { return s.SetClientID(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var storeErr *store.Error
			if err := tt.call(); !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
				t.Errorf("expected invalid operation, got %v", err)
			}
		})
	}
}

func TestClientID(t *testing.T) {
	s := newTestStore()
	if id, _ := s.ClientID(); id != nil {
		t.Fatalf("unexpected initial client id %q", id)
	}

	id := []byte("client-1")
	s.SetClientID(id)
	id[0] = 'X' // the store keeps its own copy

	got, _ := s.ClientID()
	if string(got) != "client-1" {
		t.Fatalf("client id = %q", got)
	}
}

func TestConcurrentWritersCreateSiblings(t *testing.T) {
	s := newTestStore()
	const writers = 32

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Put("b", "k", nil, store.Content{Value: []byte(fmt.Sprint(i))})
		}(i)
	}
	wg.Wait()

	obj, _, _ := s.Get("b", "k")
	if len(obj.Siblings) != writers {
		t.Fatalf("expected %d siblings, got %d", writers, len(obj.Siblings))
	}
	if idx, _ := store.DecodeVClock(obj.VClock); idx != writers {
		t.Fatalf("expected write index %d, got %d", writers, idx)
	}
}
