package client

import (
	"errors"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/serializer"
	"github.com/ValentinKolb/serialkv/rpc/server"
	"github.com/ValentinKolb/serialkv/rpc/transport/tcp"
	"net"
	"reflect"
	"strings"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() serializer.IRPCSerializer{
	"JSON":   serializer.NewJSONSerializer,
	"GOB":    serializer.NewGOBSerializer,
	"Binary": serializer.NewBinarySerializer,
}

// newTestStore starts a dev server on a loopback port and connects a client to it
func newTestStore(t *testing.T, ser func() serializer.IRPCSerializer, resolver store.SiblingResolver) store.IStore {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv, err := server.NewRPCServer(common.ServerConfig{TimeoutSecond: 5}, tcp.NewTCPServerTransport(), ser())
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	go srv.ServeListener(listener)
	t.Cleanup(func() { srv.Close() })

	clientTransport := tcp.NewTCPClientTransport()
	kv, err := NewRPCStore(common.ClientConfig{
		TimeoutMillisecond: 2000,
		Transport:          common.ClientTransportConfig{Endpoint: listener.Addr().String()},
	}, clientTransport, ser(), resolver)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { clientTransport.Close() })

	return kv
}

func TestRPCStore(t *testing.T) {
	for name, ser := range testSerializers {
		t.Run(name, func(t *testing.T) {
			kv := newTestStore(t, ser, nil)

			if err := kv.Ping(); err != nil {
				t.Fatalf("ping: %v", err)
			}

			info, err := kv.ServerInfo()
			if err != nil {
				t.Fatalf("server info: %v", err)
			}
			if !strings.HasPrefix(info.Node, "skv-") || info.ServerVersion != common.Version {
				t.Errorf("unexpected server info %+v", info)
			}

			// Put and read back
			vclock, err := kv.Put("users", "alice", nil, store.Content{Value: []byte("hello"), ContentType: "text/plain"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			obj, found, err := kv.Get("users", "alice")
			if err != nil || !found {
				t.Fatalf("get: found=%v err=%v", found, err)
			}
			if !reflect.DeepEqual(obj.VClock, vclock) || string(obj.Siblings[0].Value) != "hello" {
				t.Errorf("unexpected object %+v", obj)
			}

			// Missing key
			if _, found, err := kv.Get("users", "nobody"); err != nil || found {
				t.Errorf("missing key: found=%v err=%v", found, err)
			}

			// Listings
			kv.Put("users", "bob", nil, store.Content{Value: []byte("x")})
			kv.Put("sessions", "s1", nil, store.Content{Value: []byte("y")})

			buckets, err := kv.ListBuckets()
			if err != nil || !reflect.DeepEqual(buckets, []string{"sessions", "users"}) {
				t.Errorf("buckets = %v, err = %v", buckets, err)
			}
			keys, err := kv.ListKeys("users")
			if err != nil || !reflect.DeepEqual(keys, []string{"alice", "bob"}) {
				t.Errorf("keys = %v, err = %v", keys, err)
			}

			// Delete
			if err := kv.Delete("users", "alice", obj.VClock); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, found, _ := kv.Get("users", "alice"); found {
				t.Error("key still present after delete")
			}
		})
	}
}

func TestRPCStoreSiblings(t *testing.T) {
	tests := []struct {
		name         string
		resolver     store.SiblingResolver
		wantSiblings int
		wantValue    string
	}{
		{"unresolved", nil, 2, "first"},
		{"last write wins", store.LastWriteWins, 1, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newTestStore(t, serializer.NewBinarySerializer, tt.resolver)

			// Two writes without a vclock are concurrent
			kv.Put("b", "k", nil, store.Content{Value: []byte("first")})
			kv.Put("b", "k", nil, store.Content{Value: []byte("second")})

			obj, _, err := kv.Get("b", "k")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if len(obj.Siblings) != tt.wantSiblings {
				t.Fatalf("got %d siblings, want %d", len(obj.Siblings), tt.wantSiblings)
			}
			if string(obj.Siblings[0].Value) != tt.wantValue {
				t.Errorf("first sibling = %q, want %q", obj.Siblings[0].Value, tt.wantValue)
			}
		})
	}
}

func TestRPCStoreErrorReply(t *testing.T) {
	kv := newTestStore(t, serializer.NewJSONSerializer, nil)

	_, err := kv.Put("", "k", nil, store.Content{Value: []byte("v")})

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected a store error, got %T: %v", err, err)
	}
	if storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("unexpected code %s", storeErr.Code)
	}

	// The connection stays usable after an error reply
	if err := kv.Ping(); err != nil {
		t.Fatalf("ping after error reply: %v", err)
	}
}

func TestRPCStoreClientID(t *testing.T) {
	kv := newTestStore(t, serializer.NewBinarySerializer, nil)

	initial, err := kv.ClientID()
	if err != nil || len(initial) == 0 {
		t.Fatalf("initial client id %x, err %v", initial, err)
	}

	if err := kv.SetClientID([]byte("my-client")); err != nil {
		t.Fatalf("set client id: %v", err)
	}
	id, _ := kv.ClientID()
	if string(id) != "my-client" {
		t.Errorf("client id = %q", id)
	}
}

func TestRPCStoreServerDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	endpoint := listener.Addr().String()
	listener.Close()

	clientTransport := tcp.NewTCPClientTransport()
	kv, err := NewRPCStore(common.ClientConfig{
		TimeoutMillisecond: 500,
		Transport:          common.ClientTransportConfig{Endpoint: endpoint},
	}, clientTransport, serializer.NewBinarySerializer(), nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer clientTransport.Close()

	if err := kv.Ping(); !errors.Is(err, common.ErrConnectionFailed) {
		t.Fatalf("expected connection failure, got %v", err)
	}
}
