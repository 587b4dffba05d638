package unix

import (
	"errors"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type reply struct {
	op      common.OpCode
	payload []byte
	err     error
}

// socketPath returns a short path in a fresh directory, socket paths are length limited
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "skv")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "skv.sock")
}

// startEchoServer serves an echo handler on path and returns once it accepts connections
func startEchoServer(t *testing.T, path string) {
	t.Helper()
	server := NewUnixServerTransport()
	server.RegisterHandler(func(op common.OpCode, req []byte) (common.OpCode, []byte) {
		return op.ResponseOp(), req
	})
	go server.Listen(common.ServerConfig{Endpoint: path})
	t.Cleanup(func() { server.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func send(t *testing.T, client transport.IRPCClientTransport, op common.OpCode, payload []byte) reply {
	t.Helper()
	ch := make(chan reply, 1)
	client.Send(op, payload, time.Second, func(op common.OpCode, payload []byte, err error) {
		ch <- reply{op, payload, err}
	})
	select {
	case r := <-ch:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("no reply")
		return reply{}
	}
}

func TestUnixRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		stale bool
	}{
		{"fresh path", false},
		{"stale socket file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := socketPath(t)
			if tt.stale {
				// A listener that does not unlink its socket leaves the file behind
				l, err := net.Listen("unix", path)
				if err != nil {
					t.Fatalf("listen: %v", err)
				}
				l.(*net.UnixListener).SetUnlinkOnClose(false)
				l.Close()
				if _, err := os.Lstat(path); err != nil {
					t.Fatalf("stale socket missing: %v", err)
				}
			}

			startEchoServer(t, path)

			client := NewUnixClientTransport()
			err := client.Connect(common.ClientConfig{
				TimeoutMillisecond: 1000,
				Transport: common.ClientTransportConfig{
					Endpoint:   path,
					SocketConf: common.SocketConf{WriteBufferSize: 64 * 1024, ReadBufferSize: 64 * 1024},
				},
			})
			if err != nil {
				t.Fatalf("connect: %v", err)
			}
			defer client.Close()

			for _, payload := range [][]byte{nil, []byte("bucket/key"), make([]byte, 128*1024)} {
				r := send(t, client, common.OpGetReq, payload)
				if r.err != nil {
					t.Fatalf("unexpected error: %v", r.err)
				}
				if r.op != common.OpGetResp || len(r.payload) != len(payload) {
					t.Fatalf("unexpected reply op=%v len=%d", r.op, len(r.payload))
				}
			}
		})
	}
}

func TestUnixListenKeepsRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := (&serverConnector{}).Listen(common.ServerConfig{Endpoint: path}); err == nil {
		t.Fatal("expected an error for a path that is not a socket")
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "data" {
		t.Fatalf("regular file was modified: %q, %v", data, err)
	}
}

func TestUnixConnectionFailed(t *testing.T) {
	client := NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{Transport: common.ClientTransportConfig{Endpoint: socketPath(t)}}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	r := send(t, client, common.OpPingReq, nil)
	if !errors.Is(r.err, common.ErrConnectionFailed) {
		t.Fatalf("expected connection failure, got %v", r.err)
	}
}
