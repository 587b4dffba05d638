package tcp

import (
	"errors"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"net"
	"testing"
	"time"
)

type reply struct {
	op      common.OpCode
	payload []byte
	err     error
}

func startEchoServer(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	server := NewTCPServerTransport()
	server.RegisterHandler(func(op common.OpCode, req []byte) (common.OpCode, []byte) {
		return op.ResponseOp(), req
	})
	go server.Serve(listener, common.ServerConfig{TCPConf: common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1}})
	t.Cleanup(func() { server.Close() })

	return listener.Addr().String()
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

func TestTCPRoundTrip(t *testing.T) {
	endpoint := startEchoServer(t)

	client := NewTCPClientTransport()
	err := client.Connect(common.ClientConfig{
		TimeoutMillisecond: 1000,
		Transport: common.ClientTransportConfig{
			Endpoint: endpoint,
			TCPConf:  common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: -1},
		},
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	tests := []struct {
		name    string
		op      common.OpCode
		payload []byte
	}{
		{"empty", common.OpPingReq, nil},
		{"small", common.OpGetReq, []byte("bucket/key")},
		{"large", common.OpPutReq, make([]byte, 256*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := send(t, client, tt.op, tt.payload)
			if r.err != nil {
				t.Fatalf("unexpected error: %v", r.err)
			}
			if r.op != tt.op.ResponseOp() || len(r.payload) != len(tt.payload) {
				t.Fatalf("unexpected reply op=%v len=%d", r.op, len(r.payload))
			}
		})
	}
}

func TestTCPConnectionRefused(t *testing.T) {
	// Reserve a port and release it so nothing listens there
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	endpoint := listener.Addr().String()
	listener.Close()

	client := NewTCPClientTransport()
	if err := client.Connect(common.ClientConfig{Transport: common.ClientTransportConfig{Endpoint: endpoint}}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	r := send(t, client, common.OpPingReq, nil)
	if !errors.Is(r.err, common.ErrConnectionFailed) {
		t.Fatalf("expected connection failure, got %v", r.err)
	}
}
