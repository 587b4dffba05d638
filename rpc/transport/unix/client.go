package unix

import (
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/timer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"github.com/ValentinKolb/serialkv/rpc/transport/base"
	"net"
	"time"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return upgradeConnection(conn, config.Transport.SocketConf)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new Unix client transport using wall clock deadlines
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{}, nil)
}

// NewUnixClientTransportWithTimers creates a new Unix client transport whose request
// deadlines are scheduled by timers
func NewUnixClientTransportWithTimers(timers timer.IFactory) transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{}, timers)
}
