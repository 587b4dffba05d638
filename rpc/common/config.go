package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeoutMillisecond is used when a caller passes no per-request timeout
	DefaultTimeoutMillisecond = 5000

	// DefaultMaxMessageSize caps the payload size of a single frame (64 MiB)
	DefaultMaxMessageSize = 64 << 20
)

// --------------------------------------------------------------------------
// Shared socket settings
// --------------------------------------------------------------------------

// SocketConf holds buffer settings that apply to every stream socket
type SocketConf struct {
	WriteBufferSize int // bytes, 0 keeps the OS default
	ReadBufferSize  int // bytes, 0 keeps the OS default
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 disables keep-alive
	TCPLingerSec    int // < 0 keeps the OS default
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds settings for the single client connection
type ClientTransportConfig struct {
	// Endpoint is the one server address (host:port for tcp, a path for unix)
	Endpoint string
	// ConnectTimeoutMillisecond bounds a single dial attempt (0 = use the request timeout)
	ConnectTimeoutMillisecond int
	// MaxMessageSize is the largest payload accepted in either direction (0 = default)
	MaxMessageSize int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of the RPC client
type ClientConfig struct {
	// TimeoutMillisecond is the default per-request timeout
	TimeoutMillisecond int
	Transport          ClientTransportConfig
	LogLevel           string
}

// DefaultTimeout returns the default per-request timeout as a duration
func (c *ClientConfig) DefaultTimeout() time.Duration {
	if c.TimeoutMillisecond <= 0 {
		return DefaultTimeoutMillisecond * time.Millisecond
	}
	return time.Duration(c.TimeoutMillisecond) * time.Millisecond
}

// ConnectTimeout returns the dial timeout, falling back to the given request timeout
func (c *ClientConfig) ConnectTimeout(requestTimeout time.Duration) time.Duration {
	if c.Transport.ConnectTimeoutMillisecond <= 0 {
		return requestTimeout
	}
	return time.Duration(c.Transport.ConnectTimeoutMillisecond) * time.Millisecond
}

// MaxMessageSize returns the configured payload limit or the default
func (c *ClientConfig) MaxMessageSize() uint32 {
	return messageSizeLimit(c.Transport.MaxMessageSize)
}

// Validate checks that the configuration can be used to connect
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.Transport.Endpoint) == "" {
		return fmt.Errorf("no endpoint provided")
	}
	if c.TimeoutMillisecond < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.TimeoutMillisecond)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", c.DefaultTimeout().String())
	addField("Connect Timeout", c.ConnectTimeout(c.DefaultTimeout()).String())
	addField("Max Message Size", strconv.FormatUint(uint64(c.MaxMessageSize()), 10))

	addSection("Socket")
	addField("Write Buffer", strconv.Itoa(c.Transport.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.Transport.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds the configuration of the development server
type ServerConfig struct {
	// Endpoint the server listens on
	Endpoint string
	// TimeoutSecond bounds reads and writes on an accepted connection (0 = none)
	TimeoutSecond int64
	// MaxMessageSize is the largest payload accepted from a client (0 = default)
	MaxMessageSize int
	SocketConf
	TCPConf
	LogLevel string
}

// MaxMessageSizeOrDefault returns the configured payload limit or the default
func (c *ServerConfig) MaxMessageSizeOrDefault() uint32 {
	return messageSizeLimit(c.MaxMessageSize)
}

// messageSizeLimit maps a configured size to a frame payload limit.
// The frame length field is 32 bit, larger values are capped.
func messageSizeLimit(size int) uint32 {
	if size <= 0 {
		return DefaultMaxMessageSize
	}
	if uint64(size) > math.MaxUint32-1 {
		return math.MaxUint32 - 1
	}
	return uint32(size)
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Message Size", strconv.FormatUint(uint64(c.MaxMessageSizeOrDefault()), 10))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// Version is the version of serialkv reported by the CLI and the dev server
const Version = "1.0.0"
