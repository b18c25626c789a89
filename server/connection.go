package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("fugue.server")

// ErrClosed is returned by Send after the connection has been closed
var ErrClosed = errors.New("connection closed")

// Connection is the client's link to a MUD server
type Connection struct {
	transport   Transport
	connectedAt time.Time
	lastInput   time.Time
	lastOutput  time.Time
	closed      bool
	mu          sync.Mutex
}

// NewConnection wraps an established transport
func NewConnection(t Transport) *Connection {
	now := time.Now()
	return &Connection{
		transport:   t,
		connectedAt: now,
		lastInput:   now,
	}
}

// Dial opens a TCP connection to host:port and wraps it in a telnet
// transport using the given charset.
func Dial(ctx context.Context, host string, port int, charset string) (*Connection, error) {
	if _, err := LookupCharset(charset); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	t, err := NewTCPTransport(conn, charset)
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Infof("connected to %s", addr)
	return NewConnection(t), nil
}

// Send writes one line to the server
func (c *Connection) Send(line string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.lastOutput = time.Now()
	c.mu.Unlock()
	return c.transport.WriteLine(line)
}

// Run reads server lines and hands each to deliver until the server closes
// the connection, ctx is done or a read fails. A clean end of stream
// returns nil.
func (c *Connection) Run(ctx context.Context, deliver func(string)) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || c.isClosed() {
				log.Infof("connection to %s closed", c.RemoteAddr())
				return nil
			}
			log.Errorf("read from %s: %s", c.RemoteAddr(), err)
			return err
		}

		c.mu.Lock()
		c.lastInput = time.Now()
		c.mu.Unlock()

		deliver(line)
	}
}

// Close closes the connection; later calls do nothing
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.transport.Close()
}

func (c *Connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// RemoteAddr returns the server address
func (c *Connection) RemoteAddr() string {
	return c.transport.RemoteAddr()
}

// ConnectedAt returns when the connection was established
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// Idle returns how long ago the server last sent a line
func (c *Connection) Idle() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastInput)
}
