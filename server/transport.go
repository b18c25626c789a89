package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Telnet protocol constants (RFC 854, RFC 855)
const (
	tnIAC  = 255 // Interpret As Command
	tnDONT = 254
	tnDO   = 253
	tnWONT = 252
	tnWILL = 251
	tnSB   = 250 // Subnegotiation Begin
	tnGA   = 249 // Go Ahead, used by servers to end a prompt
	tnSE   = 240 // Subnegotiation End
)

const ansiESC = 27

type telnetState int

const (
	telnetStateNormal    telnetState = iota // Processing normal text
	telnetStateIAC                          // Just saw IAC
	telnetStateCommand                      // Reading option byte after WILL/WONT/DO/DONT
	telnetStateSubneg                       // In subnegotiation (after SB)
	telnetStateSubnegIAC                    // Saw IAC while in subnegotiation
)

// Transport is the interface for connection I/O
type Transport interface {
	ReadLine() (string, error)
	WriteLine(string) error
	Close() error
	RemoteAddr() string
}

// LookupCharset returns the encoding named by charset. The empty name is
// UTF-8. Latin-1 names map to ISO 8859-1 itself rather than the Windows
// superset HTML uses for them.
func LookupCharset(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1", "l1":
		return charmap.ISO8859_1, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	return enc, nil
}

// TCPTransport wraps a net.Conn to a MUD server. Telnet negotiation is
// stripped from input; text is converted between the server charset and
// UTF-8.
type TCPTransport struct {
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	mu        sync.Mutex
	tState    telnetState
	lastWasCR bool
	decoder   *encoding.Decoder
	encoder   *encoding.Encoder
}

// NewTCPTransport creates a transport over conn using the named charset
func NewTCPTransport(conn net.Conn, charset string) (*TCPTransport, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	return &TCPTransport{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		tState:  telnetStateNormal,
		decoder: enc.NewDecoder(),
		encoder: encoding.ReplaceUnsupported(enc.NewEncoder()),
	}, nil
}

// ReadLine reads a line from the connection, stripping telnet IAC
// sequences. A line ends at CR, LF, CR LF or IAC GA; a partial line is
// returned at EOF.
func (t *TCPTransport) ReadLine() (string, error) {
	var raw []byte

	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(raw) > 0 {
				return t.decode(raw)
			}
			return "", err
		}

		switch t.tState {
		case telnetStateNormal:
			switch {
			case b == tnIAC:
				t.tState = telnetStateIAC
			case b == '\r':
				t.lastWasCR = true
				return t.decode(raw)
			case b == '\n':
				if t.lastWasCR {
					t.lastWasCR = false
					continue
				}
				return t.decode(raw)
			default:
				t.lastWasCR = false
				// control characters other than TAB and ESC are dropped
				if b >= 32 || b == '\t' || b == ansiESC {
					raw = append(raw, b)
				}
			}

		case telnetStateIAC:
			switch b {
			case tnIAC:
				// escaped 0xFF is a data byte
				t.tState = telnetStateNormal
				raw = append(raw, tnIAC)
			case tnSB:
				t.tState = telnetStateSubneg
			case tnWILL, tnWONT, tnDO, tnDONT:
				t.tState = telnetStateCommand
			case tnGA:
				t.tState = telnetStateNormal
				if len(raw) > 0 {
					return t.decode(raw)
				}
			default:
				t.tState = telnetStateNormal
			}

		case telnetStateCommand:
			t.tState = telnetStateNormal

		case telnetStateSubneg:
			if b == tnIAC {
				t.tState = telnetStateSubnegIAC
			}

		case telnetStateSubnegIAC:
			if b == tnSE {
				t.tState = telnetStateNormal
			} else {
				t.tState = telnetStateSubneg
			}
		}
	}
}

func (t *TCPTransport) decode(raw []byte) (string, error) {
	text, err := t.decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding server text: %w", err)
	}
	return string(text), nil
}

// WriteLine encodes msg in the server charset and writes it with CR LF.
// Data bytes equal to IAC are doubled.
func (t *TCPTransport) WriteLine(msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.encoder.Bytes([]byte(msg))
	if err != nil {
		return fmt.Errorf("encoding %q: %w", msg, err)
	}
	for _, b := range data {
		if b == tnIAC {
			t.writer.WriteByte(tnIAC)
		}
		t.writer.WriteByte(b)
	}
	if _, err := t.writer.WriteString("\r\n"); err != nil {
		return err
	}
	return t.writer.Flush()
}

// Close closes the underlying connection
func (t *TCPTransport) Close() error {
	return t.conn.Close()
}

// RemoteAddr returns the remote address as a string
func (t *TCPTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// PipeTransport is an in-memory transport for testing. Lines injected by
// the test are read as server output; lines the client writes can be
// received by the test.
type PipeTransport struct {
	input   chan string
	output  chan string
	closed  bool
	closeMu sync.Mutex
}

// NewPipeTransport creates a new pipe transport for testing
func NewPipeTransport() *PipeTransport {
	return &PipeTransport{
		input:  make(chan string, 100),
		output: make(chan string, 100),
	}
}

// ReadLine reads the next injected line (blocks)
func (t *PipeTransport) ReadLine() (string, error) {
	line, ok := <-t.input
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// WriteLine records a line written by the client
func (t *PipeTransport) WriteLine(msg string) error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return errors.New("transport closed")
	}
	t.output <- msg
	return nil
}

// Close closes the transport
func (t *PipeTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()

	if !t.closed {
		t.closed = true
		close(t.input)
		close(t.output)
	}
	return nil
}

// RemoteAddr returns "pipe" for pipe transports
func (t *PipeTransport) RemoteAddr() string {
	return "pipe"
}

// Inject queues a line of server output
func (t *PipeTransport) Inject(line string) {
	t.input <- line
}

// Receive returns the next line written by the client, or "" once closed
func (t *PipeTransport) Receive() string {
	line, ok := <-t.output
	if !ok {
		return ""
	}
	return line
}

// DrainOutput reads all available output without blocking
func (t *PipeTransport) DrainOutput() []string {
	var lines []string
	for {
		select {
		case line, ok := <-t.output:
			if !ok {
				return lines
			}
			lines = append(lines, line)
		default:
			return lines
		}
	}
}
