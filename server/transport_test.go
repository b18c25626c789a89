package server

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// fakeConn reads from a fixed byte slice and records writes
type fakeConn struct {
	*bytes.Reader
	written bytes.Buffer
}

func (f *fakeConn) Write(b []byte) (int, error)        { return f.written.Write(b) }
func (f *fakeConn) Close() error                       { return nil }
func (f *fakeConn) LocalAddr() net.Addr                { return nil }
func (f *fakeConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (f *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func newTestTransport(t *testing.T, data []byte, charset string) (*TCPTransport, *fakeConn) {
	t.Helper()
	conn := &fakeConn{Reader: bytes.NewReader(data)}
	transport, err := NewTCPTransport(conn, charset)
	if err != nil {
		t.Fatalf("NewTCPTransport: %v", err)
	}
	return transport, conn
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		charset string
		want    []string
	}{
		{"plain text", []byte("hello world\r\n"), "", []string{"hello world"}},
		{"LF only", []byte("hello\n"), "", []string{"hello"}},
		{"CR only", []byte("hello\r"), "", []string{"hello"}},
		{"CRLF delivers once", []byte("first\r\nsecond\r\n"), "", []string{"first", "second"}},
		{"blank line after CRLF", []byte("a\r\n\r\nb\n"), "", []string{"a", "", "b"}},
		{"IAC WILL", []byte{0xFF, 0xFB, 0x01, 'h', 'e', 'l', 'l', 'o', '\n'}, "", []string{"hello"}},
		{"IAC WONT", []byte{0xFF, 0xFC, 0x01, 'h', 'i', '\n'}, "", []string{"hi"}},
		{"IAC DO", []byte{0xFF, 0xFD, 0x03, 't', 'e', 's', 't', '\n'}, "", []string{"test"}},
		{"IAC DONT", []byte{0xFF, 0xFE, 0x01, 'o', 'k', '\n'}, "", []string{"ok"}},
		{
			"subnegotiation",
			[]byte{0xFF, 0xFA, 0x1F, 0x00, 0x50, 0x00, 0x18, 0xFF, 0xF0, 'h', 'i', '\n'},
			"", []string{"hi"},
		},
		{
			"several commands in a row",
			[]byte{0xFF, 0xFB, 0x01, 0xFF, 0xFD, 0x03, 0xFF, 0xFB, 0x1F, 'l', 'o', 'o', 'k', '\n'},
			"", []string{"look"},
		},
		{"IAC mid-line", []byte{'h', 'e', 0xFF, 0xFB, 0x01, 'l', 'l', 'o', '\n'}, "", []string{"hello"}},
		{"only IAC", []byte{0xFF, 0xFB, 0x01, 0xFF, 0xFD, 0x03, '\n'}, "", []string{""}},
		{"go ahead ends a prompt", []byte{'N', 'a', 'm', 'e', ':', ' ', 0xFF, 0xF9, 'x', '\n'}, "", []string{"Name: ", "x"}},
		{"control characters dropped", []byte("a\x07b\x00c\n"), "", []string{"abc"}},
		{"ANSI escapes kept", []byte("\x1b[1mbold\x1b[0m\n"), "", []string{"\x1b[1mbold\x1b[0m"}},
		{"UTF-8", []byte("caf\xc3\xa9\n"), "utf-8", []string{"café"}},
		{"latin1", []byte{'c', 'a', 'f', 0xE9, '\n'}, "latin1", []string{"café"}},
		{"escaped IAC is data", []byte{'y', 0xFF, 0xFF, '\n'}, "iso-8859-1", []string{"yÿ"}},
		{"htmlindex charset", []byte{0x93, 'q', 0x94, '\n'}, "windows-1252", []string{"“q”"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, _ := newTestTransport(t, tt.data, tt.charset)
			for i, want := range tt.want {
				line, err := transport.ReadLine()
				if err != nil {
					t.Fatalf("line %d: unexpected error: %v", i, err)
				}
				if line != want {
					t.Errorf("line %d: expected %q, got %q", i, want, line)
				}
			}
		})
	}
}

func TestReadLineEOFNoNewline(t *testing.T) {
	transport, _ := newTestTransport(t, []byte("partial"), "")
	line, err := transport.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "partial" {
		t.Errorf("expected %q, got %q", "partial", line)
	}

	// Next read should give EOF
	_, err = transport.ReadLine()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadLineEmptyInput(t *testing.T) {
	transport, _ := newTestTransport(t, []byte{}, "")
	_, err := transport.ReadLine()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestWriteLine(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		line    string
		want    []byte
	}{
		{"ascii", "", "look", []byte("look\r\n")},
		{"utf-8", "utf-8", "café", []byte("caf\xc3\xa9\r\n")},
		{"latin1", "latin1", "café", []byte{'c', 'a', 'f', 0xE9, '\r', '\n'}},
		{"IAC doubled", "latin1", "ÿ", []byte{0xFF, 0xFF, '\r', '\n'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, conn := newTestTransport(t, nil, tt.charset)
			if err := transport.WriteLine(tt.line); err != nil {
				t.Fatalf("WriteLine: %v", err)
			}
			if got := conn.written.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupCharset(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "latin1", "L1", "shift_jis", "koi8-r"} {
		if _, err := LookupCharset(name); err != nil {
			t.Errorf("LookupCharset(%q): %v", name, err)
		}
	}
	if _, err := LookupCharset("klingon"); err == nil {
		t.Error("LookupCharset(klingon) succeeded")
	}
	conn := &fakeConn{Reader: bytes.NewReader(nil)}
	if _, err := NewTCPTransport(conn, "klingon"); err == nil {
		t.Error("NewTCPTransport accepted an unknown charset")
	}
}
