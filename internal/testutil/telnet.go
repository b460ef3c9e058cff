package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/delve/internal/frontend/telnet"
)

// TelnetClient plays delve over a real TCP connection in tests. Output is
// handed back with Telnet negotiation and ANSI styling removed.
type TelnetClient struct {
	conn    net.Conn
	t       *testing.T
	pending string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until the plain text contains substr and returns
// everything read so far up to the end of the match. Text after the match
// is kept for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns plain text ending in substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	var raw []byte
	tmp := make([]byte, 4096)
	for {
		// Escapes can straddle reads, so strip the whole accumulation.
		text := c.pending + telnet.StripANSI(string(telnet.FilterIAC(raw)))
		if i := strings.Index(text, substr); i >= 0 {
			end := i + len(substr)
			c.pending = text[end:]
			return text[:end]
		}
		n, err := c.conn.Read(tmp)
		raw = append(raw, tmp[:n]...)
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, text, err)
		}
	}
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Command sends text and waits for the next prompt. The prompt is matched at
// the start of a line, since a map row may hold a '>' followed by a blank.
func (c *TelnetClient) Command(text string, timeout time.Duration) string {
	c.t.Helper()
	c.Send(text)
	return c.ReadUntil("\r\n> ", timeout)
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
