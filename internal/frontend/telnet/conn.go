package telnet

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, 857, 858, 1184).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// iacState tracks where a byte stream is within a Telnet command.
type iacState int

const (
	stateData      iacState = iota
	stateIAC                // saw IAC
	stateOption             // saw IAC WILL/WONT/DO/DONT, expecting the option
	stateSub                // inside IAC SB ... IAC SE
	stateSubIAC             // saw IAC inside a sub-negotiation
)

// iacFilter separates data bytes from Telnet commands one byte at a time.
type iacFilter struct {
	state iacState
}

// feed consumes b and reports whether b (or, for IAC IAC, a literal 0xFF)
// is data.
func (f *iacFilter) feed(b byte) bool {
	switch f.state {
	case stateIAC:
		switch b {
		case WILL, WONT, DO, DONT:
			f.state = stateOption
		case SB:
			f.state = stateSub
		case IAC:
			f.state = stateData
			return true
		default:
			f.state = stateData
		}
		return false
	case stateOption:
		f.state = stateData
		return false
	case stateSub:
		if b == IAC {
			f.state = stateSubIAC
		}
		return false
	case stateSubIAC:
		if b == SE {
			f.state = stateData
		} else {
			f.state = stateSub
		}
		return false
	}
	if b == IAC {
		f.state = stateIAC
		return false
	}
	return true
}

// Conn is one client's Telnet connection. Reads strip Telnet commands;
// writes are serialised.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	filter iacFilter
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection with Telnet protocol handling.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead so the client sends whole lines
// without waiting for GA after each frame.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine reads one line of input without its terminator. Telnet commands
// and control characters other than tab are dropped. Both \n and \r\n end a
// line.
//
// Postcondition: Returns the next line of text input, or an error (including io.EOF).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		if !c.filter.feed(b) {
			continue
		}

		switch {
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b < 32 && b != '\t':
		default:
			line.WriteByte(b)
		}
	}
}

// WriteScreen clears the terminal and draws lines in a single write, so a
// frame never interleaves with another writer's output.
//
// Postcondition: ClearScreen followed by each line and \r\n is written.
func (c *Conn) WriteScreen(lines []string) error {
	var buf bytes.Buffer
	buf.WriteString(ClearScreen)
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString("\r\n")
	}
	return c.Write(buf.Bytes())
}

// WriteLine sends text followed by \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *Conn) WriteLine(text string) error {
	return c.Write([]byte(text + "\r\n"))
}

// WritePrompt sends a prompt string without a trailing newline.
func (c *Conn) WritePrompt(prompt string) error {
	return c.Write([]byte(prompt))
}

// Write sends raw bytes to the client under the write deadline.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.raw.Write(data); err != nil {
		return fmt.Errorf("telnet write: %w", err)
	}
	return nil
}

// Close closes the underlying TCP connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// FilterIAC removes Telnet commands from input, turning IAC IAC into a
// single 0xFF.
//
// Postcondition: Returns only the data bytes of input.
func FilterIAC(input []byte) []byte {
	var f iacFilter
	result := make([]byte, 0, len(input))
	for _, b := range input {
		if f.feed(b) {
			result = append(result, b)
		}
	}
	return result
}
