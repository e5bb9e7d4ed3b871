package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// chunkSize stays well under clamd's default StreamMaxLength
const chunkSize = 64 * 1024

// ClamAVScanner streams files to a clamd daemon with zINSTREAM
type ClamAVScanner struct {
	address string // TCP host:port or Unix socket path
	timeout time.Duration
}

var _ Scanner = (*ClamAVScanner)(nil)

func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{address: address, timeout: timeout}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	network := "tcp"
	if strings.HasPrefix(c.address, "/") {
		network = "unix"
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, c.address)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	return conn, nil
}

// Available sends zPING and expects PONG
func (c *ClamAVScanner) Available(ctx context.Context) bool {
	conn, err := c.dial(ctx, 5*time.Second)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return false
	}
	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && err != io.EOF {
		return false
	}
	return strings.HasPrefix(reply, "PONG")
}

// Scan streams data in length-prefixed chunks and parses the verdict.
// Replies: "stream: OK", "stream: <name> FOUND", "<msg> ERROR".
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	failClosed := func(format string, err error) ScanResult {
		result.Infected = true
		result.Error = fmt.Errorf(format, err)
		return result
	}

	conn, err := c.dial(ctx, c.timeout)
	if err != nil {
		return failClosed("failed to connect to clamd: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return failClosed("failed to send command: %w", err)
	}

	buf := make([]byte, chunkSize)
	size := make([]byte, 4)
	for {
		n, readErr := data.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(size, uint32(n))
			if _, err := conn.Write(size); err != nil {
				return failClosed("failed to send chunk size: %w", err)
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return failClosed("failed to send chunk: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return failClosed("failed to read file data: %w", readErr)
		}
	}

	// Zero-length chunk terminates the stream
	if _, err := conn.Write([]byte{0, 0, 0, 0}); err != nil {
		return failClosed("failed to send end marker: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && err != io.EOF {
		return failClosed("failed to read response: %w", err)
	}
	reply = strings.TrimSpace(strings.TrimRight(reply, "\x00"))

	switch {
	case strings.HasSuffix(reply, "FOUND"):
		result.Infected = true
		if _, threat, ok := strings.Cut(reply, ":"); ok {
			result.ThreatName = strings.TrimSpace(strings.TrimSuffix(threat, "FOUND"))
		}
	case strings.HasSuffix(reply, "ERROR"):
		result.Infected = true
		result.Error = fmt.Errorf("scan error: %s", reply)
	case strings.HasSuffix(reply, "OK"):
	default:
		result.Infected = true
		result.Error = fmt.Errorf("unexpected clamd reply: %q", reply)
	}

	return result
}
