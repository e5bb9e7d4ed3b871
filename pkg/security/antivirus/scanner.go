package antivirus

import (
	"context"
	"io"
)

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected, or the scan could not complete
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string
	Error       error
}

// Scanner checks uploaded attachments before they are forwarded by email.
// Implementations fail closed: any error yields Infected=true.
type Scanner interface {
	Scan(ctx context.Context, filename string, data io.Reader) ScanResult
	Name() string
	Available(ctx context.Context) bool
}

// NoOpScanner always reports clean. Used when no clamd address is configured.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil)

func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	return ScanResult{ScannerName: n.Name()}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}

func (n *NoOpScanner) Available(ctx context.Context) bool {
	return true
}
