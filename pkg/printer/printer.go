package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Transport names accepted by New.
const (
	TypeUSB     = "usb"
	TypeNetwork = "network"
	TypeNone    = "none"
	TypeBuffer  = "buffer"
)

var (
	ErrMissingTarget = errors.New("printer: device path or address is required")
	ErrUnknownType   = errors.New("printer: unknown type")
)

// Printer sends a finished ESC/POS job to a receipt printer.
type Printer interface {
	Print(ctx context.Context, job []byte) error
	// IsConnected reports whether the printer can be reached right now.
	IsConnected(ctx context.Context) bool
	// Type is one of the Type* names.
	Type() string
}

// Config selects and addresses a transport.
type Config struct {
	Type    string
	Device  string // e.g. /dev/usb/lp0
	Address string // host:port, usually port 9100
	Timeout time.Duration
}

// New builds the transport described by cfg. An empty type means no printer.
func New(cfg Config) (Printer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	switch cfg.Type {
	case TypeUSB:
		if cfg.Device == "" {
			return nil, ErrMissingTarget
		}
		return &devicePrinter{path: cfg.Device}, nil
	case TypeNetwork:
		if cfg.Address == "" {
			return nil, ErrMissingTarget
		}
		return &tcpPrinter{address: cfg.Address, timeout: cfg.Timeout}, nil
	case TypeNone, "":
		return None(), nil
	default:
		return nil, fmt.Errorf("%w %q (use usb, network or none)", ErrUnknownType, cfg.Type)
	}
}

func writeJob(w io.Writer, job []byte, target string) error {
	if _, err := w.Write(job); err != nil {
		return fmt.Errorf("printer: write to %s: %w", target, err)
	}
	return nil
}

// devicePrinter writes to a character device such as a USB line printer.
// The device is opened per job; jobs are serialized so receipts never
// interleave.
type devicePrinter struct {
	mu   sync.Mutex
	path string
}

func (p *devicePrinter) Print(ctx context.Context, job []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer f.Close()
	return writeJob(f, job, p.path)
}

func (p *devicePrinter) IsConnected(context.Context) bool {
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *devicePrinter) Type() string { return TypeUSB }

// tcpPrinter sends jobs to a raw port (JetDirect style) printer.
type tcpPrinter struct {
	address string
	timeout time.Duration
}

func (p *tcpPrinter) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: p.timeout}
	return d.DialContext(ctx, "tcp", p.address)
}

func (p *tcpPrinter) Print(ctx context.Context, job []byte) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	return writeJob(conn, job, p.address)
}

func (p *tcpPrinter) IsConnected(ctx context.Context) bool {
	conn, err := p.dial(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *tcpPrinter) Type() string { return TypeNetwork }

type nonePrinter struct{}

// None discards jobs. Receipts are still rendered and returned for the
// browser print dialog.
func None() Printer { return nonePrinter{} }

func (nonePrinter) Print(context.Context, []byte) error { return nil }
func (nonePrinter) IsConnected(context.Context) bool    { return false }
func (nonePrinter) Type() string                        { return TypeNone }

// BufferPrinter keeps every job in memory.
type BufferPrinter struct {
	mu   sync.Mutex
	jobs [][]byte
}

func NewBufferPrinter() *BufferPrinter {
	return &BufferPrinter{}
}

func (p *BufferPrinter) Print(_ context.Context, job []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, bytes.Clone(job))
	return nil
}

func (p *BufferPrinter) IsConnected(context.Context) bool { return true }

func (p *BufferPrinter) Type() string { return TypeBuffer }

// Jobs returns the printed jobs in order.
func (p *BufferPrinter) Jobs() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.jobs...)
}
