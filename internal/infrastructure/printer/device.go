// Package printer drives local ESC/POS thermal printers.
package printer

import (
	"fmt"
	"net"
	"os"
	"time"

	"posdesk/internal/domain/receipt"
)

// Device is a receipt printer accepting raw ESC/POS bytes.
type Device interface {
	Print(data []byte) error
	// Ready reports whether the device can be reached.
	Ready() bool
}

// Type selects a device implementation.
type Type string

const (
	TypeUSB     Type = "usb"
	TypeNetwork Type = "network"
	TypeNone    Type = "none"
)

// USB writes to a character device such as /dev/usb/lp0. The device is opened
// per job.
type USB struct {
	Path string
}

func (p USB) Print(data []byte) error {
	f, err := os.OpenFile(p.Path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open printer %s: %w", p.Path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write printer %s: %w", p.Path, err)
	}
	return nil
}

func (p USB) Ready() bool {
	_, err := os.Stat(p.Path)
	return err == nil
}

// Network prints over raw TCP (port 9100 on most devices).
type Network struct {
	Address      string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

func (p Network) Print(data []byte) error {
	conn, err := net.DialTimeout("tcp", p.Address, orDefault(p.DialTimeout, 5*time.Second))
	if err != nil {
		return fmt.Errorf("connect printer %s: %w", p.Address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(orDefault(p.WriteTimeout, 10*time.Second)))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write printer %s: %w", p.Address, err)
	}
	return nil
}

func (p Network) Ready() bool {
	conn, err := net.DialTimeout("tcp", p.Address, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Null discards every job.
type Null struct{}

func (Null) Print([]byte) error { return nil }
func (Null) Ready() bool        { return false }

// Open returns the device for t.
func Open(t Type, usbPath, address string) (Device, error) {
	switch t {
	case TypeUSB:
		if usbPath == "" {
			return nil, fmt.Errorf("printer: usb path is required")
		}
		return USB{Path: usbPath}, nil
	case TypeNetwork:
		if address == "" {
			return nil, fmt.Errorf("printer: network address is required")
		}
		return Network{Address: address}, nil
	case TypeNone, "":
		return Null{}, nil
	default:
		return nil, fmt.Errorf("printer: unknown type %q", t)
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

var _ receipt.Device = Device(nil)
