// Package nvm provides the byte-addressable backing store primitive
// settings persistence is built on, plus the checksum-wrapper helpers
// that turn a flat byte range into a "record" that can be verified and,
// on corruption, reset and rewritten.
//
// The raw get/put primitive (Device) is the external collaborator named
// in spec.md 1/6 — a real board backs it with its own EEPROM or flash
// driver, which this module does not provide. RAMDevice is the
// in-memory stand-in this module's own tests and cmd/cncsettingsctl use
// so the settings store is fully host-testable without one.
package nvm

import "github.com/pkg/errors"

// Device is a byte-addressable backing store: single-byte get/put, no
// notion of records or checksums. This is deliberately as small as
// grbl's eeprom_get_char/eeprom_put_char pair.
type Device interface {
	ReadByte(addr int) byte
	WriteByte(addr int, b byte)
}

// RAMDevice is a Device backed by a plain byte slice. It grows on
// demand so callers don't need to size it up front.
type RAMDevice struct {
	mem []byte
}

// NewRAMDevice returns a RAMDevice with an initial capacity of size
// bytes, zeroed.
func NewRAMDevice(size int) *RAMDevice {
	return &RAMDevice{mem: make([]byte, size)}
}

func (d *RAMDevice) grow(addr int) {
	if addr < len(d.mem) {
		return
	}
	next := make([]byte, addr+1)
	copy(next, d.mem)
	d.mem = next
}

// ReadByte implements Device.
func (d *RAMDevice) ReadByte(addr int) byte {
	if addr >= len(d.mem) {
		return 0
	}
	return d.mem[addr]
}

// WriteByte implements Device.
func (d *RAMDevice) WriteByte(addr int, b byte) {
	d.grow(addr)
	d.mem[addr] = b
}

// Bytes returns a copy of the backing store, for saving or inspecting
// the raw blob (cmd/cncsettingsctl writes it out to its --nvm file).
func (d *RAMDevice) Bytes() []byte {
	out := make([]byte, len(d.mem))
	copy(out, d.mem)
	return out
}

// NewRAMDeviceFromBytes returns a RAMDevice preloaded with data, for
// reopening a blob a previous run wrote out with Bytes (cmd/cncsettingsctl's
// persistent-file mode, standing in for a board's EEPROM across runs).
func NewRAMDeviceFromBytes(data []byte) *RAMDevice {
	mem := make([]byte, len(data))
	copy(mem, data)
	return &RAMDevice{mem: mem}
}

// ErrChecksum is returned (wrapped with record-address context via
// github.com/pkg/errors) when a record's trailing checksum byte doesn't
// match its contents.
var ErrChecksum = errors.New("nvm: checksum mismatch")
