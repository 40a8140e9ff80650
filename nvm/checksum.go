package nvm

import "github.com/pkg/errors"

// Checksum computes the 1-byte modulo checksum grbl's
// memcpy_to/from_eeprom_with_checksum helpers append to every record:
// a running accumulator rotated left one bit and then added to, byte by
// byte. Only the checksum scheme follows grbl: the settings record layout
// built on it (settings/persist.go) is this module's own, so images are
// not byte-compatible with an existing grbl EEPROM.
func Checksum(data []byte) uint8 {
	var ck uint8
	for _, b := range data {
		ck = (ck << 1) | (ck >> 7)
		ck += b
	}
	return ck
}

// WriteRecord writes data to addr followed by its checksum byte at
// addr+len(data).
func WriteRecord(dev Device, addr int, data []byte) {
	for i, b := range data {
		dev.WriteByte(addr+i, b)
	}
	dev.WriteByte(addr+len(data), Checksum(data))
}

// ReadRecord reads len(buf) bytes from addr into buf and validates the
// trailing checksum byte at addr+len(buf). On mismatch it returns
// ErrChecksum (wrapped with the record address) and buf is left
// populated with whatever was read, but callers must treat the record
// as missing and not use buf's contents (spec.md 4.5/7: "a failed
// checksum read returns a typed 'record missing' result").
func ReadRecord(dev Device, addr int, buf []byte) error {
	for i := range buf {
		buf[i] = dev.ReadByte(addr + i)
	}
	want := dev.ReadByte(addr + len(buf))
	if Checksum(buf) != want {
		return errors.Wrapf(ErrChecksum, "record at address %d", addr)
	}
	return nil
}

// ClearRecord zeros a record (data + checksum byte) and rewrites it,
// the recovery action spec.md 4.5/7 calls for on a failed checksum
// read: "zero the record in RAM, rewrite, return 'record missing'".
func ClearRecord(dev Device, addr int, size int) {
	WriteRecord(dev, addr, make([]byte, size))
}
