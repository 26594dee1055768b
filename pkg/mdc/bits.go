package mdc

// Bit-packing helpers, MSB-first within each byte. Used for the sync
// preamble bytes, which the wire format transmits MSB-first. The
// 14-byte payload frames use their own LSB-first packing (see
// frame.go).

var bitMaskTable = [8]byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}

func readBit(p []byte, i int) bool {
	return p[i>>3]&bitMaskTable[i&7] != 0
}
