package pi30

import "github.com/sigurn/crc16"

// CRC-16 with polynomial 0x1021, zero init, no reflection and no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Checksum computes the 16 bit integrity code of a command payload.
// The empty payload has checksum 0.
func Checksum(payload []byte) uint16 {
	return crc16.Checksum(payload, crcTable)
}
