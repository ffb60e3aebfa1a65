package pi30

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// bitwise reference: shift in each byte at the top, 8 rounds of poly 0x1021.
func referenceChecksum(payload []byte) uint16 {
	var acc uint32
	for _, b := range payload {
		acc ^= uint32(b) << 8
		for range 8 {
			if acc&0x8000 != 0 {
				acc = (acc << 1) ^ 0x1021
			} else {
				acc <<= 1
			}
			acc &= 0xFFFF
		}
	}
	return uint16(acc)
}

func TestChecksumEmpty(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(uint16(0), Checksum(nil), "nil payload")
	assert.Equal(uint16(0), Checksum([]byte{}), "empty payload")
}

func TestChecksumKnownCommands(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(uint16(0xBEAC), Checksum([]byte{0x51, 0x50, 0x49}), "QPI")
	assert.Equal(uint16(0xF854), Checksum([]byte("QPIRI")), "QPIRI")
	assert.Equal(uint16(0x49C1), Checksum([]byte("QMOD")), "QMOD")
	assert.Equal(uint16(0xB7A9), Checksum([]byte("QPIGS")), "QPIGS")
	assert.Equal(uint16(0x0194), Checksum([]byte("!!")), "!!")
}

func TestChecksumMatchesBitwiseReference(t *testing.T) {

	assert := assert.New(t)

	rnd := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		payload := make([]byte, rnd.IntN(64))
		for j := range payload {
			payload[j] = byte(rnd.IntN(256))
		}
		assert.Equal(referenceChecksum(payload), Checksum(payload), "payload % x", payload)
	}
}
