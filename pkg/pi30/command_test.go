package pi30

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTable(t *testing.T) {

	assert := assert.New(t)

	payload, resolution := ResolvePayload("QPIRI")
	assert.Equal([]byte{0x51, 0x50, 0x49, 0x52, 0x49}, payload)
	assert.Equal(ResolvedTable, resolution)

	payload, resolution = ResolvePayload("QMOD")
	assert.Equal([]byte{0x51, 0x4D, 0x4F, 0x44}, payload)
	assert.Equal(ResolvedTable, resolution)
}

func TestResolveHexMatchesSymbolic(t *testing.T) {

	assert := assert.New(t)

	symbolic, _ := ResolvePayload("QPIRI")
	hexPayload, resolution := ResolvePayload("5150495249")
	assert.Equal(ResolvedHex, resolution)
	assert.Equal(symbolic, hexPayload)

	spaced, resolution := ResolvePayload("51 50 49 52 49")
	assert.Equal(ResolvedHex, resolution)
	assert.Equal(symbolic, spaced, "embedded spaces are ignored")

	tabbed, resolution := ResolvePayload("51\t50\r\n49")
	assert.Equal(ResolvedHex, resolution)
	assert.Equal([]byte{0x51, 0x50, 0x49}, tabbed)

	blank, resolution := ResolvePayload(" ")
	assert.Equal(ResolvedHex, resolution)
	assert.Empty(blank, "whitespace only is an empty payload")
	assert.Equal(Frame{0x00, 0x00, 0x0D}, Encode(" "))

	lower, _ := ResolvePayload("4d4f")
	assert.Equal([]byte{0x4D, 0x4F}, lower, "lower case hex")

	assert.Equal(Encode("QPIRI"), Encode("5150495249"))
}

func TestResolveLiteralFallback(t *testing.T) {

	assert := assert.New(t)

	payload, resolution := ResolvePayload("!!")
	assert.Equal([]byte{0x21, 0x21}, payload)
	assert.Equal(ResolvedLiteral, resolution)

	// odd length hex falls back to the raw characters
	payload, resolution = ResolvePayload("515")
	assert.Equal([]byte("515"), payload)
	assert.Equal(ResolvedLiteral, resolution)

	// not in the table and not hex
	payload, resolution = ResolvePayload("POP02")
	assert.Equal([]byte("POP02"), payload)
	assert.Equal(ResolvedLiteral, resolution)

	// only ASCII whitespace is skipped inside hex
	payload, resolution = ResolvePayload("51\u00a050")
	assert.Equal([]byte("51\u00a050"), payload)
	assert.Equal(ResolvedLiteral, resolution)

	// lookup is exact, case sensitive
	_, resolution = ResolvePayload("qpiri")
	assert.Equal(ResolvedLiteral, resolution)
}

func TestLookupCommandReturnsCopy(t *testing.T) {

	assert := assert.New(t)

	payload, ok := LookupCommand("QPI")
	assert.True(ok)
	payload[0] = 0x00

	again, _ := LookupCommand("QPI")
	assert.Equal([]byte{0x51, 0x50, 0x49}, again, "table is not mutated")

	_, ok = LookupCommand("NOPE")
	assert.False(ok)
}

func TestCommandNames(t *testing.T) {

	assert := assert.New(t)

	names := CommandNames()
	assert.Contains(names, "QPI")
	assert.Contains(names, "QPIRI")
	assert.Contains(names, "QMOD")
	assert.IsIncreasing(names)
}
