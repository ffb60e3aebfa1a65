package pi30

import (
	"encoding/hex"
	"slices"
	"strings"
)

type Resolution int

const (
	ResolvedTable Resolution = iota
	ResolvedHex
	ResolvedLiteral
)

func (r Resolution) String() string {
	switch r {
	case ResolvedTable:
		return "table"
	case ResolvedHex:
		return "hex"
	case ResolvedLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// known symbolic commands. Never mutated, lookups hand out copies.
var commandTable = map[string][]byte{
	"QPI":   {0x51, 0x50, 0x49},
	"QPIRI": {0x51, 0x50, 0x49, 0x52, 0x49},
	"QMOD":  {0x51, 0x4D, 0x4F, 0x44},
	"QPIGS": {0x51, 0x50, 0x49, 0x47, 0x53},
	"QPIWS": {0x51, 0x50, 0x49, 0x57, 0x53},
	"QFLAG": {0x51, 0x46, 0x4C, 0x41, 0x47},
	"QID":   {0x51, 0x49, 0x44},
	"QVFW":  {0x51, 0x56, 0x46, 0x57},
}

// LookupCommand returns the payload registered for a symbolic command name.
func LookupCommand(name string) ([]byte, bool) {
	payload, ok := commandTable[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(payload), true
}

// CommandNames returns the symbolic command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolvePayload turns a command token into the bytes sent on the wire.
// It tries, in order, the command table, a hex digit string (ASCII
// whitespace ignored) and finally the raw bytes of the token. It never fails.
func ResolvePayload(token string) ([]byte, Resolution) {
	if payload, ok := LookupCommand(token); ok {
		return payload, ResolvedTable
	}
	if payload, ok := decodeHex(token); ok {
		return payload, ResolvedHex
	}
	return []byte(token), ResolvedLiteral
}

func decodeHex(token string) ([]byte, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			return -1
		}
		return r
	}, token)
	payload, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, false
	}
	return payload, true
}
