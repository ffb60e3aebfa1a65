package pi30

import (
	"bytes"
	"fmt"
)

var (
	AckMarker = []byte("(ACK")
	NakMarker = []byte("(NAK")
)

// Outcome is the result of one transaction.
type Outcome int

const (
	CommunicationError Outcome = iota
	Accepted
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case CommunicationError:
		return "communication_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Classify maps a raw reply to an outcome. Any non-empty reply that is not a
// NAK counts as accepted: control commands may echo data instead of ACK.
func Classify(response []byte) Outcome {
	switch {
	case len(response) == 0:
		return CommunicationError
	case bytes.HasPrefix(response, AckMarker):
		return Accepted
	case bytes.HasPrefix(response, NakMarker):
		return Rejected
	default:
		return Accepted
	}
}
