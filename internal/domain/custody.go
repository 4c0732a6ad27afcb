package domain

// Custody identifies which execution domain holds exclusive write rights to
// a transferable record. A record whose phase-1 handoff has completed but
// whose phase-2 has not is InTransit and rejects writes in both domains.
type Custody uint8

const (
	OwnedByLedger Custody = iota
	InTransit
	OwnedByEphemeral
)

func (c Custody) String() string {
	switch c {
	case InTransit:
		return "InTransit"
	case OwnedByEphemeral:
		return "OwnedByEphemeral"
	}
	return "OwnedByLedger"
}
