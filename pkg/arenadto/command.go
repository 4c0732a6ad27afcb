package arenadto

// CommandEnvelope is the JSON body of POST /v1/command. Type selects the
// operation; the remaining fields are read per type and ignored otherwise.
// OracleResult is hex-encoded when present.
type CommandEnvelope struct {
	Type  string `json:"type"`
	Actor string `json:"actor"`

	// warriors
	Name         string `json:"name,omitempty"`
	DNA          uint64 `json:"dna,omitempty"`
	Class        string `json:"class,omitempty"`
	ClientSeed   uint8  `json:"client_seed,omitempty"`
	WarriorAddr  string `json:"warrior_addr,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	OracleResult string `json:"oracle_result,omitempty"`

	// battle rooms
	RoomID    string   `json:"room_id,omitempty"`
	Concepts  []uint8  `json:"concepts,omitempty"`
	Questions []uint16 `json:"questions,omitempty"`
	AnswerKey []bool   `json:"answer_key,omitempty"`
	Answer    *bool    `json:"answer,omitempty"`

	// config and balance
	Amount             uint64  `json:"amount,omitempty"`
	WarriorCreationFee *uint64 `json:"warrior_creation_fee,omitempty"`
	BattleEntryFee     *uint64 `json:"battle_entry_fee,omitempty"`
	CooldownSeconds    *uint64 `json:"cooldown_seconds,omitempty"`
	Paused             *bool   `json:"paused,omitempty"`
	VRFOracle          string  `json:"vrf_oracle,omitempty"`
}

// CommandResponse is the JSON reply of POST /v1/command.
type CommandResponse struct {
	OK     bool         `json:"ok"`
	Result any          `json:"result,omitempty"`
	Error  *DomainError `json:"error,omitempty"`
}
