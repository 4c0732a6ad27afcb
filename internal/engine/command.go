package engine

import "github.com/google/uuid"

// Command is the closed set of state-changing operations. Every command
// carries Actor, the signing identity the preconditions are checked against.
type Command interface{ isCommand() }

// Initialize bootstraps the game config. The actor becomes the admin.
type Initialize struct {
	Actor              string
	WarriorCreationFee uint64
	BattleEntryFee     uint64
	CooldownSeconds    uint64
	VRFOracle          string
}

// UpdateGameConfig changes tunables; nil fields are left untouched. Admin only.
type UpdateGameConfig struct {
	Actor              string
	WarriorCreationFee *uint64
	BattleEntryFee     *uint64
	CooldownSeconds    *uint64
	Paused             *bool
}

// Deposit credits the actor's profile balance.
type Deposit struct {
	Actor  string
	Amount uint64
}

// CreateWarrior mints an unfinalized warrior and requests its stat roll.
type CreateWarrior struct {
	Actor      string
	Name       string
	DNA        uint64
	Class      string
	ClientSeed uint8
}

// FinalizeWarriorStats consumes the oracle result for a pending stat roll.
// OracleResult may be empty, in which case the engine fetches it by RequestID.
type FinalizeWarriorStats struct {
	Actor        string
	WarriorAddr  string
	RequestID    string
	OracleResult []byte
}

// CreateBattleRoom opens a room. When Concepts/Questions/AnswerKey are
// supplied the content is pre-committed and the room skips the draw phase;
// otherwise the room waits for a VRF concept selection.
type CreateBattleRoom struct {
	Actor       string
	RoomID      string
	WarriorAddr string

	Concepts  []uint8
	Questions []uint16
	AnswerKey []bool
}

// JoinBattleRoom fills the second player slot.
type JoinBattleRoom struct {
	Actor       string
	RoomID      string
	WarriorAddr string
}

// SelectBattleConcepts issues the oracle request for a VRF-drawn room.
type SelectBattleConcepts struct {
	Actor      string
	RoomID     string
	ClientSeed uint8
}

// FinalizeConceptSelection consumes the oracle result and commits the draw.
type FinalizeConceptSelection struct {
	Actor        string
	RoomID       string
	RequestID    string
	OracleResult []byte
}

// SignalReady marks a participant ready. Repeat signals are no-ops.
type SignalReady struct {
	Actor  string
	RoomID string
}

// CancelBattleRoom aborts a room before delegation. Creator only.
type CancelBattleRoom struct {
	Actor  string
	RoomID string
}

// DelegateBattle hands the room and both warriors to the ephemeral layer.
type DelegateBattle struct {
	Actor  string
	RoomID string
}

// StartBattle begins the question loop inside the ephemeral layer.
type StartBattle struct {
	Actor  string
	RoomID string
}

// AnswerQuestion submits the actor's answer for the current question.
type AnswerQuestion struct {
	Actor      string
	RoomID     string
	Answer     bool
	ClientSeed uint8
}

// SettleBattleRoom applies XP and win/loss inside the ephemeral layer.
type SettleBattleRoom struct {
	Actor  string
	RoomID string
}

// UndelegateBattleRoom returns custody of a settled battle to the ledger.
type UndelegateBattleRoom struct {
	Actor  string
	RoomID string
}

// UpdateFinalState applies cooldowns, profiles, achievements, and the
// leaderboard once custody is back, then marks the room Settled.
type UpdateFinalState struct {
	Actor  string
	RoomID string
}

// EmergencyEndBattle force-ends a battle as a no-contest and pulls
// custody back to the ledger. Admin only.
type EmergencyEndBattle struct {
	Actor  string
	RoomID string
}

func (Initialize) isCommand()               {}
func (UpdateGameConfig) isCommand()         {}
func (Deposit) isCommand()                  {}
func (CreateWarrior) isCommand()            {}
func (FinalizeWarriorStats) isCommand()     {}
func (CreateBattleRoom) isCommand()         {}
func (JoinBattleRoom) isCommand()           {}
func (SelectBattleConcepts) isCommand()     {}
func (FinalizeConceptSelection) isCommand() {}
func (SignalReady) isCommand()              {}
func (CancelBattleRoom) isCommand()         {}
func (DelegateBattle) isCommand()           {}
func (StartBattle) isCommand()              {}
func (AnswerQuestion) isCommand()           {}
func (SettleBattleRoom) isCommand()         {}
func (UndelegateBattleRoom) isCommand()     {}
func (UpdateFinalState) isCommand()         {}
func (EmergencyEndBattle) isCommand()       {}

// NewRoomID allocates a fresh unique room id for clients that do not bring
// their own.
func NewRoomID() string { return uuid.NewString() }
