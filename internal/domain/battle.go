package domain

import "time"

// BattleState is the room lifecycle phase. Values are ordered: a room only
// ever advances to a strictly greater state, except for the terminal
// Cancelled branch which is reachable before delegation only.
type BattleState uint8

const (
	StateWaitingForOpponent BattleState = iota
	StateQuestionsSelected
	StateAwaitingReady
	StateReadyForDelegation
	StateDelegated
	StateInProgress
	StateCompleted
	StateSettled

	StateCancelled BattleState = 100
)

func (s BattleState) String() string {
	switch s {
	case StateWaitingForOpponent:
		return "WaitingForOpponent"
	case StateQuestionsSelected:
		return "QuestionsSelected"
	case StateAwaitingReady:
		return "AwaitingReady"
	case StateReadyForDelegation:
		return "ReadyForDelegation"
	case StateDelegated:
		return "Delegated"
	case StateInProgress:
		return "InProgress"
	case StateCompleted:
		return "Completed"
	case StateSettled:
		return "Settled"
	case StateCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

const (
	// QuestionsPerBattle is the committed question count per room.
	QuestionsPerBattle = 10
	// ConceptsPerBattle is the fixed concept draw size.
	ConceptsPerBattle = 5
)

// BattleRoom coordinates a single match between two warriors.
type BattleRoom struct {
	RoomID    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`

	PlayerA  string `json:"player_a"`
	PlayerB  string `json:"player_b,omitempty"`
	WarriorA string `json:"warrior_a"`
	WarriorB string `json:"warrior_b,omitempty"`

	SelectedConcepts  []uint8  `json:"selected_concepts"`
	SelectedTopics    []uint8  `json:"selected_topics"`
	SelectedQuestions []uint16 `json:"selected_questions"`
	AnswerKey         []bool   `json:"answer_key"`

	State  BattleState `json:"state"`
	ReadyA bool        `json:"ready_a"`
	ReadyB bool        `json:"ready_b"`

	CurrentQuestion uint8                     `json:"current_question"`
	AnswersA        [QuestionsPerBattle]*bool `json:"answers_a"`
	AnswersB        [QuestionsPerBattle]*bool `json:"answers_b"`
	CorrectA        uint8                     `json:"correct_a"`
	CorrectB        uint8                     `json:"correct_b"`
	CriticalHits    uint8                     `json:"critical_hits"`

	Winner          string    `json:"winner,omitempty"`
	BattleStartTime time.Time `json:"battle_start_time,omitempty"`
	BattleDuration  uint32    `json:"battle_duration"`

	// XPApplied marks that the fast-context settle step has run.
	XPApplied bool `json:"xp_applied"`

	// PendingRequestID correlates an outstanding concept-selection request.
	PendingRequestID string `json:"pending_request_id,omitempty"`
}

// IsParticipant reports whether player occupies either slot.
func (r *BattleRoom) IsParticipant(player string) bool {
	return player != "" && (r.PlayerA == player || r.PlayerB == player)
}

// HasAnswered reports whether player already answered question idx.
func (r *BattleRoom) HasAnswered(player string, idx uint8) bool {
	if idx >= QuestionsPerBattle {
		return false
	}
	if player == r.PlayerA {
		return r.AnswersA[idx] != nil
	}
	if player == r.PlayerB {
		return r.AnswersB[idx] != nil
	}
	return false
}

// Scores returns the per-player correct-answer counters.
func (r *BattleRoom) Scores() (a, b uint8) { return r.CorrectA, r.CorrectB }
