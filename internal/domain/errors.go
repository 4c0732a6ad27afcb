package domain

import "github.com/undeadlabs/arena/pkg/arenadto"

// Sentinel errors for every rejection the command surface can produce.
// Each carries a stable code and a retryability hint for clients.
var (
	// validation
	ErrDuplicateWarrior = arenadto.DomainError{Code: "DuplicateWarrior", Message: "warrior already exists at this address"}
	ErrNameTooLong      = arenadto.DomainError{Code: "NameTooLong", Message: "warrior name exceeds maximum length"}
	ErrInvalidClass     = arenadto.DomainError{Code: "InvalidClass", Message: "unknown warrior class"}
	ErrRoomFull         = arenadto.DomainError{Code: "RoomFull", Message: "battle room already has two players"}
	ErrInvalidRoomID    = arenadto.DomainError{Code: "InvalidRoomID", Message: "room id is invalid"}
	ErrInvalidConcepts  = arenadto.DomainError{Code: "InvalidConceptSelection", Message: "concepts must be unique values in the catalog range"}
	ErrSameWarrior      = arenadto.DomainError{Code: "SameWarrior", Message: "a warrior cannot battle itself"}

	// state machine
	ErrInvalidBattleState   = arenadto.DomainError{Code: "InvalidBattleState", Message: "battle room is not in the correct state for this action"}
	ErrAlreadyAnswered      = arenadto.DomainError{Code: "AlreadyAnswered", Message: "player already answered the current question"}
	ErrAllQuestionsAnswered = arenadto.DomainError{Code: "AllQuestionsAnswered", Message: "no questions remaining in this battle"}
	ErrAlreadyFinalized     = arenadto.DomainError{Code: "AlreadyFinalized", Message: "warrior stats have already been finalized"}
	ErrAlreadySettled       = arenadto.DomainError{Code: "AlreadySettled", Message: "battle results have already been settled"}
	ErrWarriorUnfinalized   = arenadto.DomainError{Code: "WarriorUnfinalized", Message: "warrior stats are not finalized yet"}
	ErrWarriorDefeated      = arenadto.DomainError{Code: "WarriorDefeated", Message: "warrior has no remaining HP"}

	// authorization
	ErrUnauthorized   = arenadto.DomainError{Code: "Unauthorized", Message: "signer is not authorized for this action"}
	ErrNotParticipant = arenadto.DomainError{Code: "NotParticipant", Message: "only battle participants can perform this action"}
	// OwnershipMismatch is expected mid-handoff and safe to retry.
	ErrOwnershipMismatch = arenadto.DomainError{Code: "OwnershipMismatch", Message: "record is under the wrong custody domain", Retryable: true}
	ErrAlreadyDelegated  = arenadto.DomainError{Code: "AlreadyDelegated", Message: "record is already under ephemeral custody"}

	// resource
	ErrWarriorOnCooldown = arenadto.DomainError{Code: "WarriorOnCooldown", Message: "warrior is still on cooldown", Retryable: true}
	ErrInsufficientFee   = arenadto.DomainError{Code: "InsufficientFee", Message: "balance does not cover the required fee", Retryable: true}
	ErrGamePaused        = arenadto.DomainError{Code: "GamePaused", Message: "the game is paused", Retryable: true}

	// external dependency
	ErrOracleMismatch   = arenadto.DomainError{Code: "OracleMismatch", Message: "oracle callback does not match the stored request"}
	ErrNoPendingRequest = arenadto.DomainError{Code: "NoPendingRequest", Message: "no pending randomness request for this record"}

	// not found
	ErrWarriorNotFound = arenadto.DomainError{Code: "WarriorNotFound", Message: "warrior record not found"}
	ErrRoomNotFound    = arenadto.DomainError{Code: "RoomNotFound", Message: "battle room record not found"}
	ErrConfigNotFound  = arenadto.DomainError{Code: "ConfigNotFound", Message: "game has not been initialized"}
	ErrAlreadyInit     = arenadto.DomainError{Code: "AlreadyInitialized", Message: "game config already exists"}
)
