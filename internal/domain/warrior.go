package domain

import "time"

// WarriorClass selects the stat range profile rolled at finalize time.
type WarriorClass string

const (
	ClassValidator WarriorClass = "VALIDATOR"
	ClassOracle    WarriorClass = "ORACLE"
	ClassGuardian  WarriorClass = "GUARDIAN"
	ClassDaemon    WarriorClass = "DAEMON"
)

// ParseWarriorClass maps a user-supplied class token, empty on unknown input.
func ParseWarriorClass(s string) WarriorClass {
	switch WarriorClass(s) {
	case ClassValidator, ClassOracle, ClassGuardian, ClassDaemon:
		return WarriorClass(s)
	}
	return ""
}

const (
	// MaxWarriorNameLen bounds the name used in the warrior's address seed.
	MaxWarriorNameLen = 32

	// BaseHP is the fixed HP baseline every warrior gets at finalize.
	BaseHP uint16 = 100
)

// Warrior is a player-owned combatant. Base stats stay zero until the
// randomness callback finalizes them exactly once; a warrior with unset
// stats cannot enter a battle room.
type Warrior struct {
	Owner string       `json:"owner"`
	Name  string       `json:"name"`
	DNA   uint64       `json:"dna"`
	Class WarriorClass `json:"class"`

	BaseAttack    uint16 `json:"base_attack"`
	BaseDefense   uint16 `json:"base_defense"`
	BaseKnowledge uint16 `json:"base_knowledge"`
	CurrentHP     uint16 `json:"current_hp"`
	MaxHP         uint16 `json:"max_hp"`

	ExperiencePoints uint64 `json:"experience_points"`
	Level            uint16 `json:"level"`
	BattlesWon       uint32 `json:"battles_won"`
	BattlesLost      uint32 `json:"battles_lost"`

	CooldownExpiresAt time.Time `json:"cooldown_expires_at"`
	CreatedAt         time.Time `json:"created_at"`

	// PendingRequestID correlates an outstanding stat-generation request.
	PendingRequestID string `json:"pending_request_id,omitempty"`
}

// Finalized reports whether the stat roll has been consumed.
func (w *Warrior) Finalized() bool {
	return w.MaxHP > 0
}

// OffCooldown reports battle eligibility at the given instant.
func (w *Warrior) OffCooldown(now time.Time) bool {
	return !now.Before(w.CooldownExpiresAt)
}
