// Package battle holds the pure combat arithmetic shared by both execution
// domains. Every function here is a total, deterministic mapping of its
// inputs so replays agree byte-for-byte.
package battle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/undeadlabs/arena/internal/domain"
)

// CriticalMultiplier doubles damage on a critical hit.
const CriticalMultiplier = 2

// Stats is the slice of warrior state the resolver reads.
type Stats struct {
	Attack    uint16
	Defense   uint16
	Knowledge uint16
}

// Input identifies one damage event uniquely. The same input always
// produces the same output.
type Input struct {
	Attacker          Stats
	Defender          Stats
	AnsweredCorrectly bool

	RoomID        string
	QuestionIndex uint8
	AttackerAddr  string
	DefenderAddr  string
	ClientSeed    uint8
}

// Resolve computes the damage for one answered question. Wrong answers
// never deal damage; correct answers always deal at least 1.
func Resolve(in Input) (damage uint16, critical bool) {
	if !in.AnsweredCorrectly {
		return 0, false
	}

	h := sha256.New()
	h.Write([]byte(in.RoomID))
	h.Write([]byte{in.QuestionIndex})
	h.Write([]byte(in.AttackerAddr))
	h.Write([]byte(in.DefenderAddr))
	h.Write([]byte{in.ClientSeed})
	sum := h.Sum(nil)

	roll := binary.LittleEndian.Uint16(sum[:2])

	minDamage, maxDamage := phaseRange(in.QuestionIndex)
	span := maxDamage - minDamage + 1
	base := int32(minDamage) + int32(roll%span)

	// Defender knowledge counts toward mitigation alongside defense.
	modifier := (int32(in.Attacker.Attack) - (int32(in.Defender.Defense) + int32(in.Defender.Knowledge))) / 10
	final := base + modifier
	if final < 1 {
		final = 1
	}

	if criticalHit(sum, in.Attacker.Knowledge) {
		final *= CriticalMultiplier
		critical = true
	}
	return uint16(final), critical
}

// phaseRange escalates base damage through the battle: learning, pressure,
// then deadly phase.
func phaseRange(questionIdx uint8) (minD, maxD uint16) {
	switch {
	case questionIdx <= 2:
		return 2, 10
	case questionIdx <= 6:
		return 6, 15
	case questionIdx < domain.QuestionsPerBattle:
		return 10, 20
	}
	return 1, 1
}

// criticalHit rolls an independent byte of the event hash against a chance
// scaled by attacker knowledge: 5% floor, +1% per 10 knowledge, 40% cap.
func criticalHit(sum []byte, knowledge uint16) bool {
	chance := 5 + uint32(knowledge)/10
	if chance > 40 {
		chance = 40
	}
	roll := uint32(binary.LittleEndian.Uint16(sum[2:4])) % 100
	return roll < chance
}
