package battle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/undeadlabs/arena/internal/domain"
)

// statRange is an inclusive bound for one base stat.
type statRange struct {
	lo, hi uint16
}

func (r statRange) pick(roll uint16) uint16 {
	return r.lo + roll%(r.hi-r.lo+1)
}

// classProfile gives each warrior class a distinct range per stat.
type classProfile struct {
	attack    statRange
	defense   statRange
	knowledge statRange
}

var classProfiles = map[domain.WarriorClass]classProfile{
	domain.ClassValidator: {attack: statRange{60, 80}, defense: statRange{50, 70}, knowledge: statRange{50, 70}},
	domain.ClassOracle:    {attack: statRange{40, 60}, defense: statRange{40, 60}, knowledge: statRange{70, 90}},
	domain.ClassGuardian:  {attack: statRange{40, 60}, defense: statRange{70, 90}, knowledge: statRange{45, 65}},
	domain.ClassDaemon:    {attack: statRange{70, 90}, defense: statRange{30, 50}, knowledge: statRange{50, 70}},
}

// StatBounds returns the configured inclusive bounds for a class.
func StatBounds(class domain.WarriorClass) (atkLo, atkHi, defLo, defHi, knwLo, knwHi uint16) {
	p := classProfiles[class]
	return p.attack.lo, p.attack.hi, p.defense.lo, p.defense.hi, p.knowledge.lo, p.knowledge.hi
}

// DeriveStats maps an oracle result into the class's stat ranges. The same
// (oracleResult, class) pair always yields the same stats.
func DeriveStats(oracleResult []byte, class domain.WarriorClass) (attack, defense, knowledge uint16) {
	p, ok := classProfiles[class]
	if !ok {
		p = classProfiles[domain.ClassValidator]
	}
	sum := sha256.Sum256(oracleResult)
	attack = p.attack.pick(binary.LittleEndian.Uint16(sum[0:2]))
	defense = p.defense.pick(binary.LittleEndian.Uint16(sum[2:4]))
	knowledge = p.knowledge.pick(binary.LittleEndian.Uint16(sum[4:6]))
	return attack, defense, knowledge
}

// XP awards applied at settlement. Winner always out-earns the loser;
// a drawn battle pays below the loser baseline.
const (
	winnerBaseXP = 40
	loserBaseXP  = 20
	drawBaseXP   = 15

	winnerPerCorrectXP = 4
	loserPerCorrectXP  = 2
	drawPerCorrectXP   = 2
)

// ExperienceAwards returns the XP for both players given the final scores.
// hasWinner false means a full tie.
func ExperienceAwards(winnerCorrect, loserCorrect uint8, hasWinner bool) (winnerXP, loserXP uint64) {
	if !hasWinner {
		a := drawBaseXP + uint64(winnerCorrect)*drawPerCorrectXP
		b := drawBaseXP + uint64(loserCorrect)*drawPerCorrectXP
		return a, b
	}
	winnerXP = winnerBaseXP + uint64(winnerCorrect)*winnerPerCorrectXP
	loserXP = loserBaseXP + uint64(loserCorrect)*loserPerCorrectXP
	return winnerXP, loserXP
}
