package battle

import (
	"fmt"
	"testing"

	"github.com/undeadlabs/arena/internal/domain"
)

func TestDeriveStatsWithinClassBounds(t *testing.T) {
	classes := []domain.WarriorClass{
		domain.ClassValidator, domain.ClassOracle, domain.ClassGuardian, domain.ClassDaemon,
	}
	for _, class := range classes {
		atkLo, atkHi, defLo, defHi, knwLo, knwHi := StatBounds(class)
		for i := 0; i < 100; i++ {
			seed := []byte(fmt.Sprintf("oracle-result-%d", i))
			atk, def, knw := DeriveStats(seed, class)
			if atk < atkLo || atk > atkHi {
				t.Fatalf("%s: attack %d outside [%d,%d]", class, atk, atkLo, atkHi)
			}
			if def < defLo || def > defHi {
				t.Fatalf("%s: defense %d outside [%d,%d]", class, def, defLo, defHi)
			}
			if knw < knwLo || knw > knwHi {
				t.Fatalf("%s: knowledge %d outside [%d,%d]", class, knw, knwLo, knwHi)
			}
		}
	}
}

func TestDeriveStatsDeterministic(t *testing.T) {
	seed := []byte("same-result")
	a1, d1, k1 := DeriveStats(seed, domain.ClassOracle)
	a2, d2, k2 := DeriveStats(seed, domain.ClassOracle)
	if a1 != a2 || d1 != d2 || k1 != k2 {
		t.Fatalf("same oracle result diverged: (%d,%d,%d) vs (%d,%d,%d)", a1, d1, k1, a2, d2, k2)
	}
}

func TestExperienceAwards(t *testing.T) {
	for wc := uint8(0); wc <= 10; wc++ {
		for lc := uint8(0); lc <= 10; lc++ {
			win, lose := ExperienceAwards(wc, lc, true)
			if win < lose {
				t.Fatalf("winner XP %d below loser XP %d (correct %d/%d)", win, lose, wc, lc)
			}
		}
	}
	// draw pays below the loser baseline but still rewards answers
	a, b := ExperienceAwards(5, 3, false)
	if a != 15+5*2 || b != 15+3*2 {
		t.Fatalf("draw awards = (%d,%d)", a, b)
	}
}

func TestAchievementThresholds(t *testing.T) {
	if got := WarriorAchievement(0); got != domain.AchievementNone {
		t.Fatalf("0 warriors => %v", got)
	}
	if got := WarriorAchievement(1); got != domain.AchievementBronze {
		t.Fatalf("1 warrior => %v", got)
	}
	if got := WarriorAchievement(12); got != domain.AchievementGold {
		t.Fatalf("12 warriors => %v", got)
	}
	if got := WarriorAchievement(51); got != domain.AchievementDiamond {
		t.Fatalf("51 warriors => %v", got)
	}
	if got := WinnerAchievement(10); got != domain.AchievementGold {
		t.Fatalf("10 wins => %v", got)
	}
	if got := BattleAchievement(4); got != domain.AchievementNone {
		t.Fatalf("4 battles => %v", got)
	}
	if got := BattleAchievement(15); got != domain.AchievementSilver {
		t.Fatalf("15 battles => %v", got)
	}
	if got := OverallAchievement(99); got != domain.AchievementNone {
		t.Fatalf("99 points => %v", got)
	}
	if got := OverallAchievement(15000); got != domain.AchievementDiamond {
		t.Fatalf("15000 points => %v", got)
	}
}
