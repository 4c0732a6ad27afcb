package battle

import "github.com/undeadlabs/arena/internal/domain"

// Achievement thresholds, recomputed from profile counters at settlement.

func WarriorAchievement(warriorCount uint32) domain.AchievementLevel {
	switch {
	case warriorCount == 0:
		return domain.AchievementNone
	case warriorCount <= 5:
		return domain.AchievementBronze
	case warriorCount <= 11:
		return domain.AchievementSilver
	case warriorCount <= 20:
		return domain.AchievementGold
	case warriorCount <= 50:
		return domain.AchievementPlatinum
	}
	return domain.AchievementDiamond
}

func WinnerAchievement(wins uint32) domain.AchievementLevel {
	switch {
	case wins == 0:
		return domain.AchievementNone
	case wins <= 2:
		return domain.AchievementBronze
	case wins <= 9:
		return domain.AchievementSilver
	case wins <= 24:
		return domain.AchievementGold
	case wins <= 49:
		return domain.AchievementPlatinum
	}
	return domain.AchievementDiamond
}

func BattleAchievement(battles uint32) domain.AchievementLevel {
	switch {
	case battles <= 4:
		return domain.AchievementNone
	case battles <= 14:
		return domain.AchievementBronze
	case battles <= 39:
		return domain.AchievementSilver
	case battles <= 99:
		return domain.AchievementGold
	case battles <= 199:
		return domain.AchievementPlatinum
	}
	return domain.AchievementDiamond
}

func OverallAchievement(totalPoints uint64) domain.AchievementLevel {
	switch {
	case totalPoints < 100:
		return domain.AchievementNone
	case totalPoints < 500:
		return domain.AchievementBronze
	case totalPoints < 1500:
		return domain.AchievementSilver
	case totalPoints < 5000:
		return domain.AchievementGold
	case totalPoints < 15000:
		return domain.AchievementPlatinum
	}
	return domain.AchievementDiamond
}
