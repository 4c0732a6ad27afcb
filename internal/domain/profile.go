package domain

import "time"

// Config is the singleton game configuration and aggregate counters,
// owned by the admin identity and created once at bootstrap.
type Config struct {
	Admin              string    `json:"admin"`
	WarriorCreationFee uint64    `json:"warrior_creation_fee"`
	BattleEntryFee     uint64    `json:"battle_entry_fee"`
	CooldownSeconds    uint64    `json:"cooldown_seconds"`
	VRFOracle          string    `json:"vrf_oracle"`
	Paused             bool      `json:"paused"`
	TotalWarriors      uint64    `json:"total_warriors"`
	TotalBattles       uint64    `json:"total_battles"`
	CreatedAt          time.Time `json:"created_at"`
}

// UserProfile aggregates a player's lifetime record. Counters only grow.
type UserProfile struct {
	Owner              string    `json:"owner"`
	WarriorsCreated    uint32    `json:"warriors_created"`
	TotalBattlesFought uint32    `json:"total_battles_fought"`
	TotalBattlesWon    uint32    `json:"total_battles_won"`
	TotalBattlesLost   uint32    `json:"total_battles_lost"`
	TotalPoints        uint64    `json:"total_points"`
	Balance            uint64    `json:"balance"`
	JoinDate           time.Time `json:"join_date"`
}

// AchievementLevel tiers are computed from profile counters at settlement.
type AchievementLevel uint8

const (
	AchievementNone AchievementLevel = iota
	AchievementBronze
	AchievementSilver
	AchievementGold
	AchievementPlatinum
	AchievementDiamond
)

func (l AchievementLevel) String() string {
	switch l {
	case AchievementBronze:
		return "Bronze"
	case AchievementSilver:
		return "Silver"
	case AchievementGold:
		return "Gold"
	case AchievementPlatinum:
		return "Platinum"
	case AchievementDiamond:
		return "Diamond"
	}
	return "None"
}

// UserAchievements tracks per-player unlocked tiers.
type UserAchievements struct {
	Owner              string           `json:"owner"`
	Overall            AchievementLevel `json:"overall"`
	WarriorAchievement AchievementLevel `json:"warrior_achievement"`
	WinnerAchievement  AchievementLevel `json:"winner_achievement"`
	BattleAchievement  AchievementLevel `json:"battle_achievement"`
	FirstWarriorDate   time.Time        `json:"first_warrior_date,omitempty"`
	FirstVictoryDate   time.Time        `json:"first_victory_date,omitempty"`
}

const LeaderboardSize = 20

// LeaderboardEntry is one ranked (player, score) pair.
type LeaderboardEntry struct {
	Player string `json:"player"`
	Score  uint64 `json:"score"`
}

// Leaderboard keeps the top players by total points, sorted descending.
type Leaderboard struct {
	Entries     []LeaderboardEntry `json:"entries"`
	LastUpdated time.Time          `json:"last_updated"`
}

// Upsert records a player's score and re-ranks, keeping the top entries.
func (l *Leaderboard) Upsert(player string, score uint64, now time.Time) {
	found := false
	for i := range l.Entries {
		if l.Entries[i].Player == player {
			l.Entries[i].Score = score
			found = true
			break
		}
	}
	if !found {
		l.Entries = append(l.Entries, LeaderboardEntry{Player: player, Score: score})
	}
	// insertion sort keeps the slice small and stable
	for i := 1; i < len(l.Entries); i++ {
		for j := i; j > 0 && l.Entries[j].Score > l.Entries[j-1].Score; j-- {
			l.Entries[j], l.Entries[j-1] = l.Entries[j-1], l.Entries[j]
		}
	}
	if len(l.Entries) > LeaderboardSize {
		l.Entries = l.Entries[:LeaderboardSize]
	}
	l.LastUpdated = now
}

// Rank returns the 1-based rank of player, 0 when absent.
func (l *Leaderboard) Rank(player string) int {
	for i := range l.Entries {
		if l.Entries[i].Player == player {
			return i + 1
		}
	}
	return 0
}

// RandomnessPurpose tags what a pending oracle request will finalize.
type RandomnessPurpose string

const (
	PurposeWarriorStats     RandomnessPurpose = "warrior_stats"
	PurposeConceptSelection RandomnessPurpose = "concept_selection"
)

// PendingRandomnessRequest correlates an outstanding oracle request to the
// record awaiting its callback. Removed once the callback is consumed.
type PendingRandomnessRequest struct {
	RequestID   string            `json:"request_id"`
	Target      string            `json:"target"`
	Purpose     RandomnessPurpose `json:"purpose"`
	ClientSeed  uint8             `json:"client_seed"`
	RequestedAt time.Time         `json:"requested_at"`
}
