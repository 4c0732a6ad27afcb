// Package addr derives the deterministic address of every persisted record
// from a fixed tag plus its identifying fields, so clients can recompute an
// address without querying the store.
package addr

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	tagConfig       = "config"
	tagWarrior      = "undead_warrior"
	tagBattle       = "battleroom"
	tagProfile      = "user_profile"
	tagAchievements = "user_achievements"
	tagLeaderboard  = "leaderboard"
)

func derive(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Config returns the singleton configuration address.
func Config() string { return derive(tagConfig) }

// Warrior returns the address for a warrior keyed by (owner, name).
func Warrior(owner, name string) string { return derive(tagWarrior, owner, name) }

// Battle returns the address for a battle room keyed by its room id.
func Battle(roomID string) string { return derive(tagBattle, roomID) }

// Profile returns the per-player profile address.
func Profile(owner string) string { return derive(tagProfile, owner) }

// Achievements returns the per-player achievements address.
func Achievements(owner string) string { return derive(tagAchievements, owner) }

// Leaderboard returns the singleton leaderboard address.
func Leaderboard() string { return derive(tagLeaderboard) }
