package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestLeaderboardUpsertOrdering(t *testing.T) {
	now := time.Now()
	var l Leaderboard
	l.Upsert("alice", 300, now)
	l.Upsert("bob", 500, now)
	l.Upsert("carol", 100, now)
	if l.Entries[0].Player != "bob" || l.Entries[1].Player != "alice" || l.Entries[2].Player != "carol" {
		t.Fatalf("unexpected order: %+v", l.Entries)
	}
	if l.Rank("bob") != 1 || l.Rank("carol") != 3 || l.Rank("nobody") != 0 {
		t.Fatalf("rank mismatch")
	}

	// updating an existing player re-ranks instead of duplicating
	l.Upsert("carol", 900, now)
	if len(l.Entries) != 3 || l.Entries[0].Player != "carol" {
		t.Fatalf("re-rank failed: %+v", l.Entries)
	}
}

func TestLeaderboardTruncatesToTop(t *testing.T) {
	now := time.Now()
	var l Leaderboard
	for i := 0; i < LeaderboardSize+10; i++ {
		l.Upsert(fmt.Sprintf("p%02d", i), uint64(i*10), now)
	}
	if len(l.Entries) != LeaderboardSize {
		t.Fatalf("kept %d entries", len(l.Entries))
	}
	for i := 1; i < len(l.Entries); i++ {
		if l.Entries[i].Score > l.Entries[i-1].Score {
			t.Fatalf("not sorted at %d", i)
		}
	}
	// the lowest scorers fell off
	if l.Rank("p00") != 0 {
		t.Fatalf("p00 should have been truncated")
	}
}

func TestBattleStateOrder(t *testing.T) {
	forward := []BattleState{
		StateWaitingForOpponent, StateQuestionsSelected, StateAwaitingReady,
		StateReadyForDelegation, StateDelegated, StateInProgress,
		StateCompleted, StateSettled,
	}
	for i := 1; i < len(forward); i++ {
		if forward[i] <= forward[i-1] {
			t.Fatalf("%s not after %s", forward[i], forward[i-1])
		}
	}
	if StateCancelled <= StateSettled {
		t.Fatalf("cancelled must sit outside the forward chain")
	}
}

func TestWarriorFinalizedAndCooldown(t *testing.T) {
	var w Warrior
	if w.Finalized() {
		t.Fatal("fresh warrior reports finalized")
	}
	w.MaxHP = BaseHP
	if !w.Finalized() {
		t.Fatal("warrior with HP not finalized")
	}
	now := time.Now()
	w.CooldownExpiresAt = now.Add(time.Hour)
	if w.OffCooldown(now) {
		t.Fatal("warrior inside cooldown reported ready")
	}
	if !w.OffCooldown(now.Add(time.Hour)) {
		t.Fatal("warrior past cooldown reported blocked")
	}
}
