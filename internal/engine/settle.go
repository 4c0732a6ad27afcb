package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/battle"
	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/pkg/addr"
)

// updateFinalState is the last step of a battle: once custody is back with
// the ledger it applies cooldowns, lifetime profiles, achievements, the
// leaderboard, and the aggregate counters, then marks the room Settled.
// Invoking it again after Settled is a no-op.
func (e *Engine) updateFinalState(ctx context.Context, c UpdateFinalState) (*domain.BattleRoom, error) {
	cfg, err := e.activeConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, cust, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if r.State == domain.StateSettled {
		return r, nil
	}
	if cust != domain.OwnedByLedger {
		return nil, domain.ErrOwnershipMismatch
	}
	if !r.IsParticipant(c.Actor) && c.Actor != cfg.Admin {
		return nil, domain.ErrNotParticipant
	}
	if r.State != domain.StateCompleted || !r.XPApplied {
		return nil, domain.ErrInvalidBattleState
	}

	now := e.now()
	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
	for _, wAddr := range []string{r.WarriorA, r.WarriorB} {
		w, _, err := e.store.GetWarrior(ctx, wAddr)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, domain.ErrWarriorNotFound
		}
		w.CooldownExpiresAt = now.Add(cooldown)
		if err := e.store.PutWarrior(ctx, wAddr, w); err != nil {
			return nil, err
		}
	}

	xpA, xpB := awardedExperience(r)
	if err := e.settlePlayer(ctx, r.PlayerA, r.Winner == r.PlayerA, r.Winner != "", xpA, now); err != nil {
		return nil, err
	}
	if err := e.settlePlayer(ctx, r.PlayerB, r.Winner == r.PlayerB, r.Winner != "", xpB, now); err != nil {
		return nil, err
	}

	cfg.TotalBattles++
	if err := e.store.PutConfig(ctx, cfg); err != nil {
		return nil, err
	}

	r.State = domain.StateSettled
	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}

	obslog.L().Info("battle finalized",
		zap.String("room", r.RoomID),
		zap.String("winner", r.Winner),
		zap.Uint64("xp_a", xpA),
		zap.Uint64("xp_b", xpB))
	e.publish("battle_finalized", r.RoomID, map[string]string{"winner": r.Winner})
	return r, nil
}

// awardedExperience recomputes the per-player XP the fast context granted,
// keyed off the recorded winner and scores.
func awardedExperience(r *domain.BattleRoom) (xpA, xpB uint64) {
	switch r.Winner {
	case r.PlayerA:
		return orderedAwards(r.CorrectA, r.CorrectB, true)
	case r.PlayerB:
		xpB, xpA = orderedAwards(r.CorrectB, r.CorrectA, true)
		return xpA, xpB
	}
	return orderedAwards(r.CorrectA, r.CorrectB, false)
}

func orderedAwards(first, second uint8, hasWinner bool) (uint64, uint64) {
	return battle.ExperienceAwards(first, second, hasWinner)
}

// settlePlayer folds one battle outcome into a player's profile,
// achievements, and leaderboard slot.
func (e *Engine) settlePlayer(ctx context.Context, player string, won, hasWinner bool, xp uint64, now time.Time) error {
	profileAddr := addr.Profile(player)
	p, err := e.profile(ctx, player, profileAddr)
	if err != nil {
		return err
	}
	p.TotalBattlesFought++
	if hasWinner {
		if won {
			p.TotalBattlesWon++
		} else {
			p.TotalBattlesLost++
		}
	}
	p.TotalPoints += xp
	if err := e.store.PutProfile(ctx, profileAddr, p); err != nil {
		return err
	}

	achAddr := addr.Achievements(player)
	a, err := e.achievements(ctx, player, achAddr)
	if err != nil {
		return err
	}
	if won && a.FirstVictoryDate.IsZero() {
		a.FirstVictoryDate = now
	}
	a.WinnerAchievement = battle.WinnerAchievement(p.TotalBattlesWon)
	a.BattleAchievement = battle.BattleAchievement(p.TotalBattlesFought)
	a.Overall = battle.OverallAchievement(p.TotalPoints)
	if err := e.store.PutAchievements(ctx, achAddr, a); err != nil {
		return err
	}

	lb, err := e.store.GetLeaderboard(ctx)
	if err != nil {
		return err
	}
	if lb == nil {
		lb = &domain.Leaderboard{}
	}
	lb.Upsert(player, p.TotalPoints, now)
	return e.store.PutLeaderboard(ctx, lb)
}

// emergencyEndBattle is the admin intervention for a battle that cannot
// continue: the room ends as a no-contest with no winner, both warriors
// are healed, and custody is pulled back to the ledger. No XP or
// leaderboard changes apply; the cooldown is an eighth of the normal one.
func (e *Engine) emergencyEndBattle(ctx context.Context, c EmergencyEndBattle) (*domain.BattleRoom, error) {
	cfg, err := e.activeConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	if c.Actor == "" || c.Actor != cfg.Admin {
		return nil, domain.ErrUnauthorized
	}

	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second / 8
	r, err := e.coord.EmergencyEnd(ctx, c.RoomID, cooldown, e.now())
	if err != nil {
		return nil, err
	}

	obslog.L().Warn("battle emergency ended",
		zap.String("room", r.RoomID),
		zap.String("admin", c.Actor))
	e.publish("battle_emergency_ended", r.RoomID, nil)
	return r, nil
}
