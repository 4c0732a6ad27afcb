package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/battle"
	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/internal/vrf"
	"github.com/undeadlabs/arena/pkg/addr"
)

func (e *Engine) createWarrior(ctx context.Context, c CreateWarrior) (*domain.Warrior, error) {
	cfg, err := e.activeConfig(ctx, true)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(c.Name)
	if name == "" || len(name) > domain.MaxWarriorNameLen {
		return nil, domain.ErrNameTooLong
	}
	class := domain.ParseWarriorClass(c.Class)
	if class == "" {
		return nil, domain.ErrInvalidClass
	}

	warriorAddr := addr.Warrior(c.Actor, name)
	if existing, _, err := e.store.GetWarrior(ctx, warriorAddr); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicateWarrior
	}

	profileAddr := addr.Profile(c.Actor)
	p, err := e.profile(ctx, c.Actor, profileAddr)
	if err != nil {
		return nil, err
	}
	if p.Balance < cfg.WarriorCreationFee {
		return nil, domain.ErrInsufficientFee
	}
	p.Balance -= cfg.WarriorCreationFee
	p.WarriorsCreated++

	now := e.now()
	w := &domain.Warrior{
		Owner:     c.Actor,
		Name:      name,
		DNA:       c.DNA,
		Class:     class,
		CreatedAt: now,
	}

	requestID := vrf.NewRequestID()
	if err := e.oracle.Request(ctx, requestID, c.ClientSeed); err != nil {
		return nil, err
	}
	w.PendingRequestID = requestID

	if err := e.store.PutWarrior(ctx, warriorAddr, w); err != nil {
		return nil, err
	}
	if err := e.store.PutPending(ctx, &domain.PendingRandomnessRequest{
		RequestID:   requestID,
		Target:      warriorAddr,
		Purpose:     domain.PurposeWarriorStats,
		ClientSeed:  c.ClientSeed,
		RequestedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := e.store.PutProfile(ctx, profileAddr, p); err != nil {
		return nil, err
	}

	achAddr := addr.Achievements(c.Actor)
	ach, err := e.achievements(ctx, c.Actor, achAddr)
	if err != nil {
		return nil, err
	}
	if ach.FirstWarriorDate.IsZero() {
		ach.FirstWarriorDate = now
	}
	ach.WarriorAchievement = battle.WarriorAchievement(p.WarriorsCreated)
	if err := e.store.PutAchievements(ctx, achAddr, ach); err != nil {
		return nil, err
	}

	cfg.TotalWarriors++
	if err := e.store.PutConfig(ctx, cfg); err != nil {
		return nil, err
	}

	obslog.L().Info("warrior created",
		zap.String("owner", c.Actor),
		zap.String("name", name),
		zap.String("class", string(class)),
		zap.String("request_id", requestID))
	e.publish("warrior_created", "", map[string]string{"addr": warriorAddr, "owner": c.Actor})
	return w, nil
}

func (e *Engine) finalizeWarriorStats(ctx context.Context, c FinalizeWarriorStats) (*domain.Warrior, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	w, _, err := e.store.GetWarrior(ctx, c.WarriorAddr)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrWarriorNotFound
	}
	if w.Owner != c.Actor {
		return nil, domain.ErrUnauthorized
	}
	if w.Finalized() {
		return nil, domain.ErrAlreadyFinalized
	}

	pending, err := e.store.GetPending(ctx, c.WarriorAddr)
	if err != nil {
		return nil, err
	}
	if pending == nil || pending.Purpose != domain.PurposeWarriorStats {
		return nil, domain.ErrNoPendingRequest
	}
	if c.RequestID != pending.RequestID {
		return nil, domain.ErrOracleMismatch
	}

	result := c.OracleResult
	if len(result) == 0 {
		result, err = e.oracle.Result(ctx, pending.RequestID)
		if err != nil {
			return nil, domain.ErrOracleMismatch
		}
	}

	w.BaseAttack, w.BaseDefense, w.BaseKnowledge = battle.DeriveStats(result, w.Class)
	w.MaxHP = domain.BaseHP
	w.CurrentHP = domain.BaseHP
	w.Level = 1
	w.PendingRequestID = ""

	if err := e.store.PutWarrior(ctx, c.WarriorAddr, w); err != nil {
		return nil, err
	}
	if err := e.store.DeletePending(ctx, c.WarriorAddr); err != nil {
		return nil, err
	}

	obslog.L().Info("warrior finalized",
		zap.String("owner", w.Owner),
		zap.String("name", w.Name),
		zap.Uint16("attack", w.BaseAttack),
		zap.Uint16("defense", w.BaseDefense),
		zap.Uint16("knowledge", w.BaseKnowledge))
	return w, nil
}
