package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/pkg/addr"
)

func (e *Engine) initialize(ctx context.Context, c Initialize) (*domain.Config, error) {
	if strings.TrimSpace(c.Actor) == "" {
		return nil, domain.ErrUnauthorized
	}
	existing, err := e.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyInit
	}
	cfg := &domain.Config{
		Admin:              c.Actor,
		WarriorCreationFee: c.WarriorCreationFee,
		BattleEntryFee:     c.BattleEntryFee,
		CooldownSeconds:    c.CooldownSeconds,
		VRFOracle:          c.VRFOracle,
		CreatedAt:          e.now(),
	}
	if err := e.store.PutConfig(ctx, cfg); err != nil {
		return nil, err
	}
	obslog.L().Info("game initialized", zap.String("admin", cfg.Admin))
	return cfg, nil
}

func (e *Engine) updateGameConfig(ctx context.Context, c UpdateGameConfig) (*domain.Config, error) {
	cfg, err := e.activeConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	if c.Actor != cfg.Admin {
		return nil, domain.ErrUnauthorized
	}
	if c.WarriorCreationFee != nil {
		cfg.WarriorCreationFee = *c.WarriorCreationFee
	}
	if c.BattleEntryFee != nil {
		cfg.BattleEntryFee = *c.BattleEntryFee
	}
	if c.CooldownSeconds != nil {
		cfg.CooldownSeconds = *c.CooldownSeconds
	}
	if c.Paused != nil {
		cfg.Paused = *c.Paused
	}
	if err := e.store.PutConfig(ctx, cfg); err != nil {
		return nil, err
	}
	obslog.L().Info("game config updated", zap.Bool("paused", cfg.Paused))
	return cfg, nil
}

func (e *Engine) deposit(ctx context.Context, c Deposit) (*domain.UserProfile, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Actor) == "" {
		return nil, domain.ErrUnauthorized
	}
	profileAddr := addr.Profile(c.Actor)
	p, err := e.profile(ctx, c.Actor, profileAddr)
	if err != nil {
		return nil, err
	}
	p.Balance += c.Amount
	if err := e.store.PutProfile(ctx, profileAddr, p); err != nil {
		return nil, err
	}
	return p, nil
}
