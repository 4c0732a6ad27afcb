// Package engine applies the arena command set against the ledger and the
// ephemeral battle layer. Every command validates its preconditions and
// either applies completely or leaves no partial effect.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/catalog"
	"github.com/undeadlabs/arena/internal/custody"
	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/events"
	"github.com/undeadlabs/arena/internal/fastctx"
	"github.com/undeadlabs/arena/internal/ledger"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/internal/vrf"
)

// Engine wires the authoritative store, the ephemeral battle layer, the
// custody coordinator, and the randomness oracle behind one command surface.
type Engine struct {
	store   ledger.Store
	fast    *fastctx.Manager
	coord   *custody.Coordinator
	oracle  vrf.Oracle
	catalog *catalog.Catalog
	hub     *events.Hub

	now func() time.Time
}

// New builds an Engine. hub may be nil when no event feed is attached.
func New(store ledger.Store, fast *fastctx.Manager, coord *custody.Coordinator, oracle vrf.Oracle, cat *catalog.Catalog, hub *events.Hub) *Engine {
	return &Engine{
		store:   store,
		fast:    fast,
		coord:   coord,
		oracle:  oracle,
		catalog: cat,
		hub:     hub,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the engine clock. Test use only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) publish(typ, room string, data any) {
	if e.hub != nil {
		e.hub.Publish(events.Event{Type: typ, Room: room, Data: data})
	}
}

// Dispatch routes a command to its handler. The returned value is the
// primary record the command acted on.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (any, error) {
	start := time.Now()
	out, err := e.dispatch(ctx, cmd)
	if err != nil {
		obslog.L().Warn("command rejected",
			zap.String("command", commandName(cmd)),
			zap.Error(err),
			zap.Duration("took", time.Since(start)))
		return nil, err
	}
	obslog.L().Info("command applied",
		zap.String("command", commandName(cmd)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case Initialize:
		return e.initialize(ctx, c)
	case UpdateGameConfig:
		return e.updateGameConfig(ctx, c)
	case Deposit:
		return e.deposit(ctx, c)
	case CreateWarrior:
		return e.createWarrior(ctx, c)
	case FinalizeWarriorStats:
		return e.finalizeWarriorStats(ctx, c)
	case CreateBattleRoom:
		return e.createBattleRoom(ctx, c)
	case JoinBattleRoom:
		return e.joinBattleRoom(ctx, c)
	case SelectBattleConcepts:
		return e.selectBattleConcepts(ctx, c)
	case FinalizeConceptSelection:
		return e.finalizeConceptSelection(ctx, c)
	case SignalReady:
		return e.signalReady(ctx, c)
	case CancelBattleRoom:
		return e.cancelBattleRoom(ctx, c)
	case DelegateBattle:
		return e.delegateBattle(ctx, c)
	case StartBattle:
		return e.startBattle(ctx, c)
	case AnswerQuestion:
		return e.answerQuestion(ctx, c)
	case SettleBattleRoom:
		return e.settleBattleRoom(ctx, c)
	case UndelegateBattleRoom:
		return e.undelegateBattleRoom(ctx, c)
	case UpdateFinalState:
		return e.updateFinalState(ctx, c)
	case EmergencyEndBattle:
		return e.emergencyEndBattle(ctx, c)
	}
	return nil, domain.ErrUnauthorized
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case Initialize:
		return "initialize"
	case UpdateGameConfig:
		return "update_game_config"
	case Deposit:
		return "deposit"
	case CreateWarrior:
		return "create_warrior"
	case FinalizeWarriorStats:
		return "finalize_warrior_stats"
	case CreateBattleRoom:
		return "create_battle_room"
	case JoinBattleRoom:
		return "join_battle_room"
	case SelectBattleConcepts:
		return "select_battle_concepts"
	case FinalizeConceptSelection:
		return "finalize_concept_selection"
	case SignalReady:
		return "signal_ready"
	case CancelBattleRoom:
		return "cancel_battle_room"
	case DelegateBattle:
		return "delegate_battle"
	case StartBattle:
		return "start_battle"
	case AnswerQuestion:
		return "answer_question"
	case SettleBattleRoom:
		return "settle_battle_room"
	case UndelegateBattleRoom:
		return "undelegate_battle_room"
	case UpdateFinalState:
		return "update_final_state"
	case EmergencyEndBattle:
		return "emergency_end_battle"
	}
	return "unknown"
}

// activeConfig fetches the game config, rejecting when uninitialized. When
// requireRunning is set, a paused game rejects the command too; pause gates
// the entry points only so in-flight battles can always finish and settle.
func (e *Engine) activeConfig(ctx context.Context, requireRunning bool) (*domain.Config, error) {
	cfg, err := e.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	if requireRunning && cfg.Paused {
		return nil, domain.ErrGamePaused
	}
	return cfg, nil
}

// profile loads the actor's profile, creating an empty one on first touch.
func (e *Engine) profile(ctx context.Context, owner string, profileAddr string) (*domain.UserProfile, error) {
	p, err := e.store.GetProfile(ctx, profileAddr)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.UserProfile{Owner: owner, JoinDate: e.now()}
	}
	return p, nil
}

// achievements loads the actor's achievements record, creating it when absent.
func (e *Engine) achievements(ctx context.Context, owner string, achAddr string) (*domain.UserAchievements, error) {
	a, err := e.store.GetAchievements(ctx, achAddr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = &domain.UserAchievements{Owner: owner}
	}
	return a, nil
}
