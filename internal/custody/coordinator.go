// Package custody moves battle records between the authoritative ledger
// and the fast execution context, preserving exactly one writer at any
// instant. Handoffs are two-phase: the source marks its records in transit
// before the destination takes ownership, so a record is never writable in
// both domains.
package custody

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/fastctx"
	"github.com/undeadlabs/arena/internal/ledger"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/pkg/addr"
	"github.com/undeadlabs/arena/pkg/arenadto"
)

// Coordinator executes delegation and undelegation for battle rooms.
type Coordinator struct {
	store   ledger.Store
	fast    *fastctx.Manager
	retries int
	backoff time.Duration
}

// New builds a coordinator. retries/backoff bound how long a transient
// custody mismatch is retried before surfacing to the caller.
func New(store ledger.Store, fast *fastctx.Manager, retries int, backoff time.Duration) *Coordinator {
	if retries < 1 {
		retries = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Coordinator{store: store, fast: fast, retries: retries, backoff: backoff}
}

// Delegate hands custody of a room and both warriors to the fast context.
// Legal only from ReadyForDelegation with all three records under ledger
// custody.
func (c *Coordinator) Delegate(ctx context.Context, actor, roomID string) (*domain.BattleRoom, error) {
	var out *domain.BattleRoom
	err := c.withRetry(ctx, func() error {
		var err error
		out, err = c.delegateOnce(ctx, actor, roomID)
		return err
	})
	return out, err
}

func (c *Coordinator) delegateOnce(ctx context.Context, actor, roomID string) (*domain.BattleRoom, error) {
	roomAddr := addr.Battle(roomID)
	room, cust, err := c.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	if !room.IsParticipant(actor) {
		cfg, err := c.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		if cfg == nil || cfg.Admin != actor {
			return nil, domain.ErrNotParticipant
		}
	}
	if room.State != domain.StateReadyForDelegation {
		return nil, domain.ErrInvalidBattleState
	}

	addrs := []string{roomAddr, room.WarriorA, room.WarriorB}
	warriors := make(map[string]*domain.Warrior, 2)
	for _, a := range addrs {
		recCust := cust
		if a != roomAddr {
			w, wc, err := c.store.GetWarrior(ctx, a)
			if err != nil {
				return nil, err
			}
			if w == nil {
				return nil, domain.ErrWarriorNotFound
			}
			warriors[a] = w
			recCust = wc
		}
		switch recCust {
		case domain.OwnedByEphemeral:
			return nil, domain.ErrAlreadyDelegated
		case domain.InTransit:
			return nil, domain.ErrOwnershipMismatch
		}
	}

	// two-phase handoff. Custody goes in transit first; the Delegated
	// state is sealed in the ledger only once the fast context holds the
	// records, so a failed install rolls back to a cleanly retryable room.
	marked := make([]string, 0, len(addrs))
	rollback := func() {
		for _, a := range marked {
			if rbErr := c.store.SetCustody(ctx, a, domain.OwnedByLedger); rbErr != nil {
				obslog.L().Warn("custody_rollback_failed",
					zap.String("room_id", roomID),
					zap.String("addr", a),
					zap.Error(rbErr))
			}
		}
	}
	for _, a := range addrs {
		if err := c.store.SetCustody(ctx, a, domain.InTransit); err != nil {
			rollback()
			return nil, err
		}
		marked = append(marked, a)
	}
	room.State = domain.StateDelegated
	if err := c.fast.Install(ctx, roomAddr, room, warriors); err != nil {
		rollback()
		return nil, err
	}
	if err := c.store.SealRoom(ctx, roomAddr, room); err != nil {
		if rmErr := c.fast.Remove(ctx, addrs...); rmErr != nil {
			obslog.L().Warn("custody_install_cleanup_failed",
				zap.String("room_id", roomID), zap.Error(rmErr))
		}
		rollback()
		return nil, err
	}
	for _, a := range addrs {
		if err := c.store.SetCustody(ctx, a, domain.OwnedByEphemeral); err != nil {
			return nil, err
		}
	}

	obslog.L().Info("custody_delegate",
		zap.String("room_id", roomID),
		zap.String("actor", actor),
	)
	return room, nil
}

// Undelegate returns custody to the ledger and merges the final battle
// results back. Safe to retry: a transient "still owned by prior domain"
// observation is surfaced as a retryable mismatch, never as corruption.
func (c *Coordinator) Undelegate(ctx context.Context, actor, roomID string) (*domain.BattleRoom, error) {
	var out *domain.BattleRoom
	err := c.withRetry(ctx, func() error {
		var err error
		out, err = c.undelegateOnce(ctx, actor, roomID)
		return err
	})
	return out, err
}

func (c *Coordinator) undelegateOnce(ctx context.Context, actor, roomID string) (*domain.BattleRoom, error) {
	roomAddr := addr.Battle(roomID)
	ledgerRoom, cust, err := c.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if ledgerRoom == nil {
		return nil, domain.ErrRoomNotFound
	}
	if cust == domain.OwnedByLedger {
		// already returned; idempotent observation, not an error
		return ledgerRoom, nil
	}

	held, err := c.fast.Holds(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if !held && cust == domain.InTransit {
		return nil, domain.ErrOwnershipMismatch
	}

	room, warriors, err := c.fast.BeginRelease(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if !room.IsParticipant(actor) {
		cfg, err := c.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		if cfg == nil || cfg.Admin != actor {
			return nil, domain.ErrNotParticipant
		}
	}

	for a, w := range warriors {
		if err := c.store.RestoreWarrior(ctx, a, w); err != nil {
			return nil, err
		}
	}
	if err := c.store.RestoreRoom(ctx, roomAddr, room); err != nil {
		return nil, err
	}

	addrs := []string{roomAddr, room.WarriorA}
	if room.WarriorB != "" {
		addrs = append(addrs, room.WarriorB)
	}
	if err := c.fast.Remove(ctx, addrs...); err != nil {
		return nil, err
	}

	obslog.L().Info("custody_undelegate",
		zap.String("room_id", roomID),
		zap.String("actor", actor),
		zap.String("winner", room.Winner),
	)
	return room, nil
}

// EmergencyEnd is the admin escape hatch for a battle that cannot
// continue: the room is forced to Completed with no winner, both warriors
// are healed to full HP and put on the reduced cooldown, and custody
// returns to the ledger regardless of which domain held the records. No
// experience, achievements, or leaderboard changes apply. It also
// recovers rooms stranded mid-handoff, where the custody tags say in
// transit but the fast context never received a copy.
func (c *Coordinator) EmergencyEnd(ctx context.Context, roomID string, cooldown time.Duration, now time.Time) (*domain.BattleRoom, error) {
	roomAddr := addr.Battle(roomID)
	room, _, err := c.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	switch room.State {
	case domain.StateSettled:
		return nil, domain.ErrAlreadySettled
	case domain.StateCancelled:
		return nil, domain.ErrInvalidBattleState
	}

	warriors := make(map[string]*domain.Warrior, 2)
	held, err := c.fast.Holds(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if held {
		room, warriors, err = c.fast.BeginRelease(ctx, roomAddr)
		if err != nil {
			return nil, err
		}
	} else {
		for _, a := range []string{room.WarriorA, room.WarriorB} {
			if a == "" {
				continue
			}
			w, _, err := c.store.GetWarrior(ctx, a)
			if err != nil {
				return nil, err
			}
			if w == nil {
				return nil, domain.ErrWarriorNotFound
			}
			warriors[a] = w
		}
	}

	room.State = domain.StateCompleted
	room.Winner = ""
	room.XPApplied = false
	if !room.BattleStartTime.IsZero() {
		room.BattleDuration = uint32(now.Sub(room.BattleStartTime) / time.Second)
	}
	for _, w := range warriors {
		w.CurrentHP = w.MaxHP
		w.CooldownExpiresAt = now.Add(cooldown)
	}

	for a, w := range warriors {
		if err := c.store.RestoreWarrior(ctx, a, w); err != nil {
			return nil, err
		}
	}
	if err := c.store.RestoreRoom(ctx, roomAddr, room); err != nil {
		return nil, err
	}

	addrs := []string{roomAddr, room.WarriorA}
	if room.WarriorB != "" {
		addrs = append(addrs, room.WarriorB)
	}
	if err := c.fast.Remove(ctx, addrs...); err != nil {
		return nil, err
	}

	scoreA, scoreB := room.Scores()
	obslog.L().Warn("custody_emergency_end",
		zap.String("room_id", roomID),
		zap.Bool("was_held", held),
		zap.Uint8("questions_done", room.CurrentQuestion),
		zap.Uint8("score_a", scoreA),
		zap.Uint8("score_b", scoreB),
	)
	return room, nil
}

// withRetry reruns fn with backoff while it reports a retryable domain
// error, up to the configured attempt budget.
func (c *Coordinator) withRetry(ctx context.Context, fn func() error) error {
	var last error
	for i := 0; i < c.retries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var de arenadto.DomainError
		if !errors.As(err, &de) || !de.Retryable {
			return err
		}
		last = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(i+1)):
		}
	}
	return last
}
