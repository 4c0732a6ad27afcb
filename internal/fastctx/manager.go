// Package fastctx is the low-latency execution context. Battle turns run
// against redis copies of the delegated records; the coordinator installs
// them at delegation and drains them at undelegation.
package fastctx

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/battle"
	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
)

const (
	recordTTL = 24 * time.Hour

	// conflictAttempts bounds optimistic-transaction retries before the
	// conflict is surfaced to the caller.
	conflictAttempts = 3
)

var errConflict = errors.New("fastctx: concurrent update, retry")

// Manager owns the redis client for the ephemeral layer.
type Manager struct {
	rdb *redis.Client
}

// NewManager connects to redis and verifies the connection.
func NewManager(redisURL string) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL required for fast execution context")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Manager{rdb: rdb}, nil
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

func roomKey(addr string) string    { return "arena:room:" + addr }
func warriorKey(addr string) string { return "arena:warrior:" + addr }
func custodyKey(addr string) string { return "arena:custody:" + addr }

// Install writes delegated copies of a room and its two warriors and marks
// them owned by this layer. Called by the coordinator during phase 2.
func (m *Manager) Install(ctx context.Context, roomAddr string, room *domain.BattleRoom, warriors map[string]*domain.Warrior) error {
	pipe := m.rdb.TxPipeline()
	rawRoom, err := json.Marshal(room)
	if err != nil {
		return err
	}
	pipe.Set(ctx, roomKey(roomAddr), rawRoom, recordTTL)
	pipe.Set(ctx, custodyKey(roomAddr), domain.OwnedByEphemeral.String(), recordTTL)
	for a, w := range warriors {
		raw, err := json.Marshal(w)
		if err != nil {
			return err
		}
		pipe.Set(ctx, warriorKey(a), raw, recordTTL)
		pipe.Set(ctx, custodyKey(a), domain.OwnedByEphemeral.String(), recordTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Holds reports whether this layer currently owns the record.
func (m *Manager) Holds(ctx context.Context, addr string) (bool, error) {
	v, err := m.rdb.Get(ctx, custodyKey(addr)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == domain.OwnedByEphemeral.String(), nil
}

// GetRoom returns the delegated room copy, nil when absent.
func (m *Manager) GetRoom(ctx context.Context, roomAddr string) (*domain.BattleRoom, error) {
	raw, err := m.rdb.Get(ctx, roomKey(roomAddr)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r domain.BattleRoom
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetWarrior returns the delegated warrior copy, nil when absent.
func (m *Manager) GetWarrior(ctx context.Context, warriorAddr string) (*domain.Warrior, error) {
	raw, err := m.rdb.Get(ctx, warriorKey(warriorAddr)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var w domain.Warrior
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// turnState is everything a battle transaction reads and may write.
type turnState struct {
	room     *domain.BattleRoom
	warriorA *domain.Warrior
	warriorB *domain.Warrior
}

// runTurn executes fn inside an optimistic transaction over the room and
// both warrior records. The transaction aborts when any watched record moves
// underneath it; a bounded number of conflicts is retried transparently.
func (m *Manager) runTurn(ctx context.Context, roomAddr string, fn func(*turnState) error) (*domain.BattleRoom, error) {
	var result *domain.BattleRoom

	attempt := func() error {
		pre, err := m.GetRoom(ctx, roomAddr)
		if err != nil {
			return err
		}
		if pre == nil {
			return domain.ErrOwnershipMismatch
		}
		keys := []string{roomKey(roomAddr), custodyKey(roomAddr)}
		var warriorAddrs []string
		if pre.WarriorA != "" {
			warriorAddrs = append(warriorAddrs, pre.WarriorA)
		}
		if pre.WarriorB != "" {
			warriorAddrs = append(warriorAddrs, pre.WarriorB)
		}
		for _, a := range warriorAddrs {
			keys = append(keys, warriorKey(a), custodyKey(a))
		}

		return m.rdb.Watch(ctx, func(tx *redis.Tx) error {
			st := &turnState{}

			rawRoom, err := tx.Get(ctx, roomKey(roomAddr)).Bytes()
			if err == redis.Nil {
				return domain.ErrOwnershipMismatch
			}
			if err != nil {
				return err
			}
			st.room = &domain.BattleRoom{}
			if err := json.Unmarshal(rawRoom, st.room); err != nil {
				return err
			}

			cust, err := tx.Get(ctx, custodyKey(roomAddr)).Result()
			if err != nil && err != redis.Nil {
				return err
			}
			if cust != domain.OwnedByEphemeral.String() {
				return domain.ErrOwnershipMismatch
			}

			load := func(a string) (*domain.Warrior, error) {
				if a == "" {
					return nil, nil
				}
				raw, err := tx.Get(ctx, warriorKey(a)).Bytes()
				if err == redis.Nil {
					return nil, domain.ErrOwnershipMismatch
				}
				if err != nil {
					return nil, err
				}
				var w domain.Warrior
				if err := json.Unmarshal(raw, &w); err != nil {
					return nil, err
				}
				return &w, nil
			}
			if st.warriorA, err = load(st.room.WarriorA); err != nil {
				return err
			}
			if st.warriorB, err = load(st.room.WarriorB); err != nil {
				return err
			}

			if err := fn(st); err != nil {
				return err
			}

			pipe := tx.TxPipeline()
			rawOut, err := json.Marshal(st.room)
			if err != nil {
				return err
			}
			pipe.Set(ctx, roomKey(roomAddr), rawOut, recordTTL)
			if st.warriorA != nil {
				raw, err := json.Marshal(st.warriorA)
				if err != nil {
					return err
				}
				pipe.Set(ctx, warriorKey(st.room.WarriorA), raw, recordTTL)
			}
			if st.warriorB != nil {
				raw, err := json.Marshal(st.warriorB)
				if err != nil {
					return err
				}
				pipe.Set(ctx, warriorKey(st.room.WarriorB), raw, recordTTL)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			result = st.room
			return nil
		}, keys...)
	}

	for i := 0; i < conflictAttempts; i++ {
		err := attempt()
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, errConflict
}

// StartBattle moves a delegated room into play: Delegated → InProgress,
// question index reset, duration timer started.
func (m *Manager) StartBattle(ctx context.Context, actor, roomAddr string) (*domain.BattleRoom, error) {
	room, err := m.runTurn(ctx, roomAddr, func(st *turnState) error {
		r := st.room
		if !r.IsParticipant(actor) {
			return domain.ErrNotParticipant
		}
		if r.State != domain.StateDelegated {
			return domain.ErrInvalidBattleState
		}
		if r.Winner != "" {
			return domain.ErrAlreadySettled
		}
		if st.warriorA == nil || st.warriorB == nil {
			return domain.ErrWarriorNotFound
		}
		if st.warriorA.CurrentHP == 0 || st.warriorB.CurrentHP == 0 {
			return domain.ErrWarriorDefeated
		}

		r.State = domain.StateInProgress
		r.CurrentQuestion = 0
		r.CorrectA, r.CorrectB = 0, 0
		r.CriticalHits = 0
		r.BattleDuration = 0
		r.BattleStartTime = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_start",
		zap.String("room_id", room.RoomID),
		zap.String("actor", actor),
	)
	return room, nil
}

// Settle applies experience and win/loss records inside the fast context
// once a battle is Completed. Runs at most once per room.
func (m *Manager) Settle(ctx context.Context, actor, roomAddr string) (*domain.BattleRoom, error) {
	room, err := m.runTurn(ctx, roomAddr, func(st *turnState) error {
		r := st.room
		if !r.IsParticipant(actor) {
			return domain.ErrNotParticipant
		}
		if r.State != domain.StateCompleted {
			return domain.ErrInvalidBattleState
		}
		if r.XPApplied {
			return domain.ErrAlreadySettled
		}
		if st.warriorA == nil || st.warriorB == nil {
			return domain.ErrWarriorNotFound
		}

		applySettlement(r, st.warriorA, st.warriorB)
		r.XPApplied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_settle",
		zap.String("room_id", room.RoomID),
		zap.String("winner", room.Winner),
		zap.Uint8("score_a", room.CorrectA),
		zap.Uint8("score_b", room.CorrectB),
	)
	return room, nil
}

// applySettlement mutates both warriors with XP and battle records.
func applySettlement(r *domain.BattleRoom, wa, wb *domain.Warrior) {
	switch r.Winner {
	case r.PlayerA:
		xpA, xpB := battle.ExperienceAwards(r.CorrectA, r.CorrectB, true)
		wa.BattlesWon++
		wb.BattlesLost++
		wa.ExperiencePoints += xpA
		wb.ExperiencePoints += xpB
	case r.PlayerB:
		xpB, xpA := battle.ExperienceAwards(r.CorrectB, r.CorrectA, true)
		wb.BattlesWon++
		wa.BattlesLost++
		wa.ExperiencePoints += xpA
		wb.ExperiencePoints += xpB
	default:
		xpA, xpB := battle.ExperienceAwards(r.CorrectA, r.CorrectB, false)
		wa.ExperiencePoints += xpA
		wb.ExperiencePoints += xpB
	}
}

// BeginRelease is phase 1 of undelegation: the records stop accepting
// writes in this layer but remain readable. Returns the final snapshot.
func (m *Manager) BeginRelease(ctx context.Context, roomAddr string) (*domain.BattleRoom, map[string]*domain.Warrior, error) {
	room, err := m.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, domain.ErrOwnershipMismatch
	}
	if room.State != domain.StateCompleted || !room.XPApplied {
		return nil, nil, domain.ErrInvalidBattleState
	}

	addrs := []string{roomAddr, room.WarriorA}
	if room.WarriorB != "" {
		addrs = append(addrs, room.WarriorB)
	}
	pipe := m.rdb.TxPipeline()
	for _, a := range addrs {
		pipe.Set(ctx, custodyKey(a), domain.InTransit.String(), recordTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, err
	}

	warriors := make(map[string]*domain.Warrior)
	for _, a := range addrs[1:] {
		w, err := m.GetWarrior(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		if w == nil {
			return nil, nil, domain.ErrWarriorNotFound
		}
		warriors[a] = w
	}
	return room, warriors, nil
}

// Remove drops the delegated copies after the ledger has the final state.
// Phase 2 of undelegation.
func (m *Manager) Remove(ctx context.Context, addrs ...string) error {
	pipe := m.rdb.TxPipeline()
	for _, a := range addrs {
		pipe.Del(ctx, roomKey(a), warriorKey(a), custodyKey(a))
	}
	_, err := pipe.Exec(ctx)
	return err
}
