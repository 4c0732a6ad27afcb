package custody

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/fastctx"
	"github.com/undeadlabs/arena/internal/ledger"
	"github.com/undeadlabs/arena/pkg/addr"
)

const testRoomID = "duel-77"

func newFixture(t *testing.T) (*miniredis.Miniredis, ledger.Store, *fastctx.Manager, *Coordinator) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	fast, err := fastctx.NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("fastctx.NewManager: %v", err)
	}
	t.Cleanup(func() { _ = fast.Close() })

	store := ledger.NewMemoryStore()
	coord := New(store, fast, 3, 5*time.Millisecond)
	return mr, store, fast, coord
}

func seedReadyRoom(t *testing.T, store ledger.Store) (roomAddr, wa, wb string) {
	t.Helper()
	ctx := context.Background()
	roomAddr = addr.Battle(testRoomID)
	wa = addr.Warrior("playerA", "alpha")
	wb = addr.Warrior("playerB", "beta")

	key := make([]bool, domain.QuestionsPerBattle)
	room := &domain.BattleRoom{
		RoomID:   testRoomID,
		PlayerA:  "playerA",
		PlayerB:  "playerB",
		WarriorA: wa,
		WarriorB: wb,
		ReadyA:   true, ReadyB: true,
		AnswerKey: key,
		State:     domain.StateReadyForDelegation,
	}
	if err := store.PutRoom(ctx, roomAddr, room); err != nil {
		t.Fatalf("PutRoom: %v", err)
	}
	for i, a := range []string{wa, wb} {
		w := &domain.Warrior{
			Owner: room.PlayerA, Name: "alpha",
			BaseAttack: 60 + uint16(i)*10, BaseDefense: 55, BaseKnowledge: 60,
			CurrentHP: domain.BaseHP, MaxHP: domain.BaseHP,
		}
		if i == 1 {
			w.Owner, w.Name = room.PlayerB, "beta"
		}
		if err := store.PutWarrior(ctx, a, w); err != nil {
			t.Fatalf("PutWarrior: %v", err)
		}
	}
	return roomAddr, wa, wb
}

func TestDelegateHandsOffAllRecords(t *testing.T) {
	_, store, fast, coord := newFixture(t)
	ctx := context.Background()
	roomAddr, wa, wb := seedReadyRoom(t, store)

	if _, err := coord.Delegate(ctx, "stranger", testRoomID); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("stranger delegate = %v", err)
	}

	room, err := coord.Delegate(ctx, "playerA", testRoomID)
	if err != nil {
		t.Fatalf("Delegate: %v", err)
	}
	if room.State != domain.StateDelegated {
		t.Fatalf("room state after delegate: %s", room.State)
	}

	for _, a := range []string{roomAddr, wa, wb} {
		held, err := fast.Holds(ctx, a)
		if err != nil || !held {
			t.Fatalf("fast context does not hold %s: held=%v err=%v", a, held, err)
		}
	}

	// ledger writes refuse while delegated
	_, _, err = store.GetRoom(ctx, roomAddr)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if err := store.PutRoom(ctx, roomAddr, room); !errors.Is(err, domain.ErrOwnershipMismatch) {
		t.Fatalf("ledger write while delegated = %v", err)
	}

	if _, err := coord.Delegate(ctx, "playerA", testRoomID); !errors.Is(err, domain.ErrAlreadyDelegated) {
		t.Fatalf("double delegate = %v", err)
	}
}

func TestDelegateRequiresReadyState(t *testing.T) {
	_, store, _, coord := newFixture(t)
	ctx := context.Background()
	roomAddr, _, _ := seedReadyRoom(t, store)

	room, _, _ := store.GetRoom(ctx, roomAddr)
	room.State = domain.StateAwaitingReady
	if err := store.PutRoom(ctx, roomAddr, room); err != nil {
		t.Fatalf("PutRoom: %v", err)
	}
	if _, err := coord.Delegate(ctx, "playerA", testRoomID); !errors.Is(err, domain.ErrInvalidBattleState) {
		t.Fatalf("delegate from AwaitingReady = %v", err)
	}
}

func TestUndelegateRoundTrip(t *testing.T) {
	_, store, fast, coord := newFixture(t)
	ctx := context.Background()
	roomAddr, wa, wb := seedReadyRoom(t, store)

	if _, err := coord.Delegate(ctx, "playerA", testRoomID); err != nil {
		t.Fatalf("Delegate: %v", err)
	}
	if _, err := fast.StartBattle(ctx, "playerA", roomAddr); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}

	// play a single graded turn, then force completion through the real
	// final-question path by answering the rest
	r, err := fast.GetRoom(ctx, roomAddr)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	for r.State == domain.StateInProgress {
		q := r.CurrentQuestion
		if _, err := fast.AnswerQuestion(ctx, "playerA", roomAddr, r.AnswerKey[q], uint8(q)); err != nil {
			t.Fatalf("A answers q%d: %v", q, err)
		}
		r, err = fast.AnswerQuestion(ctx, "playerB", roomAddr, !r.AnswerKey[q], uint8(q))
		if err != nil {
			t.Fatalf("B answers q%d: %v", q, err)
		}
	}

	// the fast-context settle must run before custody can return
	if _, err := coord.Undelegate(ctx, "playerA", testRoomID); !errors.Is(err, domain.ErrInvalidBattleState) {
		t.Fatalf("undelegate before settle = %v", err)
	}

	if _, err := fast.Settle(ctx, "playerA", roomAddr); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	room, err := coord.Undelegate(ctx, "playerA", testRoomID)
	if err != nil {
		t.Fatalf("Undelegate: %v", err)
	}
	if room.State != domain.StateCompleted || !room.XPApplied {
		t.Fatalf("merged room: state=%s xp=%v", room.State, room.XPApplied)
	}

	// custody is back: ledger writes work, fast copies are gone
	if err := store.PutRoom(ctx, roomAddr, room); err != nil {
		t.Fatalf("ledger write after return: %v", err)
	}
	for _, a := range []string{roomAddr, wa, wb} {
		held, err := fast.Holds(ctx, a)
		if err != nil || held {
			t.Fatalf("fast context still holds %s", a)
		}
	}

	// merged warriors carry the battle results
	merged, _, err := store.GetWarrior(ctx, wa)
	if err != nil || merged == nil {
		t.Fatalf("GetWarrior after merge: %v", err)
	}
	if merged.ExperiencePoints == 0 {
		t.Fatal("warrior XP lost in the merge")
	}

	// repeat undelegation is an idempotent observation
	again, err := coord.Undelegate(ctx, "playerA", testRoomID)
	if err != nil {
		t.Fatalf("repeat Undelegate: %v", err)
	}
	if again.RoomID != testRoomID {
		t.Fatalf("repeat undelegate room: %+v", again)
	}
}

func TestDelegateInstallFailureRollsBack(t *testing.T) {
	mr, store, fast, coord := newFixture(t)
	ctx := context.Background()
	roomAddr, wa, wb := seedReadyRoom(t, store)

	// redis down mid-command: the handoff must fail without leaving the
	// room half-delegated in the ledger
	mr.Close()
	if _, err := coord.Delegate(ctx, "playerA", testRoomID); err == nil {
		t.Fatal("Delegate succeeded against an unreachable fast context")
	}

	room, cust, err := store.GetRoom(ctx, roomAddr)
	if err != nil || room == nil {
		t.Fatalf("GetRoom after failure: %v", err)
	}
	if room.State != domain.StateReadyForDelegation {
		t.Fatalf("state after failed delegate = %v, want ReadyForDelegation", room.State)
	}
	if cust != domain.OwnedByLedger {
		t.Fatalf("room custody after failed delegate = %v, want OwnedByLedger", cust)
	}
	for _, a := range []string{wa, wb} {
		if _, wc, err := store.GetWarrior(ctx, a); err != nil || wc != domain.OwnedByLedger {
			t.Fatalf("warrior %s custody = %v err = %v, want OwnedByLedger", a, wc, err)
		}
	}

	// with redis back, a plain retry completes the handoff
	if err := mr.Restart(); err != nil {
		t.Fatalf("miniredis restart: %v", err)
	}
	if _, err := coord.Delegate(ctx, "playerA", testRoomID); err != nil {
		t.Fatalf("Delegate after recovery: %v", err)
	}
	held, err := fast.Holds(ctx, roomAddr)
	if err != nil || !held {
		t.Fatalf("fast context holds after recovery = %v err = %v", held, err)
	}
	room, _, err = store.GetRoom(ctx, roomAddr)
	if err != nil || room.State != domain.StateDelegated {
		t.Fatalf("ledger state after recovery = %v err = %v", room.State, err)
	}
}

func TestEmergencyEndRecoversWedgedRoom(t *testing.T) {
	_, store, fast, coord := newFixture(t)
	ctx := context.Background()
	roomAddr, wa, wb := seedReadyRoom(t, store)

	// a handoff stranded between phases: the ledger says in transit but
	// the fast context never received the records
	room, _, err := store.GetRoom(ctx, roomAddr)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	room.State = domain.StateDelegated
	if err := store.SealRoom(ctx, roomAddr, room); err != nil {
		t.Fatalf("SealRoom: %v", err)
	}
	for _, a := range []string{roomAddr, wa, wb} {
		if err := store.SetCustody(ctx, a, domain.InTransit); err != nil {
			t.Fatalf("SetCustody: %v", err)
		}
	}

	// neither regular path can move the room
	if _, err := coord.Delegate(ctx, "playerA", testRoomID); !errors.Is(err, domain.ErrInvalidBattleState) {
		t.Fatalf("Delegate on stranded room = %v, want ErrInvalidBattleState", err)
	}
	if _, err := coord.Undelegate(ctx, "playerA", testRoomID); !errors.Is(err, domain.ErrOwnershipMismatch) {
		t.Fatalf("Undelegate on stranded room = %v, want ErrOwnershipMismatch", err)
	}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	got, err := coord.EmergencyEnd(ctx, testRoomID, 450*time.Second, now)
	if err != nil {
		t.Fatalf("EmergencyEnd: %v", err)
	}
	if got.State != domain.StateCompleted || got.Winner != "" || got.XPApplied {
		t.Fatalf("emergency outcome: state=%v winner=%q xp=%v", got.State, got.Winner, got.XPApplied)
	}

	for _, a := range []string{roomAddr, wa, wb} {
		var cust domain.Custody
		if a == roomAddr {
			_, cust, err = store.GetRoom(ctx, a)
		} else {
			_, cust, err = store.GetWarrior(ctx, a)
		}
		if err != nil || cust != domain.OwnedByLedger {
			t.Fatalf("custody of %s = %v err = %v, want OwnedByLedger", a, cust, err)
		}
	}
	for _, a := range []string{wa, wb} {
		w, _, err := store.GetWarrior(ctx, a)
		if err != nil || w == nil {
			t.Fatalf("GetWarrior: %v", err)
		}
		if w.CurrentHP != w.MaxHP {
			t.Fatalf("warrior %s not healed: %d/%d", a, w.CurrentHP, w.MaxHP)
		}
		if !w.CooldownExpiresAt.Equal(now.Add(450 * time.Second)) {
			t.Fatalf("warrior %s cooldown = %v", a, w.CooldownExpiresAt)
		}
	}
	if held, err := fast.Holds(ctx, roomAddr); err != nil || held {
		t.Fatalf("fast context still holds the room: held=%v err=%v", held, err)
	}

	// terminal rooms reject a second intervention once settled; a
	// completed no-contest room stays where the admin left it
	if _, err := coord.EmergencyEnd(ctx, testRoomID, 450*time.Second, now); err != nil {
		t.Fatalf("repeat EmergencyEnd on completed room: %v", err)
	}
}
