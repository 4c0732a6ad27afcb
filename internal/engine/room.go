package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/internal/vrf"
	"github.com/undeadlabs/arena/pkg/addr"
)

const maxRoomIDLen = 64

// battleWarrior loads a warrior and checks it can enter a room right now.
func (e *Engine) battleWarrior(ctx context.Context, actor, warriorAddr string, now time.Time) (*domain.Warrior, error) {
	w, _, err := e.store.GetWarrior(ctx, warriorAddr)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrWarriorNotFound
	}
	if w.Owner != actor {
		return nil, domain.ErrUnauthorized
	}
	if !w.Finalized() {
		return nil, domain.ErrWarriorUnfinalized
	}
	if !w.OffCooldown(now) {
		return nil, domain.ErrWarriorOnCooldown
	}
	return w, nil
}

// payEntryFee debits the battle entry fee from the actor's balance.
func (e *Engine) payEntryFee(ctx context.Context, actor string, fee uint64) error {
	profileAddr := addr.Profile(actor)
	p, err := e.profile(ctx, actor, profileAddr)
	if err != nil {
		return err
	}
	if p.Balance < fee {
		return domain.ErrInsufficientFee
	}
	p.Balance -= fee
	return e.store.PutProfile(ctx, profileAddr, p)
}

func (e *Engine) createBattleRoom(ctx context.Context, c CreateBattleRoom) (*domain.BattleRoom, error) {
	cfg, err := e.activeConfig(ctx, true)
	if err != nil {
		return nil, err
	}
	roomID := strings.TrimSpace(c.RoomID)
	if roomID == "" || len(roomID) > maxRoomIDLen {
		return nil, domain.ErrInvalidRoomID
	}
	roomAddr := addr.Battle(roomID)
	if existing, _, err := e.store.GetRoom(ctx, roomAddr); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrInvalidRoomID
	}

	now := e.now()
	if _, err := e.battleWarrior(ctx, c.Actor, c.WarriorAddr, now); err != nil {
		return nil, err
	}

	r := &domain.BattleRoom{
		RoomID:    roomID,
		CreatedAt: now,
		PlayerA:   c.Actor,
		WarriorA:  c.WarriorAddr,
		State:     domain.StateWaitingForOpponent,
	}

	preCommitted := len(c.Concepts) > 0 || len(c.Questions) > 0 || len(c.AnswerKey) > 0
	if preCommitted {
		if err := e.commitContent(r, c.Concepts, c.Questions, c.AnswerKey); err != nil {
			return nil, err
		}
	}

	if err := e.payEntryFee(ctx, c.Actor, cfg.BattleEntryFee); err != nil {
		return nil, err
	}
	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}

	obslog.L().Info("battle room created",
		zap.String("room", roomID),
		zap.String("creator", c.Actor),
		zap.Bool("pre_committed", preCommitted))
	e.publish("room_created", roomID, map[string]string{"creator": c.Actor, "state": r.State.String()})
	return r, nil
}

// commitContent validates and installs a full question set, advancing the
// room to QuestionsSelected.
func (e *Engine) commitContent(r *domain.BattleRoom, concepts []uint8, questions []uint16, answerKey []bool) error {
	if len(concepts) != domain.ConceptsPerBattle ||
		len(questions) != domain.QuestionsPerBattle ||
		len(answerKey) != domain.QuestionsPerBattle {
		return domain.ErrInvalidConcepts
	}
	seen := make(map[uint8]bool, len(concepts))
	for _, id := range concepts {
		if seen[id] || !e.catalog.ValidConcept(id) {
			return domain.ErrInvalidConcepts
		}
		seen[id] = true
	}
	topics := make([]uint8, len(questions))
	for i, qid := range questions {
		if q := e.catalog.Question(qid); q != nil {
			topics[i] = q.Topic
		}
	}
	r.SelectedConcepts = append([]uint8(nil), concepts...)
	r.SelectedTopics = topics
	r.SelectedQuestions = append([]uint16(nil), questions...)
	r.AnswerKey = append([]bool(nil), answerKey...)
	r.State = domain.StateQuestionsSelected
	return nil
}

func (e *Engine) selectBattleConcepts(ctx context.Context, c SelectBattleConcepts) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, true); err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, _, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if c.Actor != r.PlayerA {
		return nil, domain.ErrUnauthorized
	}
	if r.State != domain.StateWaitingForOpponent {
		return nil, domain.ErrInvalidBattleState
	}
	if r.PendingRequestID != "" {
		return nil, domain.ErrInvalidBattleState
	}

	requestID := vrf.NewRequestID()
	if err := e.oracle.Request(ctx, requestID, c.ClientSeed); err != nil {
		return nil, err
	}
	r.PendingRequestID = requestID
	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}
	if err := e.store.PutPending(ctx, &domain.PendingRandomnessRequest{
		RequestID:   requestID,
		Target:      roomAddr,
		Purpose:     domain.PurposeConceptSelection,
		ClientSeed:  c.ClientSeed,
		RequestedAt: e.now(),
	}); err != nil {
		return nil, err
	}
	obslog.L().Info("concept selection requested",
		zap.String("room", r.RoomID), zap.String("request_id", requestID))
	return r, nil
}

func (e *Engine) finalizeConceptSelection(ctx context.Context, c FinalizeConceptSelection) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, _, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if c.Actor != r.PlayerA {
		return nil, domain.ErrUnauthorized
	}
	if r.State != domain.StateWaitingForOpponent {
		return nil, domain.ErrInvalidBattleState
	}

	pending, err := e.store.GetPending(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if pending == nil || pending.Purpose != domain.PurposeConceptSelection {
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

	concepts, topics, questions, answers := e.catalog.Draw(result)
	r.SelectedConcepts = concepts
	r.SelectedTopics = topics
	r.SelectedQuestions = questions
	r.AnswerKey = answers
	r.State = domain.StateQuestionsSelected
	r.PendingRequestID = ""

	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}
	if err := e.store.DeletePending(ctx, roomAddr); err != nil {
		return nil, err
	}
	obslog.L().Info("battle content drawn",
		zap.String("room", r.RoomID), zap.Uint8s("concepts", concepts))
	return r, nil
}

func (e *Engine) joinBattleRoom(ctx context.Context, c JoinBattleRoom) (*domain.BattleRoom, error) {
	cfg, err := e.activeConfig(ctx, true)
	if err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, _, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if r.State != domain.StateQuestionsSelected {
		return nil, domain.ErrInvalidBattleState
	}
	if r.PlayerB != "" {
		return nil, domain.ErrRoomFull
	}
	if c.Actor == r.PlayerA {
		return nil, domain.ErrUnauthorized
	}
	if c.WarriorAddr == r.WarriorA {
		return nil, domain.ErrSameWarrior
	}
	now := e.now()
	if _, err := e.battleWarrior(ctx, c.Actor, c.WarriorAddr, now); err != nil {
		return nil, err
	}
	if err := e.payEntryFee(ctx, c.Actor, cfg.BattleEntryFee); err != nil {
		return nil, err
	}

	r.PlayerB = c.Actor
	r.WarriorB = c.WarriorAddr
	r.State = domain.StateAwaitingReady
	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}

	obslog.L().Info("battle room joined",
		zap.String("room", r.RoomID), zap.String("player", c.Actor))
	e.publish("room_joined", r.RoomID, map[string]string{"player": c.Actor})
	return r, nil
}

func (e *Engine) signalReady(ctx context.Context, c SignalReady) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, _, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if !r.IsParticipant(c.Actor) {
		return nil, domain.ErrNotParticipant
	}
	if r.State != domain.StateAwaitingReady {
		return nil, domain.ErrInvalidBattleState
	}

	switch c.Actor {
	case r.PlayerA:
		if r.ReadyA {
			return r, nil
		}
		r.ReadyA = true
	case r.PlayerB:
		if r.ReadyB {
			return r, nil
		}
		r.ReadyB = true
	}

	if r.ReadyA && r.ReadyB {
		for _, wAddr := range []string{r.WarriorA, r.WarriorB} {
			w, _, err := e.store.GetWarrior(ctx, wAddr)
			if err != nil {
				return nil, err
			}
			if w == nil {
				return nil, domain.ErrWarriorNotFound
			}
			w.CurrentHP = w.MaxHP
			if err := e.store.PutWarrior(ctx, wAddr, w); err != nil {
				return nil, err
			}
		}
		r.CurrentQuestion = 0
		r.CorrectA, r.CorrectB = 0, 0
		r.CriticalHits = 0
		r.AnswersA = [domain.QuestionsPerBattle]*bool{}
		r.AnswersB = [domain.QuestionsPerBattle]*bool{}
		r.State = domain.StateReadyForDelegation
	}

	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}
	obslog.L().Info("ready signaled",
		zap.String("room", r.RoomID),
		zap.String("player", c.Actor),
		zap.String("state", r.State.String()))
	return r, nil
}

func (e *Engine) cancelBattleRoom(ctx context.Context, c CancelBattleRoom) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	roomAddr := addr.Battle(c.RoomID)
	r, _, err := e.store.GetRoom(ctx, roomAddr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRoomNotFound
	}
	if c.Actor != r.PlayerA {
		return nil, domain.ErrUnauthorized
	}
	if r.State >= domain.StateDelegated {
		return nil, domain.ErrInvalidBattleState
	}
	r.State = domain.StateCancelled
	if err := e.store.PutRoom(ctx, roomAddr, r); err != nil {
		return nil, err
	}
	if r.PendingRequestID != "" {
		if err := e.store.DeletePending(ctx, roomAddr); err != nil {
			return nil, err
		}
	}
	obslog.L().Info("battle room cancelled", zap.String("room", r.RoomID))
	e.publish("room_cancelled", r.RoomID, nil)
	return r, nil
}

func (e *Engine) delegateBattle(ctx context.Context, c DelegateBattle) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	r, err := e.coord.Delegate(ctx, c.Actor, c.RoomID)
	if err != nil {
		return nil, err
	}
	e.publish("battle_delegated", r.RoomID, nil)
	return r, nil
}

func (e *Engine) startBattle(ctx context.Context, c StartBattle) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	r, err := e.fast.StartBattle(ctx, c.Actor, addr.Battle(c.RoomID))
	if err != nil {
		return nil, err
	}
	e.publish("battle_started", r.RoomID, nil)
	return r, nil
}

func (e *Engine) answerQuestion(ctx context.Context, c AnswerQuestion) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	r, err := e.fast.AnswerQuestion(ctx, c.Actor, addr.Battle(c.RoomID), c.Answer, c.ClientSeed)
	if err != nil {
		return nil, err
	}
	e.publish("question_answered", r.RoomID, map[string]any{
		"question": r.CurrentQuestion,
		"state":    r.State.String(),
	})
	if r.State == domain.StateCompleted {
		e.publish("battle_completed", r.RoomID, map[string]string{"winner": r.Winner})
	}
	return r, nil
}

func (e *Engine) settleBattleRoom(ctx context.Context, c SettleBattleRoom) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	r, err := e.fast.Settle(ctx, c.Actor, addr.Battle(c.RoomID))
	if err != nil {
		return nil, err
	}
	e.publish("battle_settled", r.RoomID, nil)
	return r, nil
}

func (e *Engine) undelegateBattleRoom(ctx context.Context, c UndelegateBattleRoom) (*domain.BattleRoom, error) {
	if _, err := e.activeConfig(ctx, false); err != nil {
		return nil, err
	}
	r, err := e.coord.Undelegate(ctx, c.Actor, c.RoomID)
	if err != nil {
		return nil, err
	}
	e.publish("battle_undelegated", r.RoomID, nil)
	return r, nil
}
