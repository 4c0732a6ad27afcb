package fastctx

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/battle"
	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/internal/obslog"
)

// AnswerQuestion records one player's answer to the current question.
// Answers stay hidden until both players have submitted; the completing
// submission grades the turn, applies damage both ways, and advances or
// finishes the battle.
func (m *Manager) AnswerQuestion(ctx context.Context, actor, roomAddr string, answer bool, clientSeed uint8) (*domain.BattleRoom, error) {
	room, err := m.runTurn(ctx, roomAddr, func(st *turnState) error {
		r := st.room
		if !r.IsParticipant(actor) {
			return domain.ErrNotParticipant
		}
		if r.State != domain.StateInProgress {
			return domain.ErrInvalidBattleState
		}
		if r.CurrentQuestion >= domain.QuestionsPerBattle {
			return domain.ErrAllQuestionsAnswered
		}
		if r.HasAnswered(actor, r.CurrentQuestion) {
			return domain.ErrAlreadyAnswered
		}
		if st.warriorA == nil || st.warriorB == nil {
			return domain.ErrWarriorNotFound
		}

		q := r.CurrentQuestion
		v := answer
		if actor == r.PlayerA {
			r.AnswersA[q] = &v
		} else {
			r.AnswersB[q] = &v
		}

		if r.AnswersA[q] == nil || r.AnswersB[q] == nil {
			// waiting for the opponent; nothing to grade yet
			r.BattleDuration = duration(r)
			return nil
		}

		correct := r.AnswerKey[q]
		aCorrect := *r.AnswersA[q] == correct
		bCorrect := *r.AnswersB[q] == correct
		if aCorrect {
			r.CorrectA++
		}
		if bCorrect {
			r.CorrectB++
		}

		// correct answers strike; the grader's seed covers both rolls,
		// offset so the two strikes never share an event hash
		if aCorrect {
			strike(r, st.warriorA, st.warriorB, r.WarriorA, r.WarriorB, r.PlayerA, clientSeed)
		}
		if bCorrect && r.State != domain.StateCompleted {
			strike(r, st.warriorB, st.warriorA, r.WarriorB, r.WarriorA, r.PlayerB, clientSeed+1)
		}

		if r.State != domain.StateCompleted {
			if q < domain.QuestionsPerBattle-1 {
				r.CurrentQuestion++
			} else {
				finishByScore(r, st.warriorA.CurrentHP, st.warriorB.CurrentHP)
			}
		}
		r.BattleDuration = duration(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	obslog.L().Info("battle_answer",
		zap.String("room_id", room.RoomID),
		zap.String("actor", actor),
		zap.Uint8("question", room.CurrentQuestion),
		zap.Uint8("score_a", room.CorrectA),
		zap.Uint8("score_b", room.CorrectB),
		zap.String("state", room.State.String()),
	)
	return room, nil
}

// strike applies one resolved attack and flags elimination wins.
func strike(r *domain.BattleRoom, attacker, defender *domain.Warrior, attackerAddr, defenderAddr, attackerPlayer string, seed uint8) {
	dmg, crit := battle.Resolve(battle.Input{
		Attacker:          battle.Stats{Attack: attacker.BaseAttack, Defense: attacker.BaseDefense, Knowledge: attacker.BaseKnowledge},
		Defender:          battle.Stats{Attack: defender.BaseAttack, Defense: defender.BaseDefense, Knowledge: defender.BaseKnowledge},
		AnsweredCorrectly: true,
		RoomID:            r.RoomID,
		QuestionIndex:     r.CurrentQuestion,
		AttackerAddr:      attackerAddr,
		DefenderAddr:      defenderAddr,
		ClientSeed:        seed,
	})
	if crit {
		r.CriticalHits++
	}
	if dmg >= defender.CurrentHP {
		defender.CurrentHP = 0
		r.Winner = attackerPlayer
		r.State = domain.StateCompleted
		return
	}
	defender.CurrentHP -= dmg
}

// finishByScore decides the winner after the last question: higher HP,
// tie-break by correct count, full tie leaves no winner.
func finishByScore(r *domain.BattleRoom, hpA, hpB uint16) {
	switch {
	case hpA > hpB:
		r.Winner = r.PlayerA
	case hpB > hpA:
		r.Winner = r.PlayerB
	case r.CorrectA > r.CorrectB:
		r.Winner = r.PlayerA
	case r.CorrectB > r.CorrectA:
		r.Winner = r.PlayerB
	}
	r.State = domain.StateCompleted
}

func duration(r *domain.BattleRoom) uint32 {
	if r.BattleStartTime.IsZero() {
		return 0
	}
	d := time.Since(r.BattleStartTime)
	if d < 0 {
		return 0
	}
	return uint32(d / time.Second)
}
